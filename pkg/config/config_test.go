package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultPolicyConfigValidates(t *testing.T) {
	cfg := NewDefaultPolicyConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeStrict, cfg.Mode)
	assert.True(t, cfg.FailClosedUnknownFeatures)
}

func TestPolicyConfigValidateRejectsBadMode(t *testing.T) {
	cfg := NewDefaultPolicyConfig()
	cfg.Mode = "weird"
	assert.Error(t, cfg.Validate())
}

func TestPolicyConfigValidateRejectsPriorOutOfRange(t *testing.T) {
	cfg := NewDefaultPolicyConfig()
	cfg.Prior = 1.0
	assert.Error(t, cfg.Validate())

	cfg.Prior = 0.0
	assert.Error(t, cfg.Validate())
}

func TestClampedAlpha(t *testing.T) {
	cfg := NewDefaultPolicyConfig()

	cfg.ConformalAlpha = 0.001
	assert.InDelta(t, 0.01, cfg.ClampedAlpha(), 1e-9)

	cfg.ConformalAlpha = 0.9
	assert.InDelta(t, 0.5, cfg.ClampedAlpha(), 1e-9)

	cfg.ConformalAlpha = 0.2
	assert.InDelta(t, 0.2, cfg.ClampedAlpha(), 1e-9)
}

func TestDefaultGateConfigValidates(t *testing.T) {
	gc := DefaultGateConfig("series_add")
	require.NoError(t, gc.Validate())
	assert.Equal(t, 0, gc.StrictBudgetCritical)
}

func TestGateConfigValidateRequiresPacketID(t *testing.T) {
	gc := DefaultGateConfig("")
	assert.Error(t, gc.Validate())
}

func TestAllowlistSet(t *testing.T) {
	gc := DefaultGateConfig("groupby_sum")
	gc.HardenedAllowlistCategories = []MismatchCategory{CategoryNullness, CategoryShape}

	set := gc.AllowlistSet()
	assert.True(t, set[CategoryNullness])
	assert.True(t, set[CategoryShape])
	assert.False(t, set[CategoryValue])
}
