// Package config provides the configuration structures for the
// columnar engine's runtime policy and the conformance harness's
// per-packet gate. It follows the teacher's BaseConfig idiom — a
// sectioned struct with yaml/json tags, a New*Default constructor, and
// a Validate method — scoped down to the fields this spec actually
// names instead of a generic connector configuration surface.
package config

import "fmt"

// Mode is the runtime policy's operating mode.
type Mode string

const (
	ModeStrict   Mode = "strict"
	ModeHardened Mode = "hardened"
)

// LossMatrix gives the expected-loss cost of each (action, truth) pair
// the Bayesian decision engine chooses between.
type LossMatrix struct {
	AllowIfCompatible     float64 `yaml:"allow_if_compatible" json:"allow_if_compatible"`
	AllowIfIncompatible   float64 `yaml:"allow_if_incompatible" json:"allow_if_incompatible"`
	RejectIfCompatible    float64 `yaml:"reject_if_compatible" json:"reject_if_compatible"`
	RejectIfIncompatible  float64 `yaml:"reject_if_incompatible" json:"reject_if_incompatible"`
	RepairIfCompatible    float64 `yaml:"repair_if_compatible" json:"repair_if_compatible"`
	RepairIfIncompatible  float64 `yaml:"repair_if_incompatible" json:"repair_if_incompatible"`
}

// DefaultLossMatrix returns the spec's default loss matrix (§4.7).
func DefaultLossMatrix() LossMatrix {
	return LossMatrix{
		AllowIfCompatible:    0.0,
		AllowIfIncompatible:  100.0,
		RejectIfCompatible:   6.0,
		RejectIfIncompatible: 0.5,
		RepairIfCompatible:   2.0,
		RepairIfIncompatible: 3.0,
	}
}

// DefaultJoinLossMatrix returns the stricter loss matrix used for join
// cardinality admission, biasing Hardened mode toward repair.
func DefaultJoinLossMatrix() LossMatrix {
	m := DefaultLossMatrix()
	m.AllowIfIncompatible = 130.0
	m.RepairIfCompatible = 1.5
	return m
}

// PolicyConfig configures a RuntimePolicy instance.
type PolicyConfig struct {
	Mode                      Mode       `yaml:"mode" json:"mode"`
	FailClosedUnknownFeatures bool       `yaml:"fail_closed_unknown_features" json:"fail_closed_unknown_features"`
	HardenedJoinRowCap        *int64     `yaml:"hardened_join_row_cap" json:"hardened_join_row_cap"`
	ArenaBudgetBytes          int64      `yaml:"arena_budget_bytes" json:"arena_budget_bytes"`
	Prior                     float64    `yaml:"prior" json:"prior"`
	LossMatrix                LossMatrix `yaml:"loss_matrix" json:"loss_matrix"`
	JoinLossMatrix            LossMatrix `yaml:"join_loss_matrix" json:"join_loss_matrix"`
	ConformalAlpha            float64    `yaml:"conformal_alpha" json:"conformal_alpha"`
	ConformalWindow           int        `yaml:"conformal_window" json:"conformal_window"`
	ConformalMinCoverageEvals int        `yaml:"conformal_min_coverage_evals" json:"conformal_min_coverage_evals"`
}

// NewDefaultPolicyConfig returns production-ready defaults for Strict mode.
func NewDefaultPolicyConfig() *PolicyConfig {
	cap := int64(1_000_000)
	return &PolicyConfig{
		Mode:                      ModeStrict,
		FailClosedUnknownFeatures: true,
		HardenedJoinRowCap:        &cap,
		ArenaBudgetBytes:          256 * 1024 * 1024,
		Prior:                     0.9,
		LossMatrix:                DefaultLossMatrix(),
		JoinLossMatrix:            DefaultJoinLossMatrix(),
		ConformalAlpha:            0.1,
		ConformalWindow:           1000,
		ConformalMinCoverageEvals: 100,
	}
}

// Validate checks the configuration for internal consistency.
func (c *PolicyConfig) Validate() error {
	if c.Mode != ModeStrict && c.Mode != ModeHardened {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeStrict, ModeHardened, c.Mode)
	}
	if c.Prior <= 0 || c.Prior >= 1 {
		return fmt.Errorf("prior must be in the open interval (0,1), got %f", c.Prior)
	}
	if c.ArenaBudgetBytes <= 0 {
		return fmt.Errorf("arena_budget_bytes must be positive")
	}
	if c.HardenedJoinRowCap != nil && *c.HardenedJoinRowCap <= 0 {
		return fmt.Errorf("hardened_join_row_cap must be positive when set")
	}
	if c.ConformalAlpha <= 0 || c.ConformalAlpha > 1 {
		return fmt.Errorf("conformal_alpha must be in (0,1]")
	}
	return nil
}

// ClampedAlpha returns the conformal significance level clamped to [0.01, 0.5]
// as the spec requires.
func (c *PolicyConfig) ClampedAlpha() float64 {
	return clamp(c.ConformalAlpha, 0.01, 0.5)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
