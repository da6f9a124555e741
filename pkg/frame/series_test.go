package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

func mustIndex(t *testing.T, labels ...int64) *rindex.Index {
	t.Helper()
	ls := make([]rindex.Label, len(labels))
	for i, l := range labels {
		ls[i] = rindex.Int64Label(l)
	}
	idx, err := rindex.New(ls)
	require.NoError(t, err)
	return idx
}

func mustInt64Column(t *testing.T, values ...int64) *column.Column {
	t.Helper()
	scalars := make([]dtype.Scalar, len(values))
	for i, v := range values {
		scalars[i] = dtype.NewInt64(v)
	}
	col, err := column.NewFromScalars(scalars)
	require.NoError(t, err)
	return col
}

func newPolicy(mode config.Mode) (*policy.RuntimePolicy, *policy.EvidenceLedger) {
	cfg := config.NewDefaultPolicyConfig()
	cfg.Mode = mode
	return policy.New(cfg), policy.NewEvidenceLedger()
}

func TestArithAlignsOnUnion(t *testing.T) {
	left, err := NewSeries("a", mustIndex(t, 1, 2, 3), mustInt64Column(t, 10, 20, 30))
	require.NoError(t, err)
	right, err := NewSeries("a", mustIndex(t, 2, 3, 4), mustInt64Column(t, 200, 300, 400))
	require.NoError(t, err)

	p, ledger := newPolicy(config.ModeStrict)
	result, err := Arith(left, right, OpAdd, p, ledger)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Len())

	pos, ok := result.Index.Position(rindex.Int64Label(2))
	require.True(t, ok)
	assert.Equal(t, int64(220), result.Column.At(pos).Int64())

	pos, ok = result.Index.Position(rindex.Int64Label(1))
	require.True(t, ok)
	assert.True(t, result.Column.At(pos).IsMissing())
}

func TestArithStrictRejectsDuplicateIndex(t *testing.T) {
	left, err := NewSeries("a", mustIndex(t, 1, 1, 2), mustInt64Column(t, 1, 2, 3))
	require.NoError(t, err)
	right, err := NewSeries("a", mustIndex(t, 1, 2), mustInt64Column(t, 10, 20))
	require.NoError(t, err)

	p, ledger := newPolicy(config.ModeStrict)
	_, err = Arith(left, right, OpAdd, p, ledger)
	assert.Error(t, err)
}

func TestArithCardinalityAdmission(t *testing.T) {
	left, err := NewSeries("a", mustIndex(t, 1, 2, 3), mustInt64Column(t, 1, 2, 3))
	require.NoError(t, err)
	right, err := NewSeries("a", mustIndex(t, 4, 5, 6), mustInt64Column(t, 4, 5, 6))
	require.NoError(t, err)

	cfg := config.NewDefaultPolicyConfig()
	cfg.Mode = config.ModeStrict
	cap := int64(3)
	cfg.HardenedJoinRowCap = &cap
	p := policy.New(cfg)
	ledger := policy.NewEvidenceLedger()

	_, err = Arith(left, right, OpAdd, p, ledger)
	assert.Error(t, err)
	assert.NotEmpty(t, ledger.Records())
}

func TestArithMismatchedNamesClearsName(t *testing.T) {
	left, err := NewSeries("a", mustIndex(t, 1, 2), mustInt64Column(t, 1, 2))
	require.NoError(t, err)
	right, err := NewSeries("b", mustIndex(t, 1, 2), mustInt64Column(t, 10, 20))
	require.NoError(t, err)

	p, ledger := newPolicy(config.ModeHardened)
	result, err := Arith(left, right, OpAdd, p, ledger)
	require.NoError(t, err)
	assert.Equal(t, "", result.Name)
}

func TestNewSeriesLengthMismatch(t *testing.T) {
	_, err := NewSeries("a", mustIndex(t, 1, 2, 3), mustInt64Column(t, 1, 2))
	assert.Error(t, err)
}

func TestCompareAlignsOnUnion(t *testing.T) {
	left, err := NewSeries("a", mustIndex(t, 1, 2, 3), mustInt64Column(t, 10, 20, 30))
	require.NoError(t, err)
	right, err := NewSeries("a", mustIndex(t, 1, 2, 3), mustInt64Column(t, 15, 20, 5))
	require.NoError(t, err)

	p, ledger := newPolicy(config.ModeStrict)
	result, err := Compare(left, right, OpGt, p, ledger)
	require.NoError(t, err)
	assert.False(t, result.Column.At(0).Bool())
	assert.False(t, result.Column.At(1).Bool())
	assert.True(t, result.Column.At(2).Bool())
}

func mustBoolColumn(t *testing.T, values ...bool) *column.Column {
	t.Helper()
	scalars := make([]dtype.Scalar, len(values))
	for i, v := range values {
		scalars[i] = dtype.NewBool(v)
	}
	col, err := column.NewFromScalars(scalars)
	require.NoError(t, err)
	return col
}

func TestLogicalAndOr(t *testing.T) {
	left, err := NewSeries("a", mustIndex(t, 1, 2), mustBoolColumn(t, true, false))
	require.NoError(t, err)
	right, err := NewSeries("a", mustIndex(t, 1, 2), mustBoolColumn(t, true, true))
	require.NoError(t, err)

	p, ledger := newPolicy(config.ModeStrict)
	and, err := Logical(left, right, OpAnd, p, ledger)
	require.NoError(t, err)
	assert.True(t, and.Column.At(0).Bool())
	assert.False(t, and.Column.At(1).Bool())

	or, err := Logical(left, right, OpOr, p, ledger)
	require.NoError(t, err)
	assert.True(t, or.Column.At(1).Bool())
}

func TestNotNegatesSeries(t *testing.T) {
	s, err := NewSeries("mask", mustIndex(t, 1, 2), mustBoolColumn(t, true, false))
	require.NoError(t, err)

	result, err := Not(s)
	require.NoError(t, err)
	assert.False(t, result.Column.At(0).Bool())
	assert.True(t, result.Column.At(1).Bool())
}
