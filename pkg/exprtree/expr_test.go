package exprtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

func idx(t *testing.T, labels ...int64) *rindex.Index {
	t.Helper()
	ls := make([]rindex.Label, len(labels))
	for i, l := range labels {
		ls[i] = rindex.Int64Label(l)
	}
	i2, err := rindex.New(ls)
	require.NoError(t, err)
	return i2
}

func series(t *testing.T, name string, index *rindex.Index, values ...int64) *frame.Series {
	t.Helper()
	scalars := make([]dtype.Scalar, len(values))
	for i, v := range values {
		scalars[i] = dtype.NewInt64(v)
	}
	col, err := column.NewFromScalars(scalars)
	require.NoError(t, err)
	s, err := frame.NewSeries(name, index, col)
	require.NoError(t, err)
	return s
}

func exprPolicy() (*policy.RuntimePolicy, *policy.EvidenceLedger) {
	cfg := config.NewDefaultPolicyConfig()
	cfg.Mode = config.ModeStrict
	return policy.New(cfg), policy.NewEvidenceLedger()
}

func TestEvalArithAndCompare(t *testing.T) {
	ctx := NewEvalContext(map[string]*frame.Series{
		"a": series(t, "a", idx(t, 0, 1, 2), 1, 2, 3),
		"b": series(t, "b", idx(t, 0, 1, 2), 10, 20, 30),
	})
	p, ledger := exprPolicy()

	sum := ArithNode{Op: frame.OpAdd, Left: SeriesRef{Name: "a"}, Right: SeriesRef{Name: "b"}}
	result, err := Eval(sum, ctx, p, ledger)
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.Column.At(0).Int64())

	gt := CompareNode{Op: frame.OpGt, Left: SeriesRef{Name: "b"}, Right: SeriesRef{Name: "a"}}
	cmp, err := Eval(gt, ctx, p, ledger)
	require.NoError(t, err)
	assert.True(t, cmp.Column.At(0).Bool())
}

func TestEvalLiteralBroadcastsAgainstSeriesSibling(t *testing.T) {
	ctx := NewEvalContext(map[string]*frame.Series{
		"a": series(t, "a", idx(t, 0, 1, 2), 1, 2, 3),
	})
	p, ledger := exprPolicy()

	expr := ArithNode{Op: frame.OpAdd, Left: SeriesRef{Name: "a"}, Right: Literal{Value: dtype.NewInt64(100)}}
	result, err := Eval(expr, ctx, p, ledger)
	require.NoError(t, err)
	assert.Equal(t, int64(101), result.Column.At(0).Int64())
	assert.Equal(t, int64(103), result.Column.At(2).Int64())
}

func TestEvalUnanchoredLiteralErrors(t *testing.T) {
	ctx := NewEvalContext(map[string]*frame.Series{})
	p, ledger := exprPolicy()

	expr := ArithNode{Op: frame.OpAdd, Left: Literal{Value: dtype.NewInt64(1)}, Right: Literal{Value: dtype.NewInt64(2)}}
	_, err := Eval(expr, ctx, p, ledger)
	assert.Error(t, err)
}

func TestEvalUnknownSeriesErrors(t *testing.T) {
	ctx := NewEvalContext(map[string]*frame.Series{})
	p, ledger := exprPolicy()

	_, err := Eval(SeriesRef{Name: "missing"}, ctx, p, ledger)
	assert.Error(t, err)
}

func TestNotNegatesBooleanSeries(t *testing.T) {
	col, err := column.NewFromScalars([]dtype.Scalar{dtype.NewBool(true), dtype.NewBool(false)})
	require.NoError(t, err)
	s, err := frame.NewSeries("mask", idx(t, 0, 1), col)
	require.NoError(t, err)
	ctx := NewEvalContext(map[string]*frame.Series{"mask": s})
	p, ledger := exprPolicy()

	result, err := Eval(NotNode{X: SeriesRef{Name: "mask"}}, ctx, p, ledger)
	require.NoError(t, err)
	assert.False(t, result.Column.At(0).Bool())
	assert.True(t, result.Column.At(1).Bool())
}

func TestIsLinearAcceptsAddSubOfSeriesRefsOnly(t *testing.T) {
	linear := ArithNode{Op: frame.OpSub, Left: SeriesRef{Name: "a"}, Right: SeriesRef{Name: "b"}}
	assert.True(t, IsLinear(linear))

	nonLinear := ArithNode{Op: frame.OpMul, Left: SeriesRef{Name: "a"}, Right: SeriesRef{Name: "b"}}
	assert.False(t, IsLinear(nonLinear))

	withLiteral := ArithNode{Op: frame.OpAdd, Left: SeriesRef{Name: "a"}, Right: Literal{Value: dtype.NewInt64(1)}}
	assert.False(t, IsLinear(withLiteral))
}

func TestApplyDeltaConcatenatesNewRowsForLinearExpr(t *testing.T) {
	a := series(t, "a", idx(t, 0, 1), 1, 2)
	b := series(t, "b", idx(t, 0, 1), 10, 20)
	ctx := NewEvalContext(map[string]*frame.Series{"a": a, "b": b})
	p, ledger := exprPolicy()

	expr := ArithNode{Op: frame.OpAdd, Left: SeriesRef{Name: "a"}, Right: SeriesRef{Name: "b"}}
	materialized, err := Eval(expr, ctx, p, ledger)
	require.NoError(t, err)

	delta := Delta{
		SeriesName: "b",
		NewLabels:  []rindex.Label{rindex.Int64Label(2)},
		NewValues:  []dtype.Scalar{dtype.NewInt64(30)},
	}
	updated, err := ApplyDelta(expr, ctx, delta, materialized, p, ledger)
	require.NoError(t, err)
	require.Equal(t, 3, updated.Len())
	assert.Equal(t, int64(11), updated.Column.At(0).Int64())
	assert.Equal(t, int64(22), updated.Column.At(1).Int64())
}
