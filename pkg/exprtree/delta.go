package exprtree

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// Delta names new rows appended to a single SeriesRef inside ctx.
type Delta struct {
	SeriesName string
	NewLabels  []rindex.Label
	NewValues  []dtype.Scalar
}

// IsLinear reports whether expr is built solely from SeriesRef leaves
// combined with Add/Sub, the closed shape §4.8 allows an incremental
// delta to skip full re-evaluation for.
func IsLinear(expr Expr) bool {
	switch e := expr.(type) {
	case SeriesRef:
		return true
	case Literal:
		return false
	case ArithNode:
		if e.Op != frame.OpAdd && e.Op != frame.OpSub {
			return false
		}
		return IsLinear(e.Left) && IsLinear(e.Right)
	default:
		return false
	}
}

// referencesOnly reports whether every SeriesRef leaf in expr names
// exactly the given series. The delta fast path below only applies in
// this case: once a linear expression also references some other
// series, computing the delta's contribution in isolation would need
// to look that other series up at the new labels too, which
// align_union based evaluation can't do without also carrying in that
// series' unrelated existing rows — so that case takes the full
// re-evaluation fallback instead, per this package's scope decision.
func referencesOnly(expr Expr, name string) bool {
	switch e := expr.(type) {
	case SeriesRef:
		return e.Name == name
	case Literal:
		return true
	case ArithNode:
		return referencesOnly(e.Left, name) && referencesOnly(e.Right, name)
	case CompareNode:
		return referencesOnly(e.Left, name) && referencesOnly(e.Right, name)
	case LogicalNode:
		return referencesOnly(e.Left, name) && referencesOnly(e.Right, name)
	case NotNode:
		return referencesOnly(e.X, name)
	default:
		return false
	}
}

// ApplyDelta implements §4.8's incremental-delta path: when expr is
// linear and touches only the delta's named series, it evaluates expr
// over just the new rows (the named series replaced by a delta-only
// Series covering NewLabels/NewValues) and concatenates that onto
// materialized. Every other case falls back to a full re-evaluation
// against ctx with the delta appended to the named series.
func ApplyDelta(expr Expr, ctx *EvalContext, delta Delta, materialized *frame.Series, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	base, ok := ctx.Series[delta.SeriesName]
	if !ok {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainExpr, "UnknownSeries",
			"delta names series %q, which is not present in the eval context", delta.SeriesName)
	}

	if !IsLinear(expr) || !referencesOnly(expr, delta.SeriesName) {
		extended, err := appendDelta(base, delta)
		if err != nil {
			return nil, err
		}
		return Eval(expr, ctx.With(delta.SeriesName, extended), p, ledger)
	}

	deltaIdx, err := rindex.New(delta.NewLabels)
	if err != nil {
		return nil, err
	}
	deltaCol, err := column.NewFromScalars(delta.NewValues)
	if err != nil {
		return nil, err
	}
	deltaOnly, err := frame.NewSeries(base.Name, deltaIdx, deltaCol)
	if err != nil {
		return nil, err
	}

	deltaResult, err := Eval(expr, ctx.With(delta.SeriesName, deltaOnly), p, ledger)
	if err != nil {
		return nil, err
	}
	return frame.ConcatSeries([]*frame.Series{materialized, deltaResult})
}

func appendDelta(base *frame.Series, delta Delta) (*frame.Series, error) {
	deltaIdx, err := rindex.New(delta.NewLabels)
	if err != nil {
		return nil, err
	}
	deltaCol, err := column.NewFromScalars(delta.NewValues)
	if err != nil {
		return nil, err
	}
	deltaSeries, err := frame.NewSeries(base.Name, deltaIdx, deltaCol)
	if err != nil {
		return nil, err
	}
	return frame.ConcatSeries([]*frame.Series{base, deltaSeries})
}
