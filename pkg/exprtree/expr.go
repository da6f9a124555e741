// Package exprtree implements §4.8's ExprPlanner: an expression DAG
// over Series with two leaf kinds (SeriesRef, Literal) and four
// internal node kinds (Arith, Compare, Logical, Not), full recursive
// evaluation through Frame/Column kernels, and a linear incremental
// delta path. It follows the leaf/internal-node DAG shape of
// other_examples/galleon's Expr interface (ColExpr/LitExpr leaves,
// BinaryOpExpr internal nodes, recursive String()/Clone()/columns()
// dispatch), trimmed to the closed node set §4.8 names and without
// galleon's aggregation/window/struct/list expression families (out of
// scope here).
package exprtree

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// Expr is a node in the expression DAG. It is a closed interface:
// SeriesRef and Literal are leaves; Arith, Compare, Logical and Not
// are the only internal node kinds.
type Expr interface {
	isExpr()
}

// SeriesRef names a Series to be resolved from an EvalContext.
type SeriesRef struct {
	Name string
}

func (SeriesRef) isExpr() {}

// Literal holds a scalar to be broadcast against whichever sibling
// subexpression supplies an index anchor.
type Literal struct {
	Value dtype.Scalar
}

func (Literal) isExpr() {}

// ArithNode is the Arith(op, l, r) internal node, evaluated via
// frame.Arith.
type ArithNode struct {
	Op          frame.BinaryOp
	Left, Right Expr
}

func (ArithNode) isExpr() {}

// CompareNode is the Compare(op, l, r) internal node, evaluated via
// frame.Compare.
type CompareNode struct {
	Op          frame.CompareOp
	Left, Right Expr
}

func (CompareNode) isExpr() {}

// LogicalNode is the Logical(op, l, r) internal node, evaluated via
// frame.Logical.
type LogicalNode struct {
	Op          frame.LogicalOp
	Left, Right Expr
}

func (LogicalNode) isExpr() {}

// NotNode is the Not(x) internal node, evaluated via frame.Not.
type NotNode struct {
	X Expr
}

func (NotNode) isExpr() {}

// EvalContext maps SeriesRef names to Series, per §4.8.
type EvalContext struct {
	Series map[string]*frame.Series
}

// NewEvalContext builds an EvalContext from a name->Series map.
func NewEvalContext(series map[string]*frame.Series) *EvalContext {
	return &EvalContext{Series: series}
}

// With returns a copy of ctx with name rebound to s, leaving ctx itself
// unmodified.
func (ctx *EvalContext) With(name string, s *frame.Series) *EvalContext {
	next := make(map[string]*frame.Series, len(ctx.Series)+1)
	for k, v := range ctx.Series {
		next[k] = v
	}
	next[name] = s
	return &EvalContext{Series: next}
}

func isLiteral(e Expr) bool {
	_, ok := e.(Literal)
	return ok
}

// Eval implements §4.8's full-eval: recursively resolve SeriesRef
// against ctx, evaluate Arith/Compare/Logical/Not through the matching
// Frame/Column kernel, and broadcast Literal leaves against whichever
// sibling subexpression resolves to a concrete Series. A Literal with
// no resolvable sibling anchor anywhere in the tree is an
// UnanchoredLiteral error; a SeriesRef naming a series absent from ctx
// is an UnknownSeries error.
func Eval(expr Expr, ctx *EvalContext, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return evalAnchored(expr, ctx, nil, p, ledger)
}

func evalAnchored(expr Expr, ctx *EvalContext, anchor *rindex.Index, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	switch e := expr.(type) {
	case SeriesRef:
		s, ok := ctx.Series[e.Name]
		if !ok {
			return nil, nebulaerrors.Newf(nebulaerrors.DomainExpr, "UnknownSeries",
				"series %q is not present in the eval context", e.Name)
		}
		return s, nil

	case Literal:
		if anchor == nil {
			return nil, nebulaerrors.New(nebulaerrors.DomainExpr, "UnanchoredLiteral",
				"literal has no series to broadcast against")
		}
		return broadcastLiteral(e.Value, anchor)

	case ArithNode:
		left, right, err := evalOperandPair(e.Left, e.Right, ctx, anchor, p, ledger)
		if err != nil {
			return nil, err
		}
		return frame.Arith(left, right, e.Op, p, ledger)

	case CompareNode:
		left, right, err := evalOperandPair(e.Left, e.Right, ctx, anchor, p, ledger)
		if err != nil {
			return nil, err
		}
		return frame.Compare(left, right, e.Op, p, ledger)

	case LogicalNode:
		left, right, err := evalOperandPair(e.Left, e.Right, ctx, anchor, p, ledger)
		if err != nil {
			return nil, err
		}
		return frame.Logical(left, right, e.Op, p, ledger)

	case NotNode:
		operand, err := evalAnchored(e.X, ctx, anchor, p, ledger)
		if err != nil {
			return nil, err
		}
		return frame.Not(operand)

	default:
		return nil, nebulaerrors.Newf(nebulaerrors.DomainExpr, "UnknownExprNode", "unrecognized expr node %T", expr)
	}
}

// evalOperandPair evaluates a binary node's two children, resolving
// the non-literal side first (if any) so its Index can anchor a
// Literal sibling's broadcast.
func evalOperandPair(leftExpr, rightExpr Expr, ctx *EvalContext, anchor *rindex.Index, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, *frame.Series, error) {
	if isLiteral(leftExpr) && isLiteral(rightExpr) {
		return nil, nil, nebulaerrors.New(nebulaerrors.DomainExpr, "UnanchoredLiteral",
			"both operands are literals; no series anchor is resolvable")
	}
	if !isLiteral(leftExpr) {
		left, err := evalAnchored(leftExpr, ctx, anchor, p, ledger)
		if err != nil {
			return nil, nil, err
		}
		right, err := evalAnchored(rightExpr, ctx, left.Index, p, ledger)
		if err != nil {
			return nil, nil, err
		}
		return left, right, nil
	}
	right, err := evalAnchored(rightExpr, ctx, anchor, p, ledger)
	if err != nil {
		return nil, nil, err
	}
	left, err := evalAnchored(leftExpr, ctx, right.Index, p, ledger)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func broadcastLiteral(value dtype.Scalar, anchor *rindex.Index) (*frame.Series, error) {
	values := make([]dtype.Scalar, anchor.Len())
	for i := range values {
		values[i] = value
	}
	col, err := column.NewFromScalars(values)
	if err != nil {
		return nil, err
	}
	return frame.NewSeries("", anchor, col)
}
