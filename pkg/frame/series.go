// Package frame implements Series and DataFrame, the named-column
// containers under an Index. It follows the teacher's
// pkg/columnar/store.go ColumnStore shape (a name-to-Column map with
// schema bookkeeping) adapted to an immutable, insertion-ordered
// column map with policy-gated arithmetic instead of ColumnStore's
// mutable Append-driven store.
package frame

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// Series is the (name, Index, Column) triple from §3. Index length
// must equal Column length.
type Series struct {
	Name   string
	Index  *rindex.Index
	Column *column.Column
}

// NewSeries constructs a Series, validating the length invariant.
func NewSeries(name string, idx *rindex.Index, col *column.Column) (*Series, error) {
	if idx.Len() != col.Len() {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainFrame, "LengthMismatch",
			"series %q: index length %d != column length %d", name, idx.Len(), col.Len())
	}
	return &Series{Name: name, Index: idx, Column: col}, nil
}

// Len returns the series length.
func (s *Series) Len() int { return s.Column.Len() }

// BinaryOp mirrors column.BinaryOp for the Series-level arithmetic
// surface.
type BinaryOp = column.BinaryOp

const (
	OpAdd = column.OpAdd
	OpSub = column.OpSub
	OpMul = column.OpMul
	OpDiv = column.OpDiv
)

// alignPair implements the shared prelude every pairwise Series kernel
// (Arith, Compare, Logical) needs: reject duplicate indexes in Strict
// mode, align via align_union, admit the union cardinality, and
// reindex both columns onto it.
func alignPair(left, right *Series, subject string, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*column.Column, *column.Column, *rindex.Index, error) {
	if p.Mode() == config.ModeStrict && (left.Index.HasDuplicates() || right.Index.HasDuplicates()) {
		return nil, nil, nil, nebulaerrors.Newf(nebulaerrors.DomainFrame, "DuplicateIndexUnsupported",
			"strict mode rejects %s over a duplicate-labeled index", subject)
	}

	plan := rindex.AlignUnion(left.Index, right.Index)
	if err := rindex.ValidateAlignmentPlan(plan, left.Len(), right.Len()); err != nil {
		return nil, nil, nil, err
	}

	if _, err := p.AdmitCardinality(subject, int64(len(plan.UnionLabels)), ledger); err != nil {
		return nil, nil, nil, err
	}

	leftReindexed, err := column.ReindexByPositions(left.Column, plan.LeftPositions)
	if err != nil {
		return nil, nil, nil, err
	}
	rightReindexed, err := column.ReindexByPositions(right.Column, plan.RightPositions)
	if err != nil {
		return nil, nil, nil, err
	}

	idx, err := rindex.New(plan.UnionLabels)
	if err != nil {
		return nil, nil, nil, err
	}
	return leftReindexed, rightReindexed, idx, nil
}

func pairName(left, right *Series) string {
	if left.Name != right.Name {
		return ""
	}
	return left.Name
}

// Arith implements §4.4's policy-gated Series arithmetic: rejects
// duplicate indexes in Strict mode before any computation, aligns via
// align_union, consults RuntimePolicy for cardinality admission, then
// executes the Column kernel.
func Arith(left, right *Series, op BinaryOp, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*Series, error) {
	leftReindexed, rightReindexed, idx, err := alignPair(left, right, "series_arith", p, ledger)
	if err != nil {
		return nil, err
	}
	resultCol, err := column.BinaryNumeric(leftReindexed, rightReindexed, op)
	if err != nil {
		return nil, err
	}
	return &Series{Name: pairName(left, right), Index: idx, Column: resultCol}, nil
}

// CompareOp mirrors column.CompareOp for the Series-level comparison
// surface.
type CompareOp = column.CompareOp

const (
	OpGt = column.OpGt
	OpLt = column.OpLt
	OpEq = column.OpEq
	OpNe = column.OpNe
	OpGe = column.OpGe
	OpLe = column.OpLe
)

// Compare implements the Expr Compare(op, l, r) node: same align_union
// prelude as Arith, then the Column boolean-comparison kernel.
func Compare(left, right *Series, op CompareOp, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*Series, error) {
	leftReindexed, rightReindexed, idx, err := alignPair(left, right, "series_compare", p, ledger)
	if err != nil {
		return nil, err
	}
	resultCol, err := column.BinaryComparison(leftReindexed, rightReindexed, op)
	if err != nil {
		return nil, err
	}
	return &Series{Name: pairName(left, right), Index: idx, Column: resultCol}, nil
}

// LogicalOp mirrors column.LogicalOp for the Series-level logical
// surface.
type LogicalOp = column.LogicalOp

const (
	OpAnd = column.OpAnd
	OpOr  = column.OpOr
)

// Logical implements the Expr Logical(op, l, r) node: same align_union
// prelude, then the Column boolean-logical kernel.
func Logical(left, right *Series, op LogicalOp, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*Series, error) {
	leftReindexed, rightReindexed, idx, err := alignPair(left, right, "series_logical", p, ledger)
	if err != nil {
		return nil, err
	}
	resultCol, err := column.BinaryLogical(leftReindexed, rightReindexed, op)
	if err != nil {
		return nil, err
	}
	return &Series{Name: pairName(left, right), Index: idx, Column: resultCol}, nil
}

// Not implements the Expr Not(x) node: a unary Column kernel, no
// alignment needed.
func Not(s *Series) (*Series, error) {
	col, err := column.Not(s.Column)
	if err != nil {
		return nil, err
	}
	return &Series{Name: s.Name, Index: s.Index, Column: col}, nil
}
