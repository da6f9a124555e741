package column

import (
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// Column is the triple (dtype, values, validity) from §3: a
// dtype-homogeneous sequence of Scalars with an explicit validity
// bitmap, constructed once and never mutated afterward — every
// transformation below returns a new Column.
type Column struct {
	dtype    dtype.DType
	values   []dtype.Scalar
	validity *ValidityMask
}

// New constructs a Column directly from a dtype, values, and validity,
// without re-inferring the dtype. Panics are not used; callers that
// need invariant (b)/(c) enforcement should go through NewFromScalars.
func New(dt dtype.DType, values []dtype.Scalar, validity *ValidityMask) (*Column, error) {
	if len(values) != validity.Len() {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "LengthMismatch",
			"values length %d != validity length %d", len(values), validity.Len())
	}
	return &Column{dtype: dt, values: values, validity: validity}, nil
}

// NewFromScalars constructs a Column, inferring dtype via a
// common_dtype fold over the scalar sequence and deriving validity from
// each scalar's IsMissing.
func NewFromScalars(scalars []dtype.Scalar) (*Column, error) {
	dt, err := dtype.InferDType(scalars)
	if err != nil {
		return nil, err
	}
	valid := make([]bool, len(scalars))
	for i, s := range scalars {
		valid[i] = !s.IsMissing()
	}
	return &Column{
		dtype:    dt,
		values:   append([]dtype.Scalar(nil), scalars...),
		validity: NewValidityMaskFromBools(valid),
	}, nil
}

// DType returns the column's dtype.
func (c *Column) DType() dtype.DType { return c.dtype }

// Len returns the column's length.
func (c *Column) Len() int { return len(c.values) }

// At returns the scalar at position i.
func (c *Column) At(i int) dtype.Scalar { return c.values[i] }

// Validity returns the column's validity mask.
func (c *Column) Validity() *ValidityMask { return c.validity }

// Values returns the column's underlying scalar slice. Callers must
// not mutate it.
func (c *Column) Values() []dtype.Scalar { return c.values }

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

type CompareOp int

const (
	OpGt CompareOp = iota
	OpLt
	OpEq
	OpNe
	OpGe
	OpLe
)

// BinaryNumeric implements §4.2's binary_numeric: length equality is
// required, output dtype is common_dtype(l,r) with Div always
// promoting to Float64, missingness on either side propagates, and
// integer arithmetic wraps.
func BinaryNumeric(l, r *Column, op BinaryOp) (*Column, error) {
	if l.Len() != r.Len() {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "LengthMismatch",
			"binary_numeric length mismatch: %d != %d", l.Len(), r.Len())
	}
	outDType, err := dtype.CommonDType(l.dtype, r.dtype)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainColumn, "DTypeIncompatible",
			"binary_numeric dtype mismatch")
	}
	if op == OpDiv {
		outDType = dtype.Float64
	}
	if outDType != dtype.Int64 && outDType != dtype.Float64 {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "DTypeIncompatible",
			"binary_numeric requires a numeric output dtype, got %s", outDType)
	}

	if fast, ok := tryFastPathNumeric(l, r, op, outDType); ok {
		return fast, nil
	}

	n := l.Len()
	out := make([]dtype.Scalar, n)
	for i := 0; i < n; i++ {
		lv, rv := l.values[i], r.values[i]
		if lv.IsMissing() || rv.IsMissing() {
			out[i] = dtype.NewNull(dtype.KindNull)
			continue
		}
		out[i] = applyBinaryScalar(lv, rv, op, outDType)
	}
	return mustNew(outDType, out)
}

func applyBinaryScalar(lv, rv dtype.Scalar, op BinaryOp, outDType dtype.DType) dtype.Scalar {
	if outDType == dtype.Int64 {
		a, b := castInt64(lv), castInt64(rv)
		switch op {
		case OpAdd:
			return dtype.NewInt64(a + b)
		case OpSub:
			return dtype.NewInt64(a - b)
		case OpMul:
			return dtype.NewInt64(a * b)
		}
	}
	a, b := castFloat64(lv), castFloat64(rv)
	switch op {
	case OpAdd:
		return dtype.NewFloat64(a + b)
	case OpSub:
		return dtype.NewFloat64(a - b)
	case OpMul:
		return dtype.NewFloat64(a * b)
	case OpDiv:
		return dtype.NewFloat64(a / b)
	}
	return dtype.NewNull(dtype.KindNull)
}

func castInt64(s dtype.Scalar) int64 {
	if s.DType() == dtype.Float64 {
		return int64(s.Float64())
	}
	return s.Int64()
}

func castFloat64(s dtype.Scalar) float64 {
	if s.DType() == dtype.Int64 {
		return float64(s.Int64())
	}
	return s.Float64()
}

// BinaryComparison implements §4.2's binary_comparison: missing
// propagates (missing-vs-missing returns false unless both sides share
// the same NullKind for Eq/Ne), and any NaN-involved float compare
// returns false.
func BinaryComparison(l, r *Column, op CompareOp) (*Column, error) {
	if l.Len() != r.Len() {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "LengthMismatch",
			"binary_comparison length mismatch: %d != %d", l.Len(), r.Len())
	}
	n := l.Len()
	out := make([]dtype.Scalar, n)
	for i := 0; i < n; i++ {
		out[i] = compareScalarPair(l.values[i], r.values[i], op)
	}
	return mustNew(dtype.Bool, out)
}

// CompareScalar implements §4.2's compare_scalar with the same missing
// rules as BinaryComparison.
func CompareScalar(l *Column, scalar dtype.Scalar, op CompareOp) (*Column, error) {
	n := l.Len()
	out := make([]dtype.Scalar, n)
	for i := 0; i < n; i++ {
		out[i] = compareScalarPair(l.values[i], scalar, op)
	}
	return mustNew(dtype.Bool, out)
}

func compareScalarPair(lv, rv dtype.Scalar, op CompareOp) dtype.Scalar {
	if lv.IsMissing() || rv.IsMissing() {
		if (op == OpEq || op == OpNe) && lv.IsMissing() && rv.IsMissing() {
			eq := lv.NullKind() == rv.NullKind()
			if op == OpNe {
				eq = !eq
			}
			return dtype.NewBool(eq)
		}
		return dtype.NewBool(false)
	}
	return dtype.NewBool(evalCompare(lv, rv, op))
}

func evalCompare(lv, rv dtype.Scalar, op CompareOp) bool {
	switch op {
	case OpGt:
		return lessThan(rv, lv)
	case OpLt:
		return lessThan(lv, rv)
	case OpGe:
		return !lessThan(lv, rv)
	case OpLe:
		return !lessThan(rv, lv)
	case OpEq:
		return scalarEqual(lv, rv)
	case OpNe:
		return !scalarEqual(lv, rv)
	}
	return false
}

func lessThan(a, b dtype.Scalar) bool {
	switch {
	case a.DType() == dtype.Int64 && b.DType() == dtype.Int64:
		return a.Int64() < b.Int64()
	case a.DType() == dtype.Utf8 && b.DType() == dtype.Utf8:
		return a.Utf8() < b.Utf8()
	case a.DType() == dtype.Bool && b.DType() == dtype.Bool:
		return !a.Bool() && b.Bool()
	default:
		return castFloat64(a) < castFloat64(b)
	}
}

func scalarEqual(a, b dtype.Scalar) bool {
	switch {
	case a.DType() == dtype.Utf8 || b.DType() == dtype.Utf8:
		return a.DType() == b.DType() && a.Utf8() == b.Utf8()
	case a.DType() == dtype.Bool || b.DType() == dtype.Bool:
		return a.DType() == b.DType() && a.Bool() == b.Bool()
	default:
		return castFloat64(a) == castFloat64(b)
	}
}

// LogicalOp names a two-valued (non-short-circuiting) boolean
// combinator for BinaryLogical.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

// BinaryLogical implements the Logical(op, l, r) expr node's kernel:
// elementwise AND/OR over two Bool columns, propagating missingness
// like BinaryComparison does.
func BinaryLogical(l, r *Column, op LogicalOp) (*Column, error) {
	if l.Len() != r.Len() {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "LengthMismatch",
			"binary_logical length mismatch: %d != %d", l.Len(), r.Len())
	}
	if l.dtype != dtype.Bool || r.dtype != dtype.Bool {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "DTypeIncompatible",
			"binary_logical requires Bool operands, got %s and %s", l.dtype, r.dtype)
	}
	n := l.Len()
	out := make([]dtype.Scalar, n)
	for i := 0; i < n; i++ {
		lv, rv := l.values[i], r.values[i]
		if lv.IsMissing() || rv.IsMissing() {
			out[i] = dtype.NewNull(dtype.KindNull)
			continue
		}
		switch op {
		case OpAnd:
			out[i] = dtype.NewBool(lv.Bool() && rv.Bool())
		case OpOr:
			out[i] = dtype.NewBool(lv.Bool() || rv.Bool())
		}
	}
	return mustNew(dtype.Bool, out)
}

// Not implements the Not(x) expr node's kernel: elementwise boolean
// negation, missing stays missing.
func Not(c *Column) (*Column, error) {
	if c.dtype != dtype.Bool {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "DTypeIncompatible",
			"not requires a Bool operand, got %s", c.dtype)
	}
	out := make([]dtype.Scalar, c.Len())
	for i, v := range c.values {
		if v.IsMissing() {
			out[i] = dtype.NewNull(dtype.KindNull)
			continue
		}
		out[i] = dtype.NewBool(!v.Bool())
	}
	return mustNew(dtype.Bool, out)
}

// FilterByMask implements §4.2's filter_by_mask: keeps positions where
// mask is true-and-valid.
func FilterByMask(c *Column, mask *Column) (*Column, error) {
	if mask.Len() != c.Len() {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "LengthMismatch",
			"filter_by_mask length mismatch: %d != %d", mask.Len(), c.Len())
	}
	if mask.DType() != dtype.Bool {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "InvalidMaskDType",
			"filter_by_mask requires a Bool mask, got %s", mask.DType())
	}
	var out []dtype.Scalar
	for i := 0; i < c.Len(); i++ {
		m := mask.values[i]
		if !m.IsMissing() && m.Bool() {
			out = append(out, c.values[i])
		}
	}
	return mustNew(c.dtype, out)
}

// FillNA implements §4.2's fillna: fill must be castable into the
// column's dtype.
func FillNA(c *Column, fill dtype.Scalar) (*Column, error) {
	castFill, err := dtype.Cast(fill, c.dtype)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainColumn, "FillNACastError",
			"fillna value not castable into column dtype")
	}
	out := make([]dtype.Scalar, c.Len())
	for i, v := range c.values {
		if v.IsMissing() {
			out[i] = castFill
		} else {
			out[i] = v
		}
	}
	return mustNew(c.dtype, out)
}

// DropNA implements §4.2's dropna: drops missing rows.
func DropNA(c *Column) (*Column, error) {
	var out []dtype.Scalar
	for _, v := range c.values {
		if !v.IsMissing() {
			out = append(out, v)
		}
	}
	return mustNew(c.dtype, out)
}

// ReindexByPositions implements §4.2's reindex_by_positions: a nil
// position produces a missing cell.
func ReindexByPositions(c *Column, positions []*int) (*Column, error) {
	out := make([]dtype.Scalar, len(positions))
	for i, pos := range positions {
		if pos == nil {
			out[i] = dtype.NewNull(dtype.KindNull)
			continue
		}
		if *pos < 0 || *pos >= c.Len() {
			return nil, nebulaerrors.Newf(nebulaerrors.DomainColumn, "PositionOutOfBounds",
				"reindex_by_positions position %d out of bounds for length %d", *pos, c.Len())
		}
		out[i] = c.values[*pos]
	}
	return mustNew(c.dtype, out)
}

func mustNew(dt dtype.DType, values []dtype.Scalar) (*Column, error) {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !v.IsMissing()
	}
	return New(dt, values, NewValidityMaskFromBools(valid))
}
