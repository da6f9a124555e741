// Package dtype implements the columnar engine's scalar tagged union,
// dtype tag set, and the coercion/reduction algebra over both. It
// follows the teacher's DType-as-small-enum idiom (see
// NerdMeNot-galleon's dtype.go for the tagged-enum shape this is
// grounded on) rather than nebula's per-kind concrete Column structs —
// the spec's tagged Scalar union needs one flat closed tag set, not a
// dynamic-dispatch interface.
package dtype

import (
	"fmt"
	"math"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// DType is the columnar engine's closed dtype tag set.
type DType uint8

const (
	Null DType = iota
	Bool
	Int64
	Float64
	Utf8
)

func (d DType) String() string {
	switch d {
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case Utf8:
		return "Utf8"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(d))
	}
}

// IsNumeric reports whether the dtype participates in numeric coercion.
func (d DType) IsNumeric() bool {
	return d == Int64 || d == Float64
}

// NullKind distinguishes the three missingness flavors the spec's
// Scalar union tracks under a single Null variant.
type NullKind uint8

const (
	KindNull NullKind = iota
	KindNaN
	KindNaT
)

func (k NullKind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindNaN:
		return "NaN"
	case KindNaT:
		return "NaT"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Scalar is a tagged union over {Null(kind), Bool, Int64, Float64, Utf8}.
// The zero value is Null(KindNull). Scalars are immutable; every field
// is unexported so construction always goes through the New* helpers,
// keeping the "non-null value matches dtype" invariant enforceable in
// one place.
type Scalar struct {
	dtype    DType
	nullKind NullKind
	b        bool
	i        int64
	f        float64
	s        string
}

// NewNull returns a Null scalar of the given kind. dtype is Null for a
// bare missing value; callers that need a typed missing cell (e.g. a
// Float64 column's NaN) should track dtype separately at the Column
// level, since Scalar's dtype tag for Null variants is always Null.
func NewNull(kind NullKind) Scalar {
	return Scalar{dtype: Null, nullKind: kind}
}

// NewBool returns a non-null Bool scalar.
func NewBool(v bool) Scalar { return Scalar{dtype: Bool, b: v} }

// NewInt64 returns a non-null Int64 scalar.
func NewInt64(v int64) Scalar { return Scalar{dtype: Int64, i: v} }

// NewFloat64 returns a Float64 scalar. A NaN payload is treated as a
// missing value carrying NullKind NaN, per is_missing's contract.
func NewFloat64(v float64) Scalar {
	if math.IsNaN(v) {
		return Scalar{dtype: Null, nullKind: KindNaN}
	}
	return Scalar{dtype: Float64, f: v}
}

// NewUtf8 returns a non-null Utf8 scalar.
func NewUtf8(v string) Scalar { return Scalar{dtype: Utf8, s: v} }

// DType returns the scalar's dtype tag. Missing values report Null
// regardless of the logical column dtype they live in.
func (s Scalar) DType() DType { return s.dtype }

// IsMissing reports whether s is a missing value: true for every
// Null(_) variant, per §4.1's is_missing contract.
func (s Scalar) IsMissing() bool { return s.dtype == Null }

// NullKind returns the missingness flavor. Only meaningful when
// IsMissing is true.
func (s Scalar) NullKind() NullKind { return s.nullKind }

func (s Scalar) Bool() bool       { return s.b }
func (s Scalar) Int64() int64     { return s.i }
func (s Scalar) Float64() float64 { return s.f }
func (s Scalar) Utf8() string     { return s.s }

// Equal implements Scalar equality, which is kind-aware on Null: two
// missing values are equal iff their NullKind matches.
func (s Scalar) Equal(other Scalar) bool {
	if s.dtype == Null || other.dtype == Null {
		return s.dtype == Null && other.dtype == Null && s.nullKind == other.nullKind
	}
	if s.dtype != other.dtype {
		return false
	}
	switch s.dtype {
	case Bool:
		return s.b == other.b
	case Int64:
		return s.i == other.i
	case Float64:
		return s.f == other.f
	case Utf8:
		return s.s == other.s
	default:
		return false
	}
}

func (s Scalar) String() string {
	switch s.dtype {
	case Null:
		return "Null(" + s.nullKind.String() + ")"
	case Bool:
		return fmt.Sprintf("%v", s.b)
	case Int64:
		return fmt.Sprintf("%d", s.i)
	case Float64:
		return fmt.Sprintf("%v", s.f)
	case Utf8:
		return s.s
	default:
		return "?"
	}
}

// CommonDType computes the commutative, associative join over two
// dtypes per §3: numeric ∪ numeric → Float64 if either is Float64 else
// Int64; any ∪ Null → the non-null side; anything across
// {Bool, Utf8, numeric} without a common numeric upper bound errors.
func CommonDType(a, b DType) (DType, error) {
	if a == Null {
		return b, nil
	}
	if b == Null {
		return a, nil
	}
	if a == b {
		return a, nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a == Float64 || b == Float64 {
			return Float64, nil
		}
		return Int64, nil
	}
	return Null, nebulaerrors.Newf(nebulaerrors.DomainTypeModel, "IncompatibleDType",
		"no common dtype for %s and %s", a, b)
}

// InferDType folds CommonDType over a sequence of scalars' dtypes,
// per §4.1's "dtype inference over a scalar sequence" contract.
func InferDType(scalars []Scalar) (DType, error) {
	result := Null
	for _, s := range scalars {
		next, err := CommonDType(result, s.DType())
		if err != nil {
			return Null, err
		}
		result = next
	}
	return result, nil
}

// Cast converts s into the target dtype, or returns a distinct
// CastError on failure per §4.1 ("cast failures surface a distinct
// error kind").
func Cast(s Scalar, target DType) (Scalar, error) {
	if s.IsMissing() {
		return s, nil
	}
	if s.dtype == target {
		return s, nil
	}
	switch target {
	case Int64:
		switch s.dtype {
		case Float64:
			return NewInt64(int64(s.f)), nil
		case Bool:
			if s.b {
				return NewInt64(1), nil
			}
			return NewInt64(0), nil
		}
	case Float64:
		switch s.dtype {
		case Int64:
			return NewFloat64(float64(s.i)), nil
		case Bool:
			if s.b {
				return NewFloat64(1), nil
			}
			return NewFloat64(0), nil
		}
	case Utf8:
		return NewUtf8(s.String()), nil
	case Bool:
		switch s.dtype {
		case Int64:
			return NewBool(s.i != 0), nil
		case Float64:
			return NewBool(s.f != 0), nil
		}
	}
	return Scalar{}, nebulaerrors.Newf(nebulaerrors.DomainTypeModel, "CastError",
		"cannot cast %s to %s", s.dtype, target)
}
