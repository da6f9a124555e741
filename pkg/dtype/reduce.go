package dtype

import (
	"math"
	"sort"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// nullFor returns the all-missing reduction result for dtype d: NaN for
// Float64 reductions, plain Null otherwise, per §4.1.
func nullFor(d DType) Scalar {
	if d == Float64 {
		return NewNull(KindNaN)
	}
	return NewNull(KindNull)
}

func nonMissing(scalars []Scalar) []Scalar {
	out := make([]Scalar, 0, len(scalars))
	for _, s := range scalars {
		if !s.IsMissing() {
			out = append(out, s)
		}
	}
	return out
}

func asFloat64(s Scalar) float64 {
	switch s.DType() {
	case Float64:
		return s.Float64()
	case Int64:
		return float64(s.Int64())
	default:
		return 0
	}
}

// NanSum returns the sum of non-missing values, or Null if all values
// are missing.
func NanSum(scalars []Scalar) Scalar {
	vals := nonMissing(scalars)
	if len(vals) == 0 {
		return nullFor(commonInputDType(scalars))
	}
	dt := commonInputDType(scalars)
	if dt == Int64 {
		var total int64
		for _, v := range vals {
			total += v.Int64()
		}
		return NewInt64(total)
	}
	var total float64
	for _, v := range vals {
		total += asFloat64(v)
	}
	return NewFloat64(total)
}

// NanMean returns the arithmetic mean of non-missing values, always
// promoted to Float64 per §4.1, or Null if all values are missing.
func NanMean(scalars []Scalar) Scalar {
	vals := nonMissing(scalars)
	if len(vals) == 0 {
		return nullFor(Float64)
	}
	var total float64
	for _, v := range vals {
		total += asFloat64(v)
	}
	return NewFloat64(total / float64(len(vals)))
}

// NanCount returns the number of non-missing values as an Int64 scalar.
// Unlike the other reductions, an all-missing input yields 0, not Null.
func NanCount(scalars []Scalar) Scalar {
	return NewInt64(int64(len(nonMissing(scalars))))
}

// NanMin returns the minimum non-missing value, or Null if all values
// are missing.
func NanMin(scalars []Scalar) Scalar {
	vals := nonMissing(scalars)
	if len(vals) == 0 {
		return nullFor(commonInputDType(scalars))
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if lessScalar(v, min) {
			min = v
		}
	}
	return min
}

// NanMax returns the maximum non-missing value, or Null if all values
// are missing.
func NanMax(scalars []Scalar) Scalar {
	vals := nonMissing(scalars)
	if len(vals) == 0 {
		return nullFor(commonInputDType(scalars))
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if lessScalar(max, v) {
			max = v
		}
	}
	return max
}

// NanMedian returns the median of non-missing values, promoted to
// Float64, or Null if all values are missing.
func NanMedian(scalars []Scalar) Scalar {
	vals := nonMissing(scalars)
	if len(vals) == 0 {
		return nullFor(Float64)
	}
	fs := make([]float64, len(vals))
	for i, v := range vals {
		fs[i] = asFloat64(v)
	}
	sort.Float64s(fs)
	n := len(fs)
	if n%2 == 1 {
		return NewFloat64(fs[n/2])
	}
	return NewFloat64((fs[n/2-1] + fs[n/2]) / 2)
}

// NanVar returns the sample variance with ddof degrees of freedom
// subtracted from n, or Null if n-ddof <= 0.
func NanVar(scalars []Scalar, ddof int) Scalar {
	vals := nonMissing(scalars)
	n := len(vals)
	if n-ddof <= 0 {
		return nullFor(Float64)
	}
	mean := asFloat64(NanMean(scalars))
	var sumSq float64
	for _, v := range vals {
		d := asFloat64(v) - mean
		sumSq += d * d
	}
	return NewFloat64(sumSq / float64(n-ddof))
}

// NanStd returns the sample standard deviation with ddof degrees of
// freedom, or Null under the same condition as NanVar.
func NanStd(scalars []Scalar, ddof int) Scalar {
	v := NanVar(scalars, ddof)
	if v.IsMissing() {
		return v
	}
	return NewFloat64(math.Sqrt(v.Float64()))
}

func lessScalar(a, b Scalar) bool {
	switch a.DType() {
	case Int64:
		return a.Int64() < b.Int64()
	case Float64:
		return a.Float64() < b.Float64()
	case Utf8:
		return a.Utf8() < b.Utf8()
	case Bool:
		return !a.Bool() && b.Bool()
	default:
		return false
	}
}

func commonInputDType(scalars []Scalar) DType {
	result := Null
	for _, s := range scalars {
		if s.IsMissing() {
			continue
		}
		next, err := CommonDType(result, s.DType())
		if err != nil {
			return s.DType()
		}
		result = next
	}
	return result
}

// FillNA replaces every missing value in scalars with fill, which must
// be castable into the sequence's inferred dtype.
func FillNA(scalars []Scalar, fill Scalar) ([]Scalar, error) {
	dt, err := InferDType(scalars)
	if err != nil {
		return nil, err
	}
	castFill, err := Cast(fill, dt)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainTypeModel, "FillNACastError",
			"fill value not castable into inferred dtype")
	}
	out := make([]Scalar, len(scalars))
	for i, s := range scalars {
		if s.IsMissing() {
			out[i] = castFill
		} else {
			out[i] = s
		}
	}
	return out, nil
}

// DropNA returns scalars with every missing value removed.
func DropNA(scalars []Scalar) []Scalar {
	return nonMissing(scalars)
}
