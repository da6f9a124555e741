package groupby

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/joyshmitz/frankenpandas/pkg/arena"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// densePath implements §4.5 step 3: keys are Int64 with a compact
// range, so group accumulators are plain arrays indexed by
// key-minus-lo instead of a hash map. sums/counts are carved from an
// arena.Arena when the budget check allows it; min/max/seen tracking
// stay heap-backed since the arena only exposes typed int64/float64
// views.
func densePath(keys, values []dtype.Scalar, fn AggFunc, lo, hi int64, useArena bool, name string) (*frame.Series, error) {
	rangeSize := int(hi - lo + 1)
	valueDType := firstNonMissingDType(values)

	var a *arena.Arena
	if useArena {
		a = arena.New(memory.NewGoAllocator(), int(estimateArenaBytes(rangeSize)))
		defer a.Release()
	}

	counts := allocInt64(a, useArena, rangeSize)
	touched := make([]bool, rangeSize)
	seenBucket := make([]bool, rangeSize)
	var ordering []int

	// Accumulate in the value's own dtype — an Int64-valued column sums/
	// mins/maxes in int64, exactly like dtype.NanSum/NanMin/NanMax do on
	// the generic path, so the two paths stay bit-equivalent on every
	// input the dense precondition admits (the precondition bounds the
	// *key* range, not value magnitude, so Int64 values here can exceed
	// float64's exact-integer range).
	if valueDType == dtype.Int64 {
		sums := allocInt64(a, useArena, rangeSize)
		mins := make([]int64, rangeSize)
		maxs := make([]int64, rangeSize)

		for i, k := range keys {
			bucket := int(k.Int64() - lo)
			if !seenBucket[bucket] {
				seenBucket[bucket] = true
				ordering = append(ordering, bucket)
			}
			v := values[i]
			if v.IsMissing() {
				continue
			}
			iv := v.Int64()
			if !touched[bucket] {
				mins[bucket] = iv
				maxs[bucket] = iv
				touched[bucket] = true
			} else {
				if iv < mins[bucket] {
					mins[bucket] = iv
				}
				if iv > maxs[bucket] {
					maxs[bucket] = iv
				}
			}
			sums[bucket] += iv
			counts[bucket]++
		}

		labels := make([]rindex.Label, len(ordering))
		resultValues := make([]dtype.Scalar, len(ordering))
		for i, bucket := range ordering {
			labels[i] = rindex.Int64Label(lo + int64(bucket))
			resultValues[i] = denseAggregateInt64(fn, counts[bucket], sums[bucket], mins[bucket], maxs[bucket])
		}
		return buildResultSeries(name, labels, resultValues)
	}

	sums := allocFloat64(a, useArena, rangeSize)
	mins := make([]float64, rangeSize)
	maxs := make([]float64, rangeSize)

	for i, k := range keys {
		bucket := int(k.Int64() - lo)
		if !seenBucket[bucket] {
			seenBucket[bucket] = true
			ordering = append(ordering, bucket)
		}
		v := values[i]
		if v.IsMissing() {
			continue
		}
		fv := asFloat64Value(v)
		if !touched[bucket] {
			mins[bucket] = fv
			maxs[bucket] = fv
			touched[bucket] = true
		} else {
			if fv < mins[bucket] {
				mins[bucket] = fv
			}
			if fv > maxs[bucket] {
				maxs[bucket] = fv
			}
		}
		sums[bucket] += fv
		counts[bucket]++
	}

	labels := make([]rindex.Label, len(ordering))
	resultValues := make([]dtype.Scalar, len(ordering))
	for i, bucket := range ordering {
		labels[i] = rindex.Int64Label(lo + int64(bucket))
		resultValues[i] = denseAggregateFloat64(fn, counts[bucket], sums[bucket], mins[bucket], maxs[bucket])
	}
	return buildResultSeries(name, labels, resultValues)
}

func allocInt64(a *arena.Arena, useArena bool, n int) []int64 {
	if useArena {
		return a.AllocInt64(n)
	}
	return make([]int64, n)
}

func allocFloat64(a *arena.Arena, useArena bool, n int) []float64 {
	if useArena {
		return a.AllocFloat64(n)
	}
	return make([]float64, n)
}

func denseEmptyGroup(fn AggFunc) dtype.Scalar {
	switch fn {
	case AggCount:
		return dtype.NewInt64(0)
	case AggMean:
		return dtype.NewNull(dtype.KindNaN)
	default:
		return dtype.NewNull(dtype.KindNull)
	}
}

func denseAggregateInt64(fn AggFunc, n, sum, min, max int64) dtype.Scalar {
	if n == 0 {
		return denseEmptyGroup(fn)
	}
	switch fn {
	case AggSum:
		return dtype.NewInt64(sum)
	case AggMean:
		return dtype.NewFloat64(float64(sum) / float64(n))
	case AggCount:
		return dtype.NewInt64(n)
	case AggMin:
		return dtype.NewInt64(min)
	case AggMax:
		return dtype.NewInt64(max)
	default:
		return dtype.NewNull(dtype.KindNull)
	}
}

func denseAggregateFloat64(fn AggFunc, n int64, sum, min, max float64) dtype.Scalar {
	if n == 0 {
		return denseEmptyGroup(fn)
	}
	switch fn {
	case AggSum:
		return dtype.NewFloat64(sum)
	case AggMean:
		return dtype.NewFloat64(sum / float64(n))
	case AggCount:
		return dtype.NewInt64(n)
	case AggMin:
		return dtype.NewFloat64(min)
	case AggMax:
		return dtype.NewFloat64(max)
	default:
		return dtype.NewNull(dtype.KindNull)
	}
}

func asFloat64Value(s dtype.Scalar) float64 {
	switch s.DType() {
	case dtype.Float64:
		return s.Float64()
	case dtype.Int64:
		return float64(s.Int64())
	default:
		return 0
	}
}

func firstNonMissingDType(values []dtype.Scalar) dtype.DType {
	for _, v := range values {
		if !v.IsMissing() {
			return v.DType()
		}
	}
	return dtype.Float64
}
