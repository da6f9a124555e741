// Package groupby implements split-apply-combine over a (keys, values)
// Series pair: an alignment prelude, a budget check that routes
// intermediate storage through pkg/arena or the heap, a dense
// integer-range fast path, and a generic hash-map path with
// first-seen group ordering. It follows the teacher's
// pkg/pool.ArenaPool budget-then-allocate shape (adapted in
// pkg/arena) and its metrics.Collector counter-per-decision idiom.
package groupby

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/metrics"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// AggFunc names one of the closed set of §4.5 aggregate kernels.
type AggFunc string

const (
	AggSum    AggFunc = "sum"
	AggMean   AggFunc = "mean"
	AggCount  AggFunc = "count"
	AggMin    AggFunc = "min"
	AggMax    AggFunc = "max"
	AggFirst  AggFunc = "first"
	AggLast   AggFunc = "last"
	AggStd    AggFunc = "std"
	AggVar    AggFunc = "var"
	AggMedian AggFunc = "median"
)

// Options configures a groupby call. DropNA defaults to true: rows
// whose key is missing are excluded before grouping.
type Options struct {
	DropNA bool
}

// DefaultOptions returns dropna=true, the spec default.
func DefaultOptions() Options { return Options{DropNA: true} }

// denseEligible is the subset of aggregates the dense integer fast
// path accelerates with a running-accumulator array; the remainder
// (std/var/median/first/last) need the full per-group value list the
// generic path retains, so they always take the generic path.
func denseEligible(fn AggFunc) bool {
	switch fn {
	case AggSum, AggMean, AggCount, AggMin, AggMax:
		return true
	default:
		return false
	}
}

// GroupByAgg implements §4.5's unified groupby_agg entry point.
func GroupByAgg(keys, values *frame.Series, fn AggFunc, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	alignedKeys, alignedValues, err := alignPrelude(keys, values)
	if err != nil {
		return nil, err
	}

	if opts.DropNA {
		keptKeys := make([]dtype.Scalar, 0, len(alignedKeys))
		keptValues := make([]dtype.Scalar, 0, len(alignedValues))
		for i, k := range alignedKeys {
			if k.IsMissing() {
				continue
			}
			keptKeys = append(keptKeys, k)
			keptValues = append(keptValues, alignedValues[i])
		}
		alignedKeys, alignedValues = keptKeys, keptValues
	}

	if _, err := p.AdmitCardinality("groupby_agg", int64(len(alignedKeys)), ledger); err != nil {
		return nil, err
	}

	estimatedBytes := estimateArenaBytes(len(alignedKeys))
	useArena := estimatedBytes <= p.ArenaBudgetBytes()
	allocatorLabel := "heap"
	if useArena {
		allocatorLabel = "arena"
	}

	if denseEligible(fn) {
		if lo, hi, ok := int64Range(alignedKeys); ok && hi-lo+1 <= 65_536 {
			metrics.GroupByPathTotal.WithLabelValues("dense", allocatorLabel).Inc()
			return densePath(alignedKeys, alignedValues, fn, lo, hi, useArena, values.Name)
		}
	}

	metrics.GroupByPathTotal.WithLabelValues("generic", allocatorLabel).Inc()
	return genericPath(alignedKeys, alignedValues, fn, values.Name)
}

func aggregate(fn AggFunc, group []dtype.Scalar) dtype.Scalar {
	switch fn {
	case AggSum:
		return dtype.NanSum(group)
	case AggMean:
		return dtype.NanMean(group)
	case AggCount:
		return dtype.NanCount(group)
	case AggMin:
		return dtype.NanMin(group)
	case AggMax:
		return dtype.NanMax(group)
	case AggFirst:
		return firstNonNull(group)
	case AggLast:
		return lastNonNull(group)
	case AggStd:
		return dtype.NanStd(group, 1)
	case AggVar:
		return dtype.NanVar(group, 1)
	case AggMedian:
		return dtype.NanMedian(group)
	default:
		return dtype.NewNull(dtype.KindNull)
	}
}

func firstNonNull(group []dtype.Scalar) dtype.Scalar {
	for _, v := range group {
		if !v.IsMissing() {
			return v
		}
	}
	return dtype.NewNull(dtype.KindNull)
}

func lastNonNull(group []dtype.Scalar) dtype.Scalar {
	for i := len(group) - 1; i >= 0; i-- {
		if !group[i].IsMissing() {
			return group[i]
		}
	}
	return dtype.NewNull(dtype.KindNull)
}

func labelForKey(k dtype.Scalar) (rindex.Label, error) {
	switch k.DType() {
	case dtype.Int64:
		return rindex.Int64Label(k.Int64()), nil
	case dtype.Utf8:
		return rindex.Utf8Label(k.Utf8()), nil
	default:
		return rindex.Label{}, nebulaerrors.Newf(nebulaerrors.DomainGroupBy, "UnsupportedKeyDType",
			"groupby key dtype %s cannot form an index label", k.DType())
	}
}

func buildResultSeries(name string, orderedLabels []rindex.Label, orderedValues []dtype.Scalar) (*frame.Series, error) {
	idx, err := rindex.New(orderedLabels)
	if err != nil {
		return nil, err
	}
	col, err := column.NewFromScalars(orderedValues)
	if err != nil {
		return nil, err
	}
	return frame.NewSeries(name, idx, col)
}

func int64Range(keys []dtype.Scalar) (lo, hi int64, ok bool) {
	first := true
	for _, k := range keys {
		if k.DType() != dtype.Int64 {
			return 0, 0, false
		}
		v := k.Int64()
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if first {
		return 0, 0, false
	}
	return lo, hi, true
}

func estimateArenaBytes(n int) int64 {
	const bytesPerRow = 24 // accumulator + count + ordering slot, generously rounded
	return int64(n) * bytesPerRow
}

// GroupBySum implements §4.5's groupby_sum.
func GroupBySum(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggSum, opts, p, ledger)
}

// GroupByMean implements §4.5's groupby_mean.
func GroupByMean(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggMean, opts, p, ledger)
}

// GroupByCount implements §4.5's groupby_count.
func GroupByCount(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggCount, opts, p, ledger)
}

// GroupByMin implements §4.5's groupby_min.
func GroupByMin(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggMin, opts, p, ledger)
}

// GroupByMax implements §4.5's groupby_max.
func GroupByMax(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggMax, opts, p, ledger)
}

// GroupByFirst implements §4.5's groupby_first.
func GroupByFirst(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggFirst, opts, p, ledger)
}

// GroupByLast implements §4.5's groupby_last.
func GroupByLast(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggLast, opts, p, ledger)
}

// GroupByStd implements §4.5's groupby_std (ddof=1).
func GroupByStd(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggStd, opts, p, ledger)
}

// GroupByVar implements §4.5's groupby_var (ddof=1).
func GroupByVar(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggVar, opts, p, ledger)
}

// GroupByMedian implements §4.5's groupby_median.
func GroupByMedian(keys, values *frame.Series, opts Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	return GroupByAgg(keys, values, AggMedian, opts, p, ledger)
}
