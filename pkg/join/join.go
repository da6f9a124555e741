// Package join implements §4.6's two-phase hash join over Series and
// DataFrames: a build phase that hashes the right index's labels into
// position buckets, and a probe phase that walks the left index once
// per join type, emitting left-position/right-position pairs. It
// follows the build/probe shape of other_examples/galleon's Go-fallback
// join path (buildHashIndex / performXJoinGo / buildJoinResult),
// adapted from galleon's maphash-keyed string/numeric dispatch to a
// single xxhash-keyed rindex.Label bucket map.
package join

import (
	"encoding/binary"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cespare/xxhash/v2"

	"github.com/joyshmitz/frankenpandas/pkg/arena"
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/metrics"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// Type names one of the four §4.6 join kinds.
type Type string

const (
	Inner Type = "inner"
	Left  Type = "left"
	Right Type = "right"
	Outer Type = "outer"
)

// Plan is the output of the probe phase: for each emitted output row,
// the contributing left/right position, or -1 when that side has no
// match (a Left/Right/Outer row with an absent counterpart). Labels
// holds the output row's label: the left label when the row has a
// left side, otherwise the right-only label (Outer's unmatched right
// rows).
type Plan struct {
	Labels         []rindex.Label
	LeftPositions  []int64
	RightPositions []int64
}

// labelHash hashes a kind-tagged byte encoding of l via xxhash. Hashing
// is a performance layer only: buildIndex buckets collide on hash and
// the probe side always confirms with Label.Equal before accepting a
// match.
func labelHash(l rindex.Label) uint64 {
	var buf [9]byte
	buf[0] = byte(l.Kind())
	if l.Kind() == rindex.LabelInt64 {
		binary.LittleEndian.PutUint64(buf[1:], uint64(l.Int64()))
		return xxhash.Sum64(buf[:])
	}
	h := xxhash.New()
	h.Write(buf[:1])
	h.WriteString(l.Utf8())
	return h.Sum64()
}

// buildIndex implements §4.6 step 1: a hash map from the right index's
// labels to every position holding that label, in right-index order.
func buildIndex(idx *rindex.Index) map[uint64][]int {
	buckets := make(map[uint64][]int, idx.Len())
	for i := 0; i < idx.Len(); i++ {
		h := labelHash(idx.At(i))
		buckets[h] = append(buckets[h], i)
	}
	return buckets
}

// matches returns the right-index positions whose label equals probe,
// filtering out hash collisions with an exact Label.Equal check.
func matches(buckets map[uint64][]int, rightIdx *rindex.Index, probe rindex.Label) []int {
	candidates := buckets[labelHash(probe)]
	if len(candidates) == 0 {
		return nil
	}
	out := make([]int, 0, len(candidates))
	for _, pos := range candidates {
		if rightIdx.At(pos).Equal(probe) {
			out = append(out, pos)
		}
	}
	return out
}

// estimateOutputRows estimates the join's output length without
// materializing it, for the cardinality admission check: the left
// length, plus the right length for Right and Outer. It is not an upper
// bound: duplicate keys expand into a cross product that can exceed it.
func estimateOutputRows(left, right *rindex.Index, how Type) int64 {
	n := int64(left.Len())
	if how == Outer || how == Right {
		n += int64(right.Len())
	}
	return n
}

// Indexes implements the §4.6 algorithm over a pair of Indexes
// directly: build once on the right, probe per join type, and return
// the resulting Plan. DataFrame/Series joins (Merge, SeriesJoin) build
// on top of this.
func Indexes(left, right *rindex.Index, how Type, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*Plan, error) {
	estimated := estimateOutputRows(left, right, how)
	if _, err := p.AdmitCardinality("join", estimated, ledger); err != nil {
		return nil, err
	}

	switch how {
	case Inner:
		return probeInner(left, right)
	case Left:
		return probeLeft(left, right)
	case Right:
		return probeRight(left, right)
	case Outer:
		return probeOuter(left, right)
	default:
		return nil, nebulaerrors.Newf(nebulaerrors.DomainJoin, "UnknownJoinType", "unknown join type %q", how)
	}
}

func probeInner(left, right *rindex.Index) (*Plan, error) {
	buckets := buildIndex(right)
	plan := &Plan{}
	for i := 0; i < left.Len(); i++ {
		label := left.At(i)
		for _, j := range matches(buckets, right, label) {
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, int64(i))
			plan.RightPositions = append(plan.RightPositions, int64(j))
		}
	}
	metricsInc(Inner, len(plan.Labels))
	return plan, nil
}

func probeLeft(left, right *rindex.Index) (*Plan, error) {
	buckets := buildIndex(right)
	plan := &Plan{}
	for i := 0; i < left.Len(); i++ {
		label := left.At(i)
		ms := matches(buckets, right, label)
		if len(ms) == 0 {
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, int64(i))
			plan.RightPositions = append(plan.RightPositions, -1)
			continue
		}
		for _, j := range ms {
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, int64(i))
			plan.RightPositions = append(plan.RightPositions, int64(j))
		}
	}
	metricsInc(Left, len(plan.Labels))
	return plan, nil
}

// probeRight is probeLeft with the sides swapped for the build phase
// and the emitted positions swapped back, per §4.6's "Right: symmetric".
func probeRight(left, right *rindex.Index) (*Plan, error) {
	buckets := buildIndex(left)
	plan := &Plan{}
	for j := 0; j < right.Len(); j++ {
		label := right.At(j)
		ms := matches(buckets, left, label)
		if len(ms) == 0 {
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, -1)
			plan.RightPositions = append(plan.RightPositions, int64(j))
			continue
		}
		for _, i := range ms {
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, int64(i))
			plan.RightPositions = append(plan.RightPositions, int64(j))
		}
	}
	metricsInc(Right, len(plan.Labels))
	return plan, nil
}

// probeOuter implements §4.6's "Outer: Inner/Left traversal first, then
// append right-only labels": a Left traversal establishes
// INV-JOIN-LEFT-ORDER for every left row, then any right position never
// touched by a match is appended in right-index order.
func probeOuter(left, right *rindex.Index) (*Plan, error) {
	buckets := buildIndex(right)
	plan := &Plan{}
	touched := make([]bool, right.Len())

	for i := 0; i < left.Len(); i++ {
		label := left.At(i)
		ms := matches(buckets, right, label)
		if len(ms) == 0 {
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, int64(i))
			plan.RightPositions = append(plan.RightPositions, -1)
			continue
		}
		for _, j := range ms {
			touched[j] = true
			plan.Labels = append(plan.Labels, label)
			plan.LeftPositions = append(plan.LeftPositions, int64(i))
			plan.RightPositions = append(plan.RightPositions, int64(j))
		}
	}
	for j := 0; j < right.Len(); j++ {
		if touched[j] {
			continue
		}
		plan.Labels = append(plan.Labels, right.At(j))
		plan.LeftPositions = append(plan.LeftPositions, -1)
		plan.RightPositions = append(plan.RightPositions, int64(j))
	}
	metricsInc(Outer, len(plan.Labels))
	return plan, nil
}

func metricsInc(how Type, rows int) {
	metrics.JoinRowsEmitted.WithLabelValues(string(how)).Add(float64(rows))
}

// positionsToPtrs converts a Plan's -1-sentinel int64 position slice
// into column.ReindexByPositions' []*int representation, carving the
// backing storage from arena when useArena allows it (the positions
// are only needed for the single reindex pass below, so an arena
// lifetime scoped to this call is enough).
func positionsToPtrs(positions []int64, useArena bool) []*int {
	out := make([]*int, len(positions))
	if useArena {
		a := arena.New(memory.NewGoAllocator(), len(positions)*8)
		defer a.Release()
		scratch := a.AllocInt64(len(positions))
		copy(scratch, positions)
		positions = scratch
	}
	for i, p := range positions {
		if p < 0 {
			continue
		}
		v := int(p)
		out[i] = &v
	}
	return out
}

// SeriesJoin implements §4.6's join_series: aligns left and right Series
// via the hash-join Plan instead of align_union's position-identical
// assumption, so duplicate keys expand into their full cross product.
func SeriesJoin(left, right *frame.Series, how Type, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, *frame.Series, error) {
	plan, err := Indexes(left.Index, right.Index, how, p, ledger)
	if err != nil {
		return nil, nil, err
	}

	estimatedBytes := int64(len(plan.Labels)) * 16
	useArena := estimatedBytes <= p.ArenaBudgetBytes()

	leftCol, err := column.ReindexByPositions(left.Column, positionsToPtrs(plan.LeftPositions, useArena))
	if err != nil {
		return nil, nil, err
	}
	rightCol, err := column.ReindexByPositions(right.Column, positionsToPtrs(plan.RightPositions, useArena))
	if err != nil {
		return nil, nil, err
	}

	idx, err := rindex.New(plan.Labels)
	if err != nil {
		return nil, nil, err
	}
	leftOut, err := frame.NewSeries(left.Name, idx, leftCol)
	if err != nil {
		return nil, nil, err
	}
	rightOut, err := frame.NewSeries(right.Name, idx, rightCol)
	if err != nil {
		return nil, nil, err
	}
	return leftOut, rightOut, nil
}
