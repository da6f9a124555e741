package rindex

import (
	"container/heap"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// AlignmentPlan is the sole protocol surface between Index and
// downstream kernels, per §3: all reindexing goes through plans.
type AlignmentPlan struct {
	UnionLabels   []Label
	LeftPositions []*int
	RightPositions []*int
}

// MultiAlignmentPlan is the leapfrog family's k-way counterpart:
// sorted deduplicated union labels plus one position map per input.
type MultiAlignmentPlan struct {
	UnionLabels []Label
	Positions   [][]*int
}

func ptr(i int) *int { return &i }

// AlignUnion implements §4.3's align_union: union_labels = L ++ (R \ L),
// preserving both sides' native ordering.
func AlignUnion(l, r *Index) *AlignmentPlan {
	union := dedupPreserving(l.labels)
	leftPos := make([]*int, 0, len(union))
	lIndex := make(map[Label]int, len(l.labels))
	for i, lab := range l.labels {
		if _, ok := lIndex[lab]; !ok {
			lIndex[lab] = i
		}
	}
	for _, lab := range union {
		p := lIndex[lab]
		leftPos = append(leftPos, ptr(p))
	}

	rIndex := make(map[Label]int, len(r.labels))
	for i, lab := range r.labels {
		if _, ok := rIndex[lab]; !ok {
			rIndex[lab] = i
		}
	}
	rightPos := make([]*int, 0, len(union))
	for _, lab := range union {
		if p, ok := rIndex[lab]; ok {
			rightPos = append(rightPos, ptr(p))
		} else {
			rightPos = append(rightPos, nil)
		}
	}

	added := labelSet(union)
	for _, lab := range dedupPreserving(r.labels) {
		if _, ok := added[lab]; ok {
			continue
		}
		union = append(union, lab)
		leftPos = append(leftPos, nil)
		rightPos = append(rightPos, ptr(rIndex[lab]))
		added[lab] = struct{}{}
	}

	return &AlignmentPlan{UnionLabels: union, LeftPositions: leftPos, RightPositions: rightPos}
}

// AlignInner implements §4.3's align_inner: union_labels = labels in L
// that also appear in R, in L-order; positions defined on both sides.
func AlignInner(l, r *Index) *AlignmentPlan {
	rIndex := make(map[Label]int, len(r.labels))
	for i, lab := range r.labels {
		if _, ok := rIndex[lab]; !ok {
			rIndex[lab] = i
		}
	}

	var union []Label
	var leftPos, rightPos []*int
	seen := make(map[Label]struct{}, len(l.labels))
	for i, lab := range l.labels {
		if _, ok := seen[lab]; ok {
			continue
		}
		if rp, ok := rIndex[lab]; ok {
			seen[lab] = struct{}{}
			union = append(union, lab)
			leftPos = append(leftPos, ptr(i))
			rightPos = append(rightPos, ptr(rp))
		}
	}
	return &AlignmentPlan{UnionLabels: union, LeftPositions: leftPos, RightPositions: rightPos}
}

// AlignLeft implements §4.3's align_left: union_labels = L;
// right_positions may be absent.
func AlignLeft(l, r *Index) *AlignmentPlan {
	rIndex := make(map[Label]int, len(r.labels))
	for i, lab := range r.labels {
		if _, ok := rIndex[lab]; !ok {
			rIndex[lab] = i
		}
	}
	leftPos := make([]*int, len(l.labels))
	rightPos := make([]*int, len(l.labels))
	for i, lab := range l.labels {
		leftPos[i] = ptr(i)
		if rp, ok := rIndex[lab]; ok {
			rightPos[i] = ptr(rp)
		}
	}
	return &AlignmentPlan{UnionLabels: append([]Label(nil), l.labels...), LeftPositions: leftPos, RightPositions: rightPos}
}

// ValidateAlignmentPlan asserts position vectors have length equal to
// union_labels and every non-absent position is in-range for its side.
func ValidateAlignmentPlan(plan *AlignmentPlan, leftLen, rightLen int) error {
	n := len(plan.UnionLabels)
	if len(plan.LeftPositions) != n || len(plan.RightPositions) != n {
		return nebulaerrors.Newf(nebulaerrors.DomainIndex, "InvalidAlignmentPlan",
			"position vector length must equal union_labels length %d", n)
	}
	for _, p := range plan.LeftPositions {
		if p != nil && (*p < 0 || *p >= leftLen) {
			return nebulaerrors.Newf(nebulaerrors.DomainIndex, "InvalidAlignmentPlan",
				"left position %d out of range for length %d", *p, leftLen)
		}
	}
	for _, p := range plan.RightPositions {
		if p != nil && (*p < 0 || *p >= rightLen) {
			return nebulaerrors.Newf(nebulaerrors.DomainIndex, "InvalidAlignmentPlan",
				"right position %d out of range for length %d", *p, rightLen)
		}
	}
	return nil
}

// labelHeapItem is one cursor's current head label in the leapfrog
// min-heap merge.
type labelHeapItem struct {
	label    Label
	srcIdx   int
	cursor   int
}

type labelHeap []labelHeapItem

func (h labelHeap) Len() int            { return len(h) }
func (h labelHeap) Less(i, j int) bool  { return h[i].label.Less(h[j].label) }
func (h labelHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *labelHeap) Push(x interface{}) { *h = append(*h, x.(labelHeapItem)) }
func (h *labelHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// LeapfrogUnion emits the sorted, deduplicated union of every index's
// labels via a min-heap cursor-advance merge, per §4.3. The merge
// itself only advances cursors; it relies on leapfrogMerge sorting
// each input's labels first, so the result is strictly sorted
// regardless of the order labels were inserted in.
func LeapfrogUnion(indexes []*Index) []Label {
	return leapfrogMerge(indexes, func(n, total int) bool { return n >= 1 })
}

// LeapfrogIntersection emits the sorted labels present in every index.
func LeapfrogIntersection(indexes []*Index) []Label {
	total := len(indexes)
	return leapfrogMerge(indexes, func(n, t int) bool { return n == total })
}

func leapfrogMerge(indexes []*Index, keep func(matchCount, total int) bool) []Label {
	sorted := make([][]Label, len(indexes))
	for i, idx := range indexes {
		labels, _ := idx.SortValues()
		sorted[i] = labels
	}

	h := &labelHeap{}
	heap.Init(h)
	for i, labels := range sorted {
		if len(labels) > 0 {
			heap.Push(h, labelHeapItem{label: labels[0], srcIdx: i, cursor: 0})
		}
	}

	var out []Label
	total := len(indexes)
	for h.Len() > 0 {
		current := (*h)[0].label
		matchCount := 0
		for h.Len() > 0 && (*h)[0].label.Equal(current) {
			item := heap.Pop(h).(labelHeapItem)
			matchCount++
			next := item.cursor + 1
			if next < len(sorted[item.srcIdx]) {
				heap.Push(h, labelHeapItem{label: sorted[item.srcIdx][next], srcIdx: item.srcIdx, cursor: next})
			}
		}
		if keep(matchCount, total) {
			out = append(out, current)
		}
	}
	return out
}

// MultiWayAlign returns a MultiAlignmentPlan over the sorted union of
// every index's labels.
func MultiWayAlign(indexes []*Index) *MultiAlignmentPlan {
	union := LeapfrogUnion(indexes)
	positions := make([][]*int, len(indexes))
	for i, idx := range indexes {
		lookup := make(map[Label]int, idx.Len())
		for p := 0; p < idx.Len(); p++ {
			if _, ok := lookup[idx.At(p)]; !ok {
				lookup[idx.At(p)] = p
			}
		}
		pos := make([]*int, len(union))
		for u, lab := range union {
			if p, ok := lookup[lab]; ok {
				pos[u] = ptr(p)
			}
		}
		positions[i] = pos
	}
	return &MultiAlignmentPlan{UnionLabels: union, Positions: positions}
}
