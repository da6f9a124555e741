package rindex

import (
	"sort"
	"sync"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// SortOrder is the Index's lazily-computed sort-order classification,
// enabling adaptive position lookup.
type SortOrder uint8

const (
	Unsorted SortOrder = iota
	AscendingInt64
	AscendingUtf8
)

// KeepPolicy controls which duplicate occurrence duplicated/
// drop_duplicates retains.
type KeepPolicy uint8

const (
	KeepFirst KeepPolicy = iota
	KeepLast
	KeepNone
)

// Index is an immutable ordered sequence of labels plus three
// lazily-initialized, never-invalidated caches (duplicate status, sort
// order, position map), each guarded by its own
// sync.Once so concurrent first access computes exactly one result —
// the same global-init discipline the teacher's pkg/logger uses for its
// package-level zap logger, scoped here to one Index instance.
type Index struct {
	labels []Label

	dupOnce   sync.Once
	hasDup    bool
	sortOnce  sync.Once
	sortOrder SortOrder
	posOnce   sync.Once
	posMap    map[Label]int
}

// New constructs an Index from a label sequence. Mixed-kind labels are
// rejected at construction (Open Question decision, see DESIGN.md).
func New(labels []Label) (*Index, error) {
	for i := 1; i < len(labels); i++ {
		if labels[i].Kind() != labels[0].Kind() {
			return nil, nebulaerrors.New(nebulaerrors.DomainIndex, "MixedLabelKind",
				"index labels must share one LabelKind")
		}
	}
	return &Index{labels: append([]Label(nil), labels...)}, nil
}

// Len returns the number of labels.
func (idx *Index) Len() int { return len(idx.labels) }

// Labels returns the label sequence. Callers must not mutate it.
func (idx *Index) Labels() []Label { return idx.labels }

// At returns the label at position i.
func (idx *Index) At(i int) Label { return idx.labels[i] }

// HasDuplicates is memoized: first write wins, and is a pure function
// of the label vector so it is safe to recompute after deserialization.
func (idx *Index) HasDuplicates() bool {
	idx.dupOnce.Do(func() {
		seen := make(map[Label]struct{}, len(idx.labels))
		for _, l := range idx.labels {
			if _, ok := seen[l]; ok {
				idx.hasDup = true
				return
			}
			seen[l] = struct{}{}
		}
	})
	return idx.hasDup
}

// sortOrderCache computes {AscendingInt64, AscendingUtf8, Unsorted}.
func (idx *Index) sortOrderCache() SortOrder {
	idx.sortOnce.Do(func() {
		if len(idx.labels) == 0 {
			idx.sortOrder = Unsorted
			return
		}
		for i := 1; i < len(idx.labels); i++ {
			if idx.labels[i-1].Less(idx.labels[i]) || idx.labels[i-1].Equal(idx.labels[i]) {
				continue
			}
			idx.sortOrder = Unsorted
			return
		}
		if idx.labels[0].Kind() == LabelInt64 {
			idx.sortOrder = AscendingInt64
		} else {
			idx.sortOrder = AscendingUtf8
		}
	})
	return idx.sortOrder
}

func (idx *Index) positionMap() map[Label]int {
	idx.posOnce.Do(func() {
		idx.posMap = make(map[Label]int, len(idx.labels))
		for i, l := range idx.labels {
			if _, ok := idx.posMap[l]; !ok {
				idx.posMap[l] = i
			}
		}
	})
	return idx.posMap
}

// Position returns the first position of label, adaptively: binary
// search when the sort-order cache reports sorted, else an on-demand
// hash map giving O(1) amortized lookups.
func (idx *Index) Position(label Label) (int, bool) {
	if idx.sortOrderCache() != Unsorted {
		n := len(idx.labels)
		i := sort.Search(n, func(i int) bool {
			return !idx.labels[i].Less(label)
		})
		if i < n && idx.labels[i].Equal(label) {
			return i, true
		}
		return 0, false
	}
	pos, ok := idx.positionMap()[label]
	return pos, ok
}

// GetIndexer returns, for each label in target, its position in idx or
// nil if absent.
func (idx *Index) GetIndexer(target []Label) []*int {
	out := make([]*int, len(target))
	for i, l := range target {
		if pos, ok := idx.Position(l); ok {
			p := pos
			out[i] = &p
		}
	}
	return out
}

// Isin reports, for each label in idx, whether it appears in values.
func (idx *Index) Isin(values []Label) []bool {
	set := make(map[Label]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]bool, idx.Len())
	for i, l := range idx.labels {
		_, out[i] = set[l]
	}
	return out
}

// Unique returns the first-seen-preserving unique labels.
func (idx *Index) Unique() []Label {
	seen := make(map[Label]struct{}, len(idx.labels))
	var out []Label
	for _, l := range idx.labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}

// Duplicated reports, per position, whether it is a duplicate under
// keep: KeepFirst marks every occurrence but the first, KeepLast marks
// every occurrence but the last, KeepNone marks every occurrence of any
// label that appears more than once.
func (idx *Index) Duplicated(keep KeepPolicy) []bool {
	counts := make(map[Label]int, len(idx.labels))
	for _, l := range idx.labels {
		counts[l]++
	}
	out := make([]bool, len(idx.labels))
	seenFirst := make(map[Label]bool, len(idx.labels))
	seenCount := make(map[Label]int, len(idx.labels))
	for i, l := range idx.labels {
		switch keep {
		case KeepFirst:
			if seenFirst[l] {
				out[i] = true
			}
			seenFirst[l] = true
		case KeepLast:
			seenCount[l]++
			out[i] = seenCount[l] < counts[l]
		case KeepNone:
			out[i] = counts[l] > 1
		}
	}
	return out
}

// DropDuplicates returns the labels surviving Duplicated(keep) == false.
func (idx *Index) DropDuplicates(keep KeepPolicy) []Label {
	dup := idx.Duplicated(keep)
	var out []Label
	for i, l := range idx.labels {
		if !dup[i] {
			out = append(out, l)
		}
	}
	return out
}

// Take returns the labels at the given positions, in order.
func (idx *Index) Take(positions []int) []Label {
	out := make([]Label, len(positions))
	for i, p := range positions {
		out[i] = idx.labels[p]
	}
	return out
}

// Slice returns the label range [start, end).
func (idx *Index) Slice(start, end int) []Label {
	return append([]Label(nil), idx.labels[start:end]...)
}

// SortValues returns labels sorted ascending and the permutation that
// produces that order (argsort).
func (idx *Index) SortValues() ([]Label, []int) {
	perm := idx.Argsort()
	return idx.Take(perm), perm
}

// Argsort returns the permutation of positions that sorts the labels
// ascending, stable on ties.
func (idx *Index) Argsort() []int {
	perm := make([]int, len(idx.labels))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return idx.labels[perm[i]].Less(idx.labels[perm[j]])
	})
	return perm
}
