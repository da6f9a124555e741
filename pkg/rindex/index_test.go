package rindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustIndex(t *testing.T, labels ...Label) *Index {
	t.Helper()
	idx, err := New(labels)
	require.NoError(t, err)
	return idx
}

func TestMixedLabelKindRejected(t *testing.T) {
	_, err := New([]Label{Int64Label(1), Utf8Label("a")})
	assert.Error(t, err)
}

func TestHasDuplicatesMemoized(t *testing.T) {
	idx := mustIndex(t, Int64Label(1), Int64Label(2), Int64Label(1))
	assert.True(t, idx.HasDuplicates())
	assert.True(t, idx.HasDuplicates())

	unique := mustIndex(t, Int64Label(1), Int64Label(2))
	assert.False(t, unique.HasDuplicates())
}

func TestPositionOnSortedAndUnsorted(t *testing.T) {
	sorted := mustIndex(t, Int64Label(1), Int64Label(2), Int64Label(3))
	pos, ok := sorted.Position(Int64Label(2))
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	unsorted := mustIndex(t, Int64Label(3), Int64Label(1), Int64Label(2))
	pos, ok = unsorted.Position(Int64Label(1))
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	_, ok = sorted.Position(Int64Label(99))
	assert.False(t, ok)
}

func TestUniqueAndDuplicated(t *testing.T) {
	idx := mustIndex(t, Int64Label(1), Int64Label(2), Int64Label(1), Int64Label(3))
	assert.Equal(t, []Label{Int64Label(1), Int64Label(2), Int64Label(3)}, idx.Unique())

	first := idx.Duplicated(KeepFirst)
	assert.Equal(t, []bool{false, false, true, false}, first)

	last := idx.Duplicated(KeepLast)
	assert.Equal(t, []bool{true, false, false, false}, last)

	none := idx.Duplicated(KeepNone)
	assert.Equal(t, []bool{true, false, true, false}, none)
}

func TestSetOpsAreLeftOrderFirst(t *testing.T) {
	l := mustIndex(t, Int64Label(3), Int64Label(1), Int64Label(2))
	r := mustIndex(t, Int64Label(2), Int64Label(4))

	assert.Equal(t, []Label{Int64Label(2)}, l.Intersection(r))
	assert.Equal(t, []Label{Int64Label(3), Int64Label(1), Int64Label(2), Int64Label(4)}, l.UnionWith(r))
	assert.Equal(t, []Label{Int64Label(3), Int64Label(1)}, l.Difference(r))
}

func TestAlignUnionInvariant(t *testing.T) {
	l := mustIndex(t, Int64Label(1), Int64Label(2))
	r := mustIndex(t, Int64Label(2), Int64Label(3))

	plan := AlignUnion(l, r)
	assert.Equal(t, []Label{Int64Label(1), Int64Label(2), Int64Label(3)}, plan.UnionLabels)
	require.NoError(t, ValidateAlignmentPlan(plan, l.Len(), r.Len()))

	assert.Nil(t, plan.LeftPositions[2])
	assert.Nil(t, plan.RightPositions[0])
}

func TestAlignInnerPreservesLeftOrder(t *testing.T) {
	l := mustIndex(t, Int64Label(3), Int64Label(1), Int64Label(2))
	r := mustIndex(t, Int64Label(1), Int64Label(3))

	plan := AlignInner(l, r)
	assert.Equal(t, []Label{Int64Label(3), Int64Label(1)}, plan.UnionLabels)
}

func TestLeapfrogOutputsSortedAndDeduped(t *testing.T) {
	// Inputs are deliberately left unsorted (not pre-sorted via
	// SortValues) so this actually exercises "regardless of input
	// order" rather than masking it.
	a := mustIndex(t, Int64Label(3), Int64Label(1))
	b := mustIndex(t, Int64Label(2), Int64Label(1))

	union := LeapfrogUnion([]*Index{a, b})
	assert.Equal(t, []Label{Int64Label(1), Int64Label(2), Int64Label(3)}, union)

	inter := LeapfrogIntersection([]*Index{a, b})
	assert.Equal(t, []Label{Int64Label(1)}, inter)
}

func TestLeapfrogUnionSortedRegardlessOfInputPermutation(t *testing.T) {
	a := mustIndex(t, Int64Label(5), Int64Label(3), Int64Label(1))
	b := mustIndex(t, Int64Label(4), Int64Label(2), Int64Label(1))
	c := mustIndex(t, Int64Label(1), Int64Label(5), Int64Label(2))

	union := LeapfrogUnion([]*Index{a, b, c})
	assert.Equal(t, []Label{
		Int64Label(1), Int64Label(2), Int64Label(3), Int64Label(4), Int64Label(5),
	}, union)

	for i := 1; i < len(union); i++ {
		assert.True(t, union[i-1].Less(union[i]), "union must be strictly sorted at index %d", i)
	}
}
