package groupby

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// alignPrelude implements §4.5 step 1: when keys and values already
// share one row index, positions line up directly; otherwise the two
// series are aligned via align_union and both columns reindexed onto
// the resulting union. A union step necessarily dedupes by label, so
// a keys index carrying duplicate labels is aligned as-is (no
// realignment) whenever it already matches values.Index row-for-row —
// realignment is only triggered by differing indexes, per the spec's
// "keys.index != values.index" condition.
func alignPrelude(keys, values *frame.Series) ([]dtype.Scalar, []dtype.Scalar, error) {
	if sameIndex(keys.Index, values.Index) {
		return keys.Column.Values(), values.Column.Values(), nil
	}

	plan := rindex.AlignUnion(keys.Index, values.Index)
	if err := rindex.ValidateAlignmentPlan(plan, keys.Len(), values.Len()); err != nil {
		return nil, nil, err
	}
	alignedKeys, err := column.ReindexByPositions(keys.Column, plan.LeftPositions)
	if err != nil {
		return nil, nil, err
	}
	alignedValues, err := column.ReindexByPositions(values.Column, plan.RightPositions)
	if err != nil {
		return nil, nil, err
	}
	return alignedKeys.Values(), alignedValues.Values(), nil
}

func sameIndex(a, b *rindex.Index) bool {
	if a == b {
		return true
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !a.At(i).Equal(b.At(i)) {
			return false
		}
	}
	return true
}
