package groupby

import (
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// genericPath implements §4.5 step 4: a hash map keyed by the group's
// IndexLabel, recording first-seen ordinal plus the accumulated
// per-group value list, emitted in first-seen order per
// INV-GROUPBY-FIRST-SEEN.
func genericPath(keys, values []dtype.Scalar, fn AggFunc, name string) (*frame.Series, error) {
	groupIndex := make(map[rindex.Label]int)
	var ordering []rindex.Label
	var groups [][]dtype.Scalar

	for i, k := range keys {
		label, err := labelForKey(k)
		if err != nil {
			return nil, err
		}
		idx, ok := groupIndex[label]
		if !ok {
			idx = len(ordering)
			groupIndex[label] = idx
			ordering = append(ordering, label)
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], values[i])
	}

	resultValues := make([]dtype.Scalar, len(ordering))
	for i, group := range groups {
		resultValues[i] = aggregate(fn, group)
	}

	return buildResultSeries(name, ordering, resultValues)
}
