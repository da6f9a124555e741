package join

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// Suffixes names the (left, right) suffixes merge_dataframes appends to
// colliding non-key column names, mirroring pandas' merge(suffixes=).
type Suffixes struct {
	Left  string
	Right string
}

// DefaultSuffixes is merge_dataframes' default collision disambiguation.
func DefaultSuffixes() Suffixes { return Suffixes{Left: "_x", Right: "_y"} }

func keyLabel(s dtype.Scalar) (rindex.Label, error) {
	switch s.DType() {
	case dtype.Int64:
		return rindex.Int64Label(s.Int64()), nil
	case dtype.Utf8:
		return rindex.Utf8Label(s.Utf8()), nil
	default:
		return rindex.Label{}, nebulaerrors.Newf(nebulaerrors.DomainJoin, "UnsupportedKeyDType",
			"merge key dtype %s cannot form a join key", s.DType())
	}
}

func keyLabels(col *column.Column) ([]rindex.Label, error) {
	values := col.Values()
	labels := make([]rindex.Label, len(values))
	for i, v := range values {
		l, err := keyLabel(v)
		if err != nil {
			return nil, err
		}
		labels[i] = l
	}
	return labels, nil
}

// Merge implements §4.6's merge_dataframes: joins left and right on a
// named column from each (not the row Index), with suffix
// disambiguation on colliding non-key column names and a fresh range
// index for the output, per §4.6's output contract.
func Merge(left, right *frame.DataFrame, leftOn, rightOn string, how Type, suffixes Suffixes, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.DataFrame, error) {
	leftKeyCol, ok := left.Column(leftOn)
	if !ok {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainJoin, "UnknownColumn", "left has no column %q", leftOn)
	}
	rightKeyCol, ok := right.Column(rightOn)
	if !ok {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainJoin, "UnknownColumn", "right has no column %q", rightOn)
	}

	leftLabels, err := keyLabels(leftKeyCol)
	if err != nil {
		return nil, err
	}
	rightLabels, err := keyLabels(rightKeyCol)
	if err != nil {
		return nil, err
	}
	leftKeyIdx, err := rindex.New(leftLabels)
	if err != nil {
		return nil, err
	}
	rightKeyIdx, err := rindex.New(rightLabels)
	if err != nil {
		return nil, err
	}

	plan, err := Indexes(leftKeyIdx, rightKeyIdx, how, p, ledger)
	if err != nil {
		return nil, err
	}

	n := len(plan.Labels)
	estimatedBytes := int64(n) * 16
	useArena := estimatedBytes <= p.ArenaBudgetBytes()
	leftPtrs := positionsToPtrs(plan.LeftPositions, useArena)
	rightPtrs := positionsToPtrs(plan.RightPositions, useArena)

	keyValues := make([]dtype.Scalar, n)
	leftKeyValues := leftKeyCol.Values()
	rightKeyValues := rightKeyCol.Values()
	for i := 0; i < n; i++ {
		if leftPtrs[i] != nil {
			keyValues[i] = leftKeyValues[*leftPtrs[i]]
		} else {
			keyValues[i] = rightKeyValues[*rightPtrs[i]]
		}
	}
	keyCol, err := column.NewFromScalars(keyValues)
	if err != nil {
		return nil, err
	}

	rightNonKeyNames := make([]string, 0, len(right.ColumnNames()))
	for _, name := range right.ColumnNames() {
		if name != rightOn {
			rightNonKeyNames = append(rightNonKeyNames, name)
		}
	}
	collides := make(map[string]bool)
	for _, ln := range left.ColumnNames() {
		if ln == leftOn {
			continue
		}
		for _, rn := range rightNonKeyNames {
			if ln == rn {
				collides[ln] = true
			}
		}
	}

	outNames := []string{leftOn}
	outCols := []*column.Column{keyCol}

	for _, name := range left.ColumnNames() {
		if name == leftOn {
			continue
		}
		c, _ := left.Column(name)
		reindexed, err := column.ReindexByPositions(c, leftPtrs)
		if err != nil {
			return nil, err
		}
		outName := name
		if collides[name] {
			outName = name + suffixes.Left
		}
		outNames = append(outNames, outName)
		outCols = append(outCols, reindexed)
	}

	for _, name := range rightNonKeyNames {
		c, _ := right.Column(name)
		reindexed, err := column.ReindexByPositions(c, rightPtrs)
		if err != nil {
			return nil, err
		}
		outName := name
		if collides[name] {
			outName = name + suffixes.Right
		}
		outNames = append(outNames, outName)
		outCols = append(outCols, reindexed)
	}

	rangeLabels := make([]rindex.Label, n)
	for i := 0; i < n; i++ {
		rangeLabels[i] = rindex.Int64Label(int64(i))
	}
	outIdx, err := rindex.New(rangeLabels)
	if err != nil {
		return nil, err
	}

	return frame.NewDataFrame(outIdx, outNames, outCols)
}
