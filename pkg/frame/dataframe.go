package frame

import (
	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// DataFrame is (Index, name -> Column), per §3. Column iteration order
// is insertion-preserving (the Open Question decision recorded in
// DESIGN.md): names holds the declared order and columns is keyed
// lookup, mirroring the teacher's ColumnStore map plus the ordered
// name slice its Schema keeps alongside it.
type DataFrame struct {
	Index   *rindex.Index
	names   []string
	columns map[string]*column.Column
}

// NewDataFrame constructs a DataFrame from an index and an ordered
// list of (name, column) pairs, validating length and name-uniqueness.
func NewDataFrame(idx *rindex.Index, names []string, cols []*column.Column) (*DataFrame, error) {
	if len(names) != len(cols) {
		return nil, nebulaerrors.Newf(nebulaerrors.DomainFrame, "LengthMismatch",
			"names length %d != columns length %d", len(names), len(cols))
	}
	columns := make(map[string]*column.Column, len(names))
	for i, name := range names {
		if _, dup := columns[name]; dup {
			return nil, nebulaerrors.Newf(nebulaerrors.DomainFrame, "DuplicateColumnName",
				"duplicate column name %q", name)
		}
		if cols[i].Len() != idx.Len() {
			return nil, nebulaerrors.Newf(nebulaerrors.DomainFrame, "LengthMismatch",
				"column %q length %d != index length %d", name, cols[i].Len(), idx.Len())
		}
		columns[name] = cols[i]
	}
	return &DataFrame{Index: idx, names: append([]string(nil), names...), columns: columns}, nil
}

// ColumnNames returns column names in insertion-preserving order.
func (df *DataFrame) ColumnNames() []string {
	return append([]string(nil), df.names...)
}

// Column returns the named column.
func (df *DataFrame) Column(name string) (*column.Column, bool) {
	c, ok := df.columns[name]
	return c, ok
}

// Len returns the number of rows.
func (df *DataFrame) Len() int { return df.Index.Len() }

// FromSeries implements §4.4's from_series: fold align_union to a
// single union index, then reindex every column to that index.
func FromSeries(seriesList []*Series) (*DataFrame, error) {
	if len(seriesList) == 0 {
		idx, err := rindex.New(nil)
		if err != nil {
			return nil, err
		}
		return &DataFrame{Index: idx, columns: map[string]*column.Column{}}, nil
	}

	union := seriesList[0].Index
	for _, s := range seriesList[1:] {
		plan := rindex.AlignUnion(union, s.Index)
		newIdx, err := rindex.New(plan.UnionLabels)
		if err != nil {
			return nil, err
		}
		union = newIdx
	}

	names := make([]string, len(seriesList))
	cols := make([]*column.Column, len(seriesList))
	for i, s := range seriesList {
		plan := rindex.AlignUnion(union, s.Index)
		reindexed, err := column.ReindexByPositions(s.Column, plan.RightPositions)
		if err != nil {
			return nil, err
		}
		names[i] = s.Name
		cols[i] = reindexed
	}

	return NewDataFrame(union, names, cols)
}

// ConcatSeries implements §4.4's concat_series: concatenates indexes
// and column values verbatim, preserving duplicate labels.
func ConcatSeries(seriesList []*Series) (*Series, error) {
	if len(seriesList) == 0 {
		return nil, nebulaerrors.New(nebulaerrors.DomainFrame, "EmptyConcat",
			"concat_series requires at least one input")
	}
	var labels []rindex.Label
	var scalars []dtype.Scalar
	for _, s := range seriesList {
		labels = append(labels, s.Index.Labels()...)
		scalars = append(scalars, s.Column.Values()...)
	}
	idx, err := rindex.New(labels)
	if err != nil {
		return nil, err
	}
	col, err := column.NewFromScalars(scalars)
	if err != nil {
		return nil, err
	}
	return &Series{Name: seriesList[0].Name, Index: idx, Column: col}, nil
}

// ConcatDataFrames implements §4.4's concat_dataframes: the column set
// is the union across frames; missing columns produce Null-filled
// cells for rows contributed by frames that lack them.
func ConcatDataFrames(frames []*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		return nil, nebulaerrors.New(nebulaerrors.DomainFrame, "EmptyConcat",
			"concat_dataframes requires at least one input")
	}

	var unionNames []string
	seen := map[string]bool{}
	for _, f := range frames {
		for _, n := range f.names {
			if !seen[n] {
				seen[n] = true
				unionNames = append(unionNames, n)
			}
		}
	}

	var labels []rindex.Label
	for _, f := range frames {
		labels = append(labels, f.Index.Labels()...)
	}
	idx, err := rindex.New(labels)
	if err != nil {
		return nil, err
	}

	cols := make([]*column.Column, len(unionNames))
	for ci, name := range unionNames {
		var scalars []dtype.Scalar
		for _, f := range frames {
			if c, ok := f.columns[name]; ok {
				scalars = append(scalars, c.Values()...)
			} else {
				for i := 0; i < f.Len(); i++ {
					scalars = append(scalars, dtype.NewNull(dtype.KindNull))
				}
			}
		}
		col, err := column.NewFromScalars(scalars)
		if err != nil {
			return nil, err
		}
		cols[ci] = col
	}

	return NewDataFrame(idx, unionNames, cols)
}

// FilterRows implements §4.4's filter_rows: aligns mask.Index to
// df.Index, keeping rows where the mask is true-and-valid.
func FilterRows(df *DataFrame, mask *Series) (*DataFrame, error) {
	plan := rindex.AlignLeft(df.Index, mask.Index)
	reindexedMask, err := column.ReindexByPositions(mask.Column, plan.RightPositions)
	if err != nil {
		return nil, err
	}

	var keepPositions []int
	for i := 0; i < reindexedMask.Len(); i++ {
		v := reindexedMask.At(i)
		if !v.IsMissing() && v.Bool() {
			keepPositions = append(keepPositions, i)
		}
	}

	newLabels := df.Index.Take(keepPositions)
	newIdx, err := rindex.New(newLabels)
	if err != nil {
		return nil, err
	}

	cols := make([]*column.Column, len(df.names))
	for i, name := range df.names {
		positions := make([]*int, len(keepPositions))
		for j, p := range keepPositions {
			pp := p
			positions[j] = &pp
		}
		reindexed, err := column.ReindexByPositions(df.columns[name], positions)
		if err != nil {
			return nil, err
		}
		cols[i] = reindexed
	}

	return NewDataFrame(newIdx, df.names, cols)
}

// Head implements §4.4's head(n), supporting signed n: head(-k) drops
// the last k rows, saturating to empty.
func Head(df *DataFrame, n int) (*DataFrame, error) {
	start, end := headRange(df.Len(), n)
	return sliceDataFrame(df, start, end)
}

// Tail implements §4.4's tail(n), supporting signed n: tail(-k) drops
// the first k rows, saturating to empty.
func Tail(df *DataFrame, n int) (*DataFrame, error) {
	start, end := tailRange(df.Len(), n)
	return sliceDataFrame(df, start, end)
}

func headRange(length, n int) (int, int) {
	if n >= 0 {
		if n > length {
			n = length
		}
		return 0, n
	}
	end := length + n
	if end < 0 {
		end = 0
	}
	return 0, end
}

func tailRange(length, n int) (int, int) {
	if n >= 0 {
		if n > length {
			n = length
		}
		return length - n, length
	}
	start := -n
	if start > length {
		start = length
	}
	return start, length
}

func sliceDataFrame(df *DataFrame, start, end int) (*DataFrame, error) {
	newLabels := df.Index.Slice(start, end)
	newIdx, err := rindex.New(newLabels)
	if err != nil {
		return nil, err
	}
	cols := make([]*column.Column, len(df.names))
	for i, name := range df.names {
		vals := df.columns[name].Values()[start:end]
		col, err := column.NewFromScalars(vals)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return NewDataFrame(newIdx, df.names, cols)
}
