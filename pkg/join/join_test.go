package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

func int64Index(t *testing.T, labels ...int64) *rindex.Index {
	t.Helper()
	ls := make([]rindex.Label, len(labels))
	for i, l := range labels {
		ls[i] = rindex.Int64Label(l)
	}
	idx, err := rindex.New(ls)
	require.NoError(t, err)
	return idx
}

func int64Series(t *testing.T, name string, idx *rindex.Index, values ...int64) *frame.Series {
	t.Helper()
	scalars := make([]dtype.Scalar, len(values))
	for i, v := range values {
		scalars[i] = dtype.NewInt64(v)
	}
	col, err := column.NewFromScalars(scalars)
	require.NoError(t, err)
	s, err := frame.NewSeries(name, idx, col)
	require.NoError(t, err)
	return s
}

func rangeIndex(t *testing.T, n int) *rindex.Index {
	t.Helper()
	labels := make([]int64, n)
	for i := range labels {
		labels[i] = int64(i)
	}
	return int64Index(t, labels...)
}

func joinPolicy() (*policy.RuntimePolicy, *policy.EvidenceLedger) {
	cfg := config.NewDefaultPolicyConfig()
	cfg.Mode = config.ModeStrict
	return policy.New(cfg), policy.NewEvidenceLedger()
}

func TestSeriesJoinInnerExpandsDuplicateRightKeys(t *testing.T) {
	left := int64Series(t, "k", rangeIndex(t, 2), 1, 2)
	right := int64Series(t, "v", rangeIndex(t, 3), 10, 20, 21)

	leftIdx := int64Index(t, 1, 2)
	rightIdx := int64Index(t, 2, 2, 3)
	left.Index = leftIdx
	right.Index = rightIdx

	p, ledger := joinPolicy()
	leftOut, rightOut, err := SeriesJoin(left, right, Inner, p, ledger)
	require.NoError(t, err)

	require.Equal(t, 2, leftOut.Len())
	assert.Equal(t, int64(2), leftOut.Column.At(0).Int64())
	assert.Equal(t, int64(2), leftOut.Column.At(1).Int64())
	assert.Equal(t, int64(10), rightOut.Column.At(0).Int64())
	assert.Equal(t, int64(20), rightOut.Column.At(1).Int64())
}

func TestSeriesJoinLeftPreservesLeftOrderWithUnmatched(t *testing.T) {
	left := int64Series(t, "k", int64Index(t, 1, 2, 3), 100, 200, 300)
	right := int64Series(t, "v", int64Index(t, 2, 4), 20, 40)

	p, ledger := joinPolicy()
	leftOut, rightOut, err := SeriesJoin(left, right, Left, p, ledger)
	require.NoError(t, err)

	require.Equal(t, 3, leftOut.Len())
	assert.Equal(t, int64(100), leftOut.Column.At(0).Int64())
	assert.Equal(t, int64(200), leftOut.Column.At(1).Int64())
	assert.Equal(t, int64(300), leftOut.Column.At(2).Int64())
	assert.True(t, rightOut.Column.At(0).IsMissing())
	assert.Equal(t, int64(20), rightOut.Column.At(1).Int64())
	assert.True(t, rightOut.Column.At(2).IsMissing())
}

func TestSeriesJoinRightPreservesRightOrder(t *testing.T) {
	left := int64Series(t, "k", int64Index(t, 2, 4), 20, 40)
	right := int64Series(t, "v", int64Index(t, 1, 2, 3), 100, 200, 300)

	p, ledger := joinPolicy()
	leftOut, rightOut, err := SeriesJoin(left, right, Right, p, ledger)
	require.NoError(t, err)

	require.Equal(t, 3, rightOut.Len())
	assert.Equal(t, int64(100), rightOut.Column.At(0).Int64())
	assert.Equal(t, int64(200), rightOut.Column.At(1).Int64())
	assert.Equal(t, int64(300), rightOut.Column.At(2).Int64())
	assert.True(t, leftOut.Column.At(0).IsMissing())
	assert.Equal(t, int64(20), leftOut.Column.At(1).Int64())
	assert.True(t, leftOut.Column.At(2).IsMissing())
}

func TestSeriesJoinOuterAppendsRightOnlyAfterLeftTraversal(t *testing.T) {
	left := int64Series(t, "k", int64Index(t, 1, 2), 10, 20)
	right := int64Series(t, "v", int64Index(t, 2, 3), 200, 300)

	p, ledger := joinPolicy()
	leftOut, rightOut, err := SeriesJoin(left, right, Outer, p, ledger)
	require.NoError(t, err)

	require.Equal(t, 3, leftOut.Len())
	assert.Equal(t, rindex.Int64Label(1), leftOut.Index.At(0))
	assert.Equal(t, rindex.Int64Label(2), leftOut.Index.At(1))
	assert.Equal(t, rindex.Int64Label(3), leftOut.Index.At(2))
	assert.True(t, rightOut.Column.At(0).IsMissing())
	assert.Equal(t, int64(200), rightOut.Column.At(1).Int64())
	assert.True(t, leftOut.Column.At(2).IsMissing())
	assert.Equal(t, int64(300), rightOut.Column.At(2).Int64())
}

func TestSeriesJoinCardinalityAdmission(t *testing.T) {
	left := int64Series(t, "k", int64Index(t, 1, 2, 3), 1, 2, 3)
	right := int64Series(t, "v", int64Index(t, 1, 2, 3), 1, 2, 3)

	cfg := config.NewDefaultPolicyConfig()
	cfg.Mode = config.ModeStrict
	cap := int64(1)
	cfg.HardenedJoinRowCap = &cap
	p := policy.New(cfg)
	ledger := policy.NewEvidenceLedger()

	_, _, err := SeriesJoin(left, right, Inner, p, ledger)
	assert.Error(t, err)
}

func TestMergeDataFramesSuffixDisambiguation(t *testing.T) {
	leftIdx := rangeIndex(t, 2)
	leftKey, err := column.NewFromScalars([]dtype.Scalar{dtype.NewInt64(1), dtype.NewInt64(2)})
	require.NoError(t, err)
	leftVal, err := column.NewFromScalars([]dtype.Scalar{dtype.NewInt64(100), dtype.NewInt64(200)})
	require.NoError(t, err)
	leftDF, err := frame.NewDataFrame(leftIdx, []string{"id", "val"}, []*column.Column{leftKey, leftVal})
	require.NoError(t, err)

	rightIdx := rangeIndex(t, 2)
	rightKey, err := column.NewFromScalars([]dtype.Scalar{dtype.NewInt64(1), dtype.NewInt64(3)})
	require.NoError(t, err)
	rightVal, err := column.NewFromScalars([]dtype.Scalar{dtype.NewInt64(9), dtype.NewInt64(8)})
	require.NoError(t, err)
	rightDF, err := frame.NewDataFrame(rightIdx, []string{"id", "val"}, []*column.Column{rightKey, rightVal})
	require.NoError(t, err)

	p, ledger := joinPolicy()
	merged, err := Merge(leftDF, rightDF, "id", "id", Inner, DefaultSuffixes(), p, ledger)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "val_x", "val_y"}, merged.ColumnNames())
	require.Equal(t, 1, merged.Len())
	valX, _ := merged.Column("val_x")
	valY, _ := merged.Column("val_y")
	assert.Equal(t, int64(100), valX.At(0).Int64())
	assert.Equal(t, int64(9), valY.At(0).Int64())
}
