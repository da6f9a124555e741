package dtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarEqualityIsNullKindAware(t *testing.T) {
	assert.True(t, NewNull(KindNull).Equal(NewNull(KindNull)))
	assert.False(t, NewNull(KindNull).Equal(NewNull(KindNaT)))
	assert.True(t, NewFloat64(1.5).Equal(NewFloat64(1.5)))
}

func TestFloat64NaNIsMissing(t *testing.T) {
	s := NewFloat64(nan())
	assert.True(t, s.IsMissing())
	assert.Equal(t, KindNaN, s.NullKind())
}

func TestCommonDType(t *testing.T) {
	cases := []struct {
		a, b DType
		want DType
	}{
		{Int64, Int64, Int64},
		{Int64, Float64, Float64},
		{Null, Int64, Int64},
		{Int64, Null, Int64},
		{Bool, Bool, Bool},
	}
	for _, c := range cases {
		got, err := CommonDType(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := CommonDType(Bool, Int64)
	assert.Error(t, err)
	_, err = CommonDType(Utf8, Float64)
	assert.Error(t, err)
}

func TestInferDType(t *testing.T) {
	dt, err := InferDType([]Scalar{NewInt64(1), NewNull(KindNull), NewFloat64(2.5)})
	require.NoError(t, err)
	assert.Equal(t, Float64, dt)
}

func TestCastRoundTrips(t *testing.T) {
	got, err := Cast(NewInt64(3), Float64)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Float64())

	got, err = Cast(NewFloat64(2.9), Int64)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Int64())

	_, err = Cast(NewUtf8("x"), Int64)
	assert.Error(t, err)
}

func TestNanReductionsAllMissing(t *testing.T) {
	nulls := []Scalar{NewNull(KindNull), NewNull(KindNull)}
	assert.True(t, NanSum(nulls).IsMissing())
	assert.True(t, NanMean(nulls).IsMissing())
	assert.Equal(t, int64(0), NanCount(nulls).Int64())
}

func TestNanMeanPromotesToFloat64(t *testing.T) {
	got := NanMean([]Scalar{NewInt64(1), NewInt64(2), NewInt64(3)})
	assert.Equal(t, Float64, got.DType())
	assert.Equal(t, 2.0, got.Float64())
}

func TestNanVarDdofEdgeCases(t *testing.T) {
	assert.True(t, NanVar([]Scalar{NewInt64(5)}, 1).IsMissing())

	got := NanVar([]Scalar{NewFloat64(2), NewFloat64(4), NewFloat64(4), NewFloat64(4), NewFloat64(5), NewFloat64(5), NewFloat64(7), NewFloat64(9)}, 1)
	require.False(t, got.IsMissing())
	assert.InDelta(t, 4.571428, got.Float64(), 1e-4)
}

func TestFillNAAndDropNA(t *testing.T) {
	in := []Scalar{NewInt64(1), NewNull(KindNull), NewInt64(3)}
	filled, err := FillNA(in, NewInt64(0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), filled[1].Int64())

	dropped := DropNA(in)
	assert.Len(t, dropped, 2)
}

func nan() float64 {
	var zero float64
	return zero / zero
}
