package nebulaerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndError(t *testing.T) {
	err := New(DomainColumn, "LengthMismatch", "columns differ in length")
	assert.Equal(t, "column/LengthMismatch: columns differ in length", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(DomainIndex, "LabelNotFound", "missing label")
	outer := Wrap(inner, DomainFrame, "Index", "alignment failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Same(t, inner, errors.Unwrap(outer))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, DomainFrame, "Index", "unused"))
}

func TestIsAndIsDomain(t *testing.T) {
	err := New(DomainJoin, "CompatibilityRejected", "cardinality too large")
	assert.True(t, Is(err, DomainJoin, "CompatibilityRejected"))
	assert.False(t, Is(err, DomainJoin, "OtherKind"))
	assert.True(t, IsDomain(err, DomainJoin))
	assert.False(t, IsDomain(err, DomainGroupBy))
}

func TestWithDetail(t *testing.T) {
	err := New(DomainColumn, "OutOfBounds", "index out of range").
		WithDetail("index", 5).
		WithDetail("length", 3)

	assert.Equal(t, 5, err.Details["index"])
	assert.Equal(t, 3, err.Details["length"])
}

func TestNotOurErrorType(t *testing.T) {
	plain := errors.New("plain error")
	assert.False(t, Is(plain, DomainColumn, "LengthMismatch"))

	wrapped := Wrap(plain, DomainColumn, "LengthMismatch", "wrapped")
	require.NotNil(t, wrapped)
	assert.Equal(t, plain, errors.Unwrap(wrapped))
	assert.NotEmpty(t, wrapped.Stack)
}
