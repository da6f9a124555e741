package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	require.NoError(t, Init(DefaultConfig()))
	require.NoError(t, Init(DefaultConfig()))
	assert.NotNil(t, Tracer())
}

func TestStartPacketSpanSetsAttributesAndFails(t *testing.T) {
	require.NoError(t, Init(DefaultConfig()))

	ctx, span := StartPacketSpan(context.Background(), "series_add", "execute")
	assert.NotNil(t, ctx)
	span.SetAttribute("rows", int64(42))
	span.SetAttribute("ratio", 0.5)
	span.Fail(errors.New("boom"))
	span.End()
}
