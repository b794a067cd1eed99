package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewEntry_StampsTrace(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()

	e := NewEntry(ctx, "a-1", "u-1", StatusStarted)

	assert.Equal(t, span.SpanContext().TraceID().String(), e.TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), e.SpanID)
	assert.False(t, e.RecordedAt.IsZero())
}

func TestMemory(t *testing.T) {
	var m Memory
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, NewEntry(ctx, "a-1", "u-1", StatusStarted)))
	require.NoError(t, m.Save(ctx, NewEntry(ctx, "a-1", "u-1", StatusError)))

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, StatusError, entries[1].Status)
	assert.Empty(t, entries[0].TraceID)
}
