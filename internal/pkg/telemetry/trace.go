package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers of the span active in a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars), empty without a span.
	TraceID string
	// SpanID is the W3C span ID (16 lowercase hex chars).
	SpanID string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty when
// no valid span is present, e.g. when tracing is disabled.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}
