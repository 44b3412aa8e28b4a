package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the W3C trace context of a span, detached from any context.Context
// so it can ride along with queued work.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Traceparent: carrier["traceparent"], Tracestate: carrier["tracestate"]}
}

// Restore puts the captured trace context back onto ctx.
func (tc TraceContext) Restore(ctx context.Context) context.Context {
	if tc.Traceparent == "" && tc.Tracestate == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{
		"traceparent": tc.Traceparent,
		"tracestate":  tc.Tracestate,
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
