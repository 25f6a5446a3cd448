package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dealerforge"

// StartTxSpan starts a span for one named store transaction.
func StartTxSpan(ctx context.Context, op, tenantID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tx."+op,
		trace.WithAttributes(
			attribute.String("tx.op", op),
			attribute.String("tenant.id", tenantID),
		),
	)
}

// StartGateSpan starts a span for one access gate evaluation.
func StartGateSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "gate.authenticate")
}

// EndSpan records err on span (if any) and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
