package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dealerforge"

// Metrics holds the DealerForge metric instruments.
type Metrics struct {
	TxTotal       metric.Int64Counter
	TxDuration    metric.Float64Histogram
	GateDecisions metric.Int64Counter
	StatusLookups metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TxTotal, err = meter.Int64Counter("dealerforge.tx.total",
		metric.WithDescription("Transactions run, by operation and outcome"))
	if err != nil {
		return nil, err
	}

	m.TxDuration, err = meter.Float64Histogram("dealerforge.tx.duration_seconds",
		metric.WithDescription("Transaction duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.GateDecisions, err = meter.Int64Counter("dealerforge.gate.decisions",
		metric.WithDescription("Access gate decisions, by outcome"))
	if err != nil {
		return nil, err
	}

	m.StatusLookups, err = meter.Int64Counter("dealerforge.gate.status_lookups",
		metric.WithDescription("Tenant status lookups, by source (cache or store)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTx records one finished transaction. Safe on a nil receiver.
func (m *Metrics) RecordTx(ctx context.Context, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", outcome))
	m.TxTotal.Add(ctx, 1, attrs)
	m.TxDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordGate records one access gate decision. Safe on a nil receiver.
func (m *Metrics) RecordGate(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.GateDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordStatusLookup records where a tenant status came from. Safe on a nil receiver.
func (m *Metrics) RecordStatusLookup(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.StatusLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
