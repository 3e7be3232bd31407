package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments are the OTLP counterparts of the host's Prometheus collectors.
type Instruments struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
	events      metric.Int64Counter
}

// NewInstruments creates the settlement instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	invocations, err := meter.Int64Counter("swiftremit.invocations",
		metric.WithDescription("Settlement invocations by operation, outcome and error code."),
		metric.WithUnit("{invocation}"))
	if err != nil {
		return nil, fmt.Errorf("otel: invocations counter: %w", err)
	}
	duration, err := meter.Float64Histogram("swiftremit.invocation.duration",
		metric.WithDescription("Time spent executing and committing an invocation."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("otel: duration histogram: %w", err)
	}
	events, err := meter.Int64Counter("swiftremit.events",
		metric.WithDescription("Contract events released after commit."),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("otel: events counter: %w", err)
	}
	return &Instruments{invocations: invocations, duration: duration, events: events}, nil
}

// RecordInvocation records one finished invocation. code is empty unless the
// invocation was rejected with a classified error.
func (i *Instruments) RecordInvocation(ctx context.Context, op, outcome, code string, elapsed time.Duration, events int) {
	if i == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("remit.op", op),
		attribute.String("remit.outcome", outcome),
	}
	if code != "" {
		attrs = append(attrs, attribute.String("remit.code", code))
	}
	set := metric.WithAttributes(attrs...)
	i.invocations.Add(ctx, 1, set)
	i.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs[0]))
	if events > 0 {
		i.events.Add(ctx, int64(events), metric.WithAttributes(attrs[0]))
	}
}
