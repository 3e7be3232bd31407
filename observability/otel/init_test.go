package otel

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), Config{Traces: true}); err == nil {
		t.Fatalf("expected missing service name to fail")
	}
}

func TestSettlementResource(t *testing.T) {
	res, err := settlementResource(Config{ServiceName: "remit-audit", Environment: "staging", Contract: "remit1xyz"})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	want := map[attribute.Key]string{
		"service.name":           "remit-audit",
		"service.namespace":      Namespace,
		"deployment.environment": "staging",
		"remit.module":           "remit",
		"remit.contract":         "remit1xyz",
	}
	set := res.Set()
	for key, value := range want {
		got, ok := set.Value(key)
		if !ok || got.AsString() != value {
			t.Fatalf("attribute %s = %q (present=%v), want %q", key, got.AsString(), ok, value)
		}
	}
}

func TestSamplerRatio(t *testing.T) {
	params := sdktrace.SamplingParameters{ParentContext: context.Background(), Name: "remit.confirm_payout"}
	for _, ratio := range []float64{0, 1, 2} {
		if got := sampler(ratio).ShouldSample(params).Decision; got != sdktrace.RecordAndSample {
			t.Fatalf("ratio %v: expected every invocation sampled, got %v", ratio, got)
		}
	}
	if desc := sampler(0.25).Description(); desc == sampler(1).Description() {
		t.Fatalf("fractional ratio must use a ratio sampler, got %q", desc)
	}
}

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" authorization=Bearer x , broken, =skip,tenant=remit ")
	if len(headers) != 2 {
		t.Fatalf("unexpected headers %v", headers)
	}
	if headers["authorization"] != "Bearer x" || headers["tenant"] != "remit" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestInstrumentsRecordInvocation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	inst, err := NewInstruments(provider.Meter(TracerName))
	if err != nil {
		t.Fatalf("instruments: %v", err)
	}
	ctx := context.Background()
	inst.RecordInvocation(ctx, "confirm_payout", "ok", "", 3*time.Millisecond, 1)
	inst.RecordInvocation(ctx, "confirm_payout", "rejected", "DuplicateSettlement", time.Millisecond, 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	if totals["swiftremit.invocations"] != 2 || totals["swiftremit.events"] != 1 {
		t.Fatalf("unexpected totals %v", totals)
	}

	var nilInst *Instruments
	nilInst.RecordInvocation(ctx, "pause", "ok", "", 0, 0)
}
