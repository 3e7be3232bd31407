package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	remiterrors "swiftremit/core/errors"
	"swiftremit/core/events"
	"swiftremit/crypto"
	"swiftremit/native/remit"
	"swiftremit/observability/metrics"
	"swiftremit/storage"
)

var (
	hostAdmin    = [20]byte{0xA1}
	hostToken    = [20]byte{0x70}
	hostContract = [20]byte{0xC0}
	hostSender   = [20]byte{0x51}
	hostAgent    = [20]byte{0xB2}
)

type hostFixture struct {
	host     *Host
	db       *storage.MemDB
	recorder *events.Recorder
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	logs     *bytes.Buffer
	now      uint64
}

func newHostFixture(t *testing.T) *hostFixture {
	t.Helper()
	f := &hostFixture{
		db:       storage.NewMemDB(),
		recorder: &events.Recorder{},
		spans:    tracetest.NewSpanRecorder(),
		reader:   sdkmetric.NewManualReader(),
		logs:     &bytes.Buffer{},
		now:      5_000,
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.spans))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	meters := sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.reader))
	t.Cleanup(func() { _ = meters.Shutdown(context.Background()) })
	host, err := NewHost(f.db,
		WithEmitter(f.recorder),
		WithLogger(slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithClock(func() uint64 { return f.now }),
		WithContractAddress(hostContract),
		WithTracer(provider.Tracer("test")),
		WithMeter(meters.Meter("test")),
	)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	t.Cleanup(host.Close)
	f.host = host
	return f
}

func (f *hostFixture) invoke(op string, signer [20]byte, fn func(*Runtime) error) error {
	return f.host.Invoke(context.Background(), Invocation{
		Op:         op,
		Caller:     signer,
		Authorizer: crypto.Authorize(signer),
	}, fn)
}

func (f *hostFixture) setup(t *testing.T) {
	t.Helper()
	steps := []struct {
		op string
		fn func(*Runtime) error
	}{
		{"initialize", func(rt *Runtime) error { return rt.Engine.Initialize(hostAdmin, hostToken, 250) }},
		{"register_agent", func(rt *Runtime) error { return rt.Engine.RegisterAgent(hostAdmin, hostAgent) }},
		{"set_rate_limit", func(rt *Runtime) error { return rt.Engine.SetRateLimitCooldown(hostAdmin, 0) }},
		{"mint", func(rt *Runtime) error { return rt.Bank.Mint(hostToken, hostSender, big.NewInt(100_000)) }},
	}
	for _, step := range steps {
		if err := f.invoke(step.op, hostAdmin, step.fn); err != nil {
			t.Fatalf("%s: %v", step.op, err)
		}
	}
}

func snapshot(db *storage.MemDB) map[string]string {
	out := make(map[string]string)
	for _, key := range db.Keys() {
		value, _ := db.Get([]byte(key))
		out[key] = string(value)
	}
	return out
}

func TestInvokeCommitsAndForwardsEvents(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)
	before := len(f.recorder.Events)

	err := f.invoke("confirm_payout", hostSender, func(rt *Runtime) error {
		_, err := rt.Engine.ConfirmPayout(hostSender, 1, hostAgent, big.NewInt(10_000), "USD", "PH")
		return err
	})
	if err != nil {
		t.Fatalf("confirm payout: %v", err)
	}
	if got := len(f.recorder.OfType(remit.EventTypeRemittanceSettled)); got != 1 {
		t.Fatalf("expected one settled event, got %d", got)
	}
	if len(f.recorder.Events) != before+1 {
		t.Fatalf("unexpected event count %d", len(f.recorder.Events))
	}

	err = f.host.Query(func(rt *Runtime) error {
		bal, err := rt.Bank.BalanceOf(hostToken, hostAgent)
		if err != nil {
			return err
		}
		if bal.Int64() != 9_750 {
			t.Fatalf("unexpected agent balance %s", bal)
		}
		fees, err := rt.Engine.AccumulatedFees()
		if err != nil {
			return err
		}
		if fees.Int64() != 250 {
			t.Fatalf("unexpected accumulated fees %s", fees)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got := testutil.ToFloat64(metrics.Remit().AccumulatedFeesGauge()); got != 250 {
		t.Fatalf("unexpected fee gauge %v", got)
	}
}

func TestInvokeRejectionLeavesStoreUntouched(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)
	before := snapshot(f.db)
	eventCount := len(f.recorder.Events)
	rejections := testutil.ToFloat64(metrics.Remit().RejectionCounter().WithLabelValues("confirm_payout", "AgentNotRegistered"))

	// The payout completes before the invocation fails; both transfer legs
	// and the settlement record must be discarded.
	err := f.invoke("confirm_payout", hostSender, func(rt *Runtime) error {
		if _, err := rt.Engine.ConfirmPayout(hostSender, 1, hostAgent, big.NewInt(10_000), "USD", "PH"); err != nil {
			return err
		}
		return remiterrors.ErrAgentNotRegistered
	})
	if !errors.Is(err, remiterrors.ErrAgentNotRegistered) {
		t.Fatalf("expected AgentNotRegistered, got %v", err)
	}
	after := snapshot(f.db)
	if len(after) != len(before) {
		t.Fatalf("key count changed: %d -> %d", len(before), len(after))
	}
	for key, value := range before {
		if after[key] != value {
			t.Fatalf("key %x changed after rejected invocation", key)
		}
	}
	if len(f.recorder.Events) != eventCount {
		t.Fatalf("events of a rejected invocation must not be forwarded")
	}
	got := testutil.ToFloat64(metrics.Remit().RejectionCounter().WithLabelValues("confirm_payout", "AgentNotRegistered"))
	if got != rejections+1 {
		t.Fatalf("expected rejection counter to advance, got %v -> %v", rejections, got)
	}
	if !bytes.Contains(f.logs.Bytes(), []byte(`"code":"AgentNotRegistered"`)) {
		t.Fatalf("expected rejection log, got %s", f.logs.String())
	}
}

func TestInvokeRecordsSpans(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)
	err := f.invoke("pause", hostSender, func(rt *Runtime) error { return rt.Engine.Pause(hostSender) })
	if !errors.Is(err, remiterrors.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	ended := f.spans.Ended()
	if len(ended) == 0 {
		t.Fatalf("expected spans to be recorded")
	}
	last := ended[len(ended)-1]
	if last.Name() != "remit.pause" {
		t.Fatalf("unexpected span name %q", last.Name())
	}
	if last.Status().Code != codes.Error || last.Status().Description != "Unauthorized" {
		t.Fatalf("unexpected span status %+v", last.Status())
	}
	for _, span := range ended[:len(ended)-1] {
		if span.Status().Code != codes.Ok {
			t.Fatalf("setup span %q not ok: %+v", span.Name(), span.Status())
		}
	}
}

func TestInvokeUsesHostClock(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)
	if err := f.invoke("set_rate_limit", hostAdmin, func(rt *Runtime) error {
		return rt.Engine.SetRateLimitCooldown(hostAdmin, 60)
	}); err != nil {
		t.Fatalf("set cooldown: %v", err)
	}
	pay := func(id uint64) error {
		return f.invoke("confirm_payout", hostSender, func(rt *Runtime) error {
			_, err := rt.Engine.ConfirmPayout(hostSender, id, hostAgent, big.NewInt(1_000), "USD", "PH")
			return err
		})
	}
	if err := pay(1); err != nil {
		t.Fatalf("first payout: %v", err)
	}
	f.now += 30
	if err := pay(2); !errors.Is(err, remiterrors.ErrRateLimitExceeded) {
		t.Fatalf("expected RateLimitExceeded, got %v", err)
	}
	f.now += 31
	if err := pay(2); err != nil {
		t.Fatalf("payout after cooldown: %v", err)
	}
}

func TestQueryDiscardsWrites(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)
	before := snapshot(f.db)
	err := f.host.Query(func(rt *Runtime) error {
		return rt.Bank.Mint(hostToken, hostSender, big.NewInt(1))
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	after := snapshot(f.db)
	for key, value := range before {
		if after[key] != value {
			t.Fatalf("query must not persist writes")
		}
	}
}

func TestClosedHostRejectsInvocations(t *testing.T) {
	f := newHostFixture(t)
	f.host.Close()
	err := f.invoke("pause", hostAdmin, func(rt *Runtime) error { return nil })
	if !errors.Is(err, ErrHostClosed) {
		t.Fatalf("expected ErrHostClosed, got %v", err)
	}
}

func TestInvokeHonoursCancelledContext(t *testing.T) {
	f := newHostFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := f.host.Invoke(ctx, Invocation{Op: "pause"}, func(*Runtime) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancelled invocation to be skipped, got %v", err)
	}
}

func TestInvokePanicDiscardsWrites(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = f.invoke("mint", hostAdmin, func(rt *Runtime) error {
			if err := rt.Bank.Mint(hostToken, hostAgent, big.NewInt(7)); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	// A later successful invocation must not commit the abandoned write.
	if err := f.invoke("pause", hostAdmin, func(rt *Runtime) error { return rt.Engine.Pause(hostAdmin) }); err != nil {
		t.Fatalf("pause: %v", err)
	}
	err := f.host.Query(func(rt *Runtime) error {
		bal, err := rt.Bank.BalanceOf(hostToken, hostAgent)
		if err != nil {
			return err
		}
		if bal.Sign() != 0 {
			t.Fatalf("write from panicked invocation was committed: %s", bal)
		}
		paused, err := rt.Engine.IsPaused()
		if err != nil {
			return err
		}
		if !paused {
			t.Fatalf("pause did not commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
}

func TestInvokeFeedsOTLPInstruments(t *testing.T) {
	f := newHostFixture(t)
	f.setup(t)
	err := f.invoke("pause", hostSender, func(rt *Runtime) error { return rt.Engine.Pause(hostSender) })
	if !errors.Is(err, remiterrors.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := f.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var ok, rejected int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "swiftremit.invocations" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("remit.outcome"))
				switch outcome.AsString() {
				case "ok":
					ok += dp.Value
				case "rejected":
					code, _ := dp.Attributes.Value(attribute.Key("remit.code"))
					if code.AsString() != "Unauthorized" {
						t.Fatalf("unexpected rejection code %q", code.AsString())
					}
					rejected += dp.Value
				}
			}
		}
	}
	if ok != 4 || rejected != 1 {
		t.Fatalf("expected 4 committed and 1 rejected invocation, got %d and %d", ok, rejected)
	}
}
