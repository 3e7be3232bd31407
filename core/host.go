package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	remiterrors "swiftremit/core/errors"
	"swiftremit/core/events"
	"swiftremit/core/state"
	"swiftremit/crypto"
	"swiftremit/native/bank"
	"swiftremit/native/remit"
	"swiftremit/observability"
	"swiftremit/observability/logging"
	"swiftremit/observability/metrics"
	remitotel "swiftremit/observability/otel"
	"swiftremit/storage"
)

// ErrHostClosed is returned for invocations after Close.
var ErrHostClosed = errors.New("core: host closed")

// Invocation describes one call into the contract.
type Invocation struct {
	// Op names the operation for logs, metrics and spans.
	Op string
	// Caller is the address the call is made on behalf of. It is only used
	// for logging; authorization comes from Authorizer.
	Caller [20]byte
	// Authorizer holds the identities verified for this call.
	Authorizer crypto.Authorizer
	// Timestamp overrides the host clock when non-zero.
	Timestamp uint64
}

// Runtime is what an invocation body operates on.
type Runtime struct {
	Engine *remit.Engine
	Bank   *bank.Ledger
}

// Option customises a Host.
type Option func(*Host)

// WithEmitter forwards committed events to sink.
func WithEmitter(sink events.Emitter) Option {
	return func(h *Host) { h.sink = sink }
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() uint64) Option {
	return func(h *Host) {
		if now != nil {
			h.clock = now
		}
	}
}

// WithContractAddress sets the fee custody account.
func WithContractAddress(addr [20]byte) Option {
	return func(h *Host) { h.contract = addr }
}

// WithTracer replaces the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *Host) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

// WithMeter replaces the global meter used for the OTLP instruments.
func WithMeter(meter metric.Meter) Option {
	return func(h *Host) {
		if meter != nil {
			h.meter = meter
		}
	}
}

// Host serializes invocations against one state store. Every invocation runs
// against a write journal that is committed in a single batch on success and
// discarded on any error, so a failed call leaves the store byte-identical.
type Host struct {
	mu       sync.Mutex
	db       storage.Database
	state    *state.Manager
	runtime  *Runtime
	sink     events.Emitter
	logger   *slog.Logger
	metrics  *metrics.RemitMetrics
	tracer   trace.Tracer
	meter    metric.Meter
	otlp     *remitotel.Instruments
	clock    func() uint64
	contract [20]byte
	closed   bool
}

// NewHost binds a host to db. It refuses state written by an incompatible
// schema version.
func NewHost(db storage.Database, opts ...Option) (*Host, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	mgr := state.NewManager(db)
	if err := mgr.EnsureStateVersion(false); err != nil {
		return nil, err
	}
	h := &Host{
		db:      db,
		state:   mgr,
		sink:    events.NoopEmitter{},
		logger:  slog.Default(),
		metrics: metrics.Remit(),
		tracer:  remitotel.Tracer(),
		meter:   remitotel.Meter(),
		clock:   func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(h)
	}
	instruments, err := remitotel.NewInstruments(h.meter)
	if err != nil {
		return nil, err
	}
	h.otlp = instruments
	engine := remit.NewEngine()
	ledger := bank.NewLedger(mgr)
	engine.SetState(mgr)
	engine.SetTokenTransfer(ledger)
	engine.SetContractAddress(h.contract)
	h.runtime = &Runtime{Engine: engine, Bank: ledger}
	return h, nil
}

// Invoke runs fn as one atomic invocation.
func (h *Host) Invoke(ctx context.Context, inv Invocation, fn func(*Runtime) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}

	id := uuid.NewString()
	ctx, span := h.tracer.Start(ctx, "remit."+inv.Op, trace.WithAttributes(
		attribute.String("remit.op", inv.Op),
		attribute.String("remit.invocation", id),
	))
	defer span.End()

	now := inv.Timestamp
	if now == 0 {
		now = h.clock()
	}
	buffer := &events.Buffer{}
	engine := h.runtime.Engine
	engine.SetAuthorizer(inv.Authorizer)
	engine.SetEmitter(buffer)
	engine.SetNowFunc(func() uint64 { return now })
	defer func() {
		engine.SetAuthorizer(nil)
		engine.SetEmitter(nil)
	}()

	committed := false
	defer func() {
		// Also runs when fn panics, so no write outlives its invocation.
		if !committed {
			h.state.Reset()
			buffer.Discard()
		}
	}()

	start := time.Now()
	err := fn(h.runtime)
	dirty := h.state.Dirty()
	if err == nil {
		err = h.state.Commit()
	}
	elapsed := time.Since(start)
	if err != nil {
		h.recordFailure(ctx, span, inv, id, err, elapsed)
		return err
	}
	committed = true

	emitted := buffer.Len()
	buffer.Flush(eventFanout{sink: h.sink})
	h.metrics.ObserveInvocation(inv.Op, "ok", elapsed)
	h.metrics.ObserveCommit(dirty)
	h.otlp.RecordInvocation(ctx, inv.Op, "ok", "", elapsed, emitted)
	h.refreshFeeGauge()
	span.SetAttributes(attribute.Int("remit.events", emitted), attribute.Int("remit.keys", dirty))
	span.SetStatus(codes.Ok, "")
	h.logger.Debug("invocation committed",
		slog.String("component", "remit"),
		slog.String("op", inv.Op),
		slog.String("invocation", id),
		logging.AddressField("caller", crypto.FormatAddress(inv.Caller)),
		slog.Int("keys", dirty),
		slog.Int("events", emitted),
	)
	return nil
}

func (h *Host) recordFailure(ctx context.Context, span trace.Span, inv Invocation, id string, err error, elapsed time.Duration) {
	span.RecordError(err)
	code, classified := remiterrors.CodeOf(err)
	if classified {
		span.SetAttributes(attribute.Int("remit.code", int(code)))
		span.SetStatus(codes.Error, code.String())
		h.metrics.ObserveInvocation(inv.Op, "rejected", elapsed)
		h.metrics.ObserveRejection(inv.Op, code.String())
		h.otlp.RecordInvocation(ctx, inv.Op, "rejected", code.String(), elapsed, 0)
		h.logger.InfoContext(ctx, "invocation rejected",
			slog.String("component", "remit"),
			slog.String("op", inv.Op),
			slog.String("invocation", id),
			slog.String("code", code.String()),
			logging.AddressField("caller", crypto.FormatAddress(inv.Caller)),
			slog.String("error", err.Error()),
		)
		return
	}
	span.SetStatus(codes.Error, "internal")
	h.metrics.ObserveInvocation(inv.Op, "error", elapsed)
	h.otlp.RecordInvocation(ctx, inv.Op, "error", "", elapsed, 0)
	h.logger.ErrorContext(ctx, "invocation failed",
		slog.String("component", "remit"),
		slog.String("op", inv.Op),
		slog.String("invocation", id),
		logging.AddressField("caller", crypto.FormatAddress(inv.Caller)),
		slog.String("error", err.Error()),
	)
}

func (h *Host) refreshFeeGauge() {
	fees, err := h.runtime.Engine.AccumulatedFees()
	if err != nil {
		return
	}
	value, _ := new(big.Float).SetInt(fees).Float64()
	h.metrics.SetAccumulatedFees(value)
}

// Query runs a read-only fn. Any write it attempts is discarded.
func (h *Host) Query(fn func(*Runtime) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	engine := h.runtime.Engine
	now := h.clock()
	engine.SetNowFunc(func() uint64 { return now })
	defer h.state.Reset()
	return fn(h.runtime)
}

// Close releases the backend. Later invocations fail with ErrHostClosed.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.db.Close()
}

// eventFanout counts committed events before forwarding them.
type eventFanout struct {
	sink events.Emitter
}

func (f eventFanout) Emit(evt events.Event) {
	observability.Events().RecordEvent(evt.EventType())
	if f.sink != nil {
		f.sink.Emit(evt)
	}
}
