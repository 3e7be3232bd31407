package remit

import (
	"errors"
	"math/big"
	"testing"

	remiterrors "swiftremit/core/errors"
	"swiftremit/core/events"
	"swiftremit/core/state"
	"swiftremit/crypto"
	"swiftremit/native/bank"
	"swiftremit/storage"
)

type harness struct {
	t        *testing.T
	db       *storage.MemDB
	mgr      *state.Manager
	engine   *Engine
	bank     *bank.Ledger
	recorder *events.Recorder
	now      uint64
	admin    [20]byte
	token    [20]byte
	contract [20]byte
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr := state.NewManager(db)
	h := &harness{
		t:        t,
		db:       db,
		mgr:      mgr,
		engine:   NewEngine(),
		bank:     bank.NewLedger(mgr),
		recorder: &events.Recorder{},
		now:      1_000,
		admin:    newTestAddress(0xA1),
		token:    newTestAddress(0x70),
		contract: newTestAddress(0xC0),
	}
	h.engine.SetState(mgr)
	h.engine.SetEmitter(h.recorder)
	h.engine.SetTokenTransfer(h.bank)
	h.engine.SetContractAddress(h.contract)
	h.engine.SetNowFunc(func() uint64 { return h.now })
	return h
}

// initialized returns a harness with the contract initialised at feeBps.
func initialized(t *testing.T, feeBps uint32) *harness {
	t.Helper()
	h := newHarness(t)
	if err := h.as(h.admin, func() error { return h.engine.Initialize(h.admin, h.token, feeBps) }); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return h
}

// as runs fn with signer authorized and applies the same commit or rollback
// the host would.
func (h *harness) as(signer [20]byte, fn func() error) error {
	h.engine.SetAuthorizer(crypto.Authorize(signer))
	defer h.engine.SetAuthorizer(nil)
	if err := fn(); err != nil {
		h.mgr.Reset()
		return err
	}
	if err := h.mgr.Commit(); err != nil {
		h.t.Fatalf("commit: %v", err)
	}
	return nil
}

func (h *harness) fund(owner [20]byte, amount int64) {
	h.t.Helper()
	if err := h.bank.Mint(h.token, owner, big.NewInt(amount)); err != nil {
		h.t.Fatalf("mint: %v", err)
	}
	if err := h.mgr.Commit(); err != nil {
		h.t.Fatalf("commit: %v", err)
	}
}

func (h *harness) balance(owner [20]byte) int64 {
	h.t.Helper()
	bal, err := h.bank.BalanceOf(h.token, owner)
	if err != nil {
		h.t.Fatalf("balance: %v", err)
	}
	return bal.Int64()
}

func expectCode(t *testing.T, err error, want *remiterrors.Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestInitialize(t *testing.T) {
	h := initialized(t, 50)

	fee, err := h.engine.FeeBps()
	if err != nil || fee != 50 {
		t.Fatalf("fee bps: %d %v", fee, err)
	}
	count, err := h.engine.AdminCount()
	if err != nil || count != 1 {
		t.Fatalf("admin count: %d %v", count, err)
	}
	cooldown, err := h.engine.RateLimitCooldown()
	if err != nil || cooldown != DefaultCooldown {
		t.Fatalf("cooldown: %d %v", cooldown, err)
	}
	listed, err := h.engine.IsTokenWhitelisted(h.token)
	if err != nil || !listed {
		t.Fatalf("settlement token must be whitelisted: %v %v", listed, err)
	}
	version, ok, err := h.mgr.StateVersion()
	if err != nil || !ok || version != state.StateVersion {
		t.Fatalf("state version: %d %v %v", version, ok, err)
	}
	if len(h.recorder.OfType(EventTypeInitialized)) != 1 {
		t.Fatalf("expected initialized event")
	}

	err = h.as(h.admin, func() error { return h.engine.Initialize(h.admin, h.token, 10) })
	expectCode(t, err, remiterrors.ErrAlreadyInitialized)
}

func TestInitializeValidation(t *testing.T) {
	h := newHarness(t)
	other := newTestAddress(0x99)

	err := h.as(other, func() error { return h.engine.Initialize(h.admin, h.token, 50) })
	expectCode(t, err, remiterrors.ErrUnauthorized)

	err = h.as(h.admin, func() error { return h.engine.Initialize(h.admin, h.token, MaxFeeBps+1) })
	expectCode(t, err, remiterrors.ErrInvalidFeeBps)

	if len(h.db.Keys()) != 0 {
		t.Fatalf("failed initialization must not persist state")
	}
	_, err = h.engine.FeeBps()
	expectCode(t, err, remiterrors.ErrNotInitialized)
}

func TestOperationsRequireInitialization(t *testing.T) {
	h := newHarness(t)
	err := h.as(h.admin, func() error { return h.engine.Pause(h.admin) })
	expectCode(t, err, remiterrors.ErrNotInitialized)
	err = h.as(h.admin, func() error {
		_, err := h.engine.ConfirmPayout(h.admin, 1, newTestAddress(0x02), big.NewInt(10), "USD", "US")
		return err
	})
	expectCode(t, err, remiterrors.ErrNotInitialized)
}

func TestUpdateFee(t *testing.T) {
	h := initialized(t, 50)
	if err := h.as(h.admin, func() error { return h.engine.UpdateFee(h.admin, 125) }); err != nil {
		t.Fatalf("update fee: %v", err)
	}
	fee, _ := h.engine.FeeBps()
	if fee != 125 {
		t.Fatalf("expected 125 bps, got %d", fee)
	}
	err := h.as(h.admin, func() error { return h.engine.UpdateFee(h.admin, 10_001) })
	expectCode(t, err, remiterrors.ErrInvalidFeeBps)

	stranger := newTestAddress(0x55)
	err = h.as(stranger, func() error { return h.engine.UpdateFee(stranger, 10) })
	expectCode(t, err, remiterrors.ErrUnauthorized)
}

func TestAdminRequiresSignature(t *testing.T) {
	h := initialized(t, 50)
	// The admin address is passed but a different key signed.
	err := h.as(newTestAddress(0x42), func() error { return h.engine.Pause(h.admin) })
	expectCode(t, err, remiterrors.ErrUnauthorized)
	paused, _ := h.engine.IsPaused()
	if paused {
		t.Fatalf("unauthorized pause must not apply")
	}
}

func TestPauseToggle(t *testing.T) {
	h := initialized(t, 50)
	if err := h.as(h.admin, func() error { return h.engine.Pause(h.admin) }); err != nil {
		t.Fatalf("pause: %v", err)
	}
	paused, _ := h.engine.IsPaused()
	if !paused {
		t.Fatalf("expected paused")
	}
	if err := h.as(h.admin, func() error { return h.engine.Unpause(h.admin) }); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	paused, _ = h.engine.IsPaused()
	if paused {
		t.Fatalf("expected running")
	}
	if len(h.recorder.OfType(EventTypePaused)) != 1 || len(h.recorder.OfType(EventTypeUnpaused)) != 1 {
		t.Fatalf("expected pause and unpause events")
	}
}

func TestEngineWithoutState(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.IsAdmin(newTestAddress(0x01)); !errors.Is(err, errNilState) {
		t.Fatalf("expected errNilState, got %v", err)
	}
}
