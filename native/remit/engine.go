package remit

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	remiterrors "swiftremit/core/errors"
	"swiftremit/core/events"
	"swiftremit/core/state"
	"swiftremit/core/types"
	"swiftremit/crypto"
	"swiftremit/native/common"
)

// ModuleName identifies the settlement module for pause checks and logs.
const ModuleName = "remit"

var errNilState = errors.New("remit engine: state not configured")

type engineState interface {
	Instance() state.KV
	Persistent() state.KV
	SetStateVersion(version uint32) error
}

// TokenTransfer moves token balances atomically. A failed transfer leaves
// balances untouched.
type TokenTransfer interface {
	Transfer(token, from, to [20]byte, amount *big.Int) error
}

type remitEvent struct {
	evt *types.Event
}

func (e remitEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e remitEvent) Event() *types.Event { return e.evt }

// Engine executes settlement operations against the state store. It holds no
// state of its own between calls; the host binds the authorizer and clock of
// each invocation before running it.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	auth     crypto.Authorizer
	tokens   TokenTransfer
	contract [20]byte
	nowFn    func() uint64
}

// NewEngine creates an engine with a no-op emitter and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   wallClock,
	}
}

func wallClock() uint64 { return uint64(time.Now().Unix()) }

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(st engineState) { e.state = st }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetAuthorizer binds the verified signer set of the current invocation.
func (e *Engine) SetAuthorizer(auth crypto.Authorizer) { e.auth = auth }

// SetTokenTransfer configures the token transfer collaborator.
func (e *Engine) SetTokenTransfer(tokens TokenTransfer) { e.tokens = tokens }

// SetContractAddress configures the custody account that receives fees.
func (e *Engine) SetContractAddress(addr [20]byte) { e.contract = addr }

// ContractAddress returns the fee custody account.
func (e *Engine) ContractAddress() [20]byte { return e.contract }

// SetNowFunc overrides the time source. Passing nil restores the wall clock.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = wallClock
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return wallClock()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(remitEvent{evt: evt})
}

func (e *Engine) instance() (state.KV, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.Instance(), nil
}

func (e *Engine) persistent() (state.KV, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.Persistent(), nil
}

// instanceConfig is the singleton configuration record. It is loaded at the
// start of an operation and saved back once the operation succeeds.
type instanceConfig struct {
	Admin           [20]byte
	AdminCount      uint32
	Token           [20]byte
	FeeBps          uint32
	Counter         uint64
	AccumulatedFees *big.Int
	Paused          bool
	Cooldown        uint64
	CooldownSet     bool
	Migration       MigrationState
	HasMigration    bool
}

// IsPaused implements common.PauseView.
func (c *instanceConfig) IsPaused(module string) bool {
	return c != nil && module == ModuleName && c.Paused
}

func (e *Engine) loadConfig() (*instanceConfig, error) {
	kv, err := e.instance()
	if err != nil {
		return nil, err
	}
	cfg := &instanceConfig{AccumulatedFees: big.NewInt(0)}
	ok, err := kv.Get(legacyAdminKey, &cfg.Admin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, remiterrors.ErrNotInitialized
	}
	if _, err := kv.Get(adminCountKey, &cfg.AdminCount); err != nil {
		return nil, err
	}
	if _, err := kv.Get(settlementTokenKey, &cfg.Token); err != nil {
		return nil, err
	}
	if _, err := kv.Get(feeBpsKey, &cfg.FeeBps); err != nil {
		return nil, err
	}
	if _, err := kv.Get(counterKey, &cfg.Counter); err != nil {
		return nil, err
	}
	fees := new(big.Int)
	if ok, err := kv.Get(accumulatedFeesKey, fees); err != nil {
		return nil, err
	} else if ok {
		cfg.AccumulatedFees = fees
	}
	if _, err := kv.Get(pausedKey, &cfg.Paused); err != nil {
		return nil, err
	}
	if cfg.CooldownSet, err = kv.Get(cooldownKey, &cfg.Cooldown); err != nil {
		return nil, err
	}
	if cfg.HasMigration, err = kv.Get(migrationKey, &cfg.Migration); err != nil {
		return nil, err
	}
	return cfg, nil
}

type kvWrite struct {
	key   []byte
	value interface{}
}

func (e *Engine) saveConfig(cfg *instanceConfig) error {
	if cfg == nil {
		return fmt.Errorf("remit engine: nil config")
	}
	kv, err := e.instance()
	if err != nil {
		return err
	}
	writes := []kvWrite{
		{legacyAdminKey, cfg.Admin},
		{adminCountKey, cfg.AdminCount},
		{settlementTokenKey, cfg.Token},
		{feeBpsKey, cfg.FeeBps},
		{counterKey, cfg.Counter},
		{accumulatedFeesKey, cloneBigInt(cfg.AccumulatedFees)},
		{pausedKey, cfg.Paused},
	}
	if cfg.CooldownSet {
		writes = append(writes, kvWrite{cooldownKey, cfg.Cooldown})
	}
	if cfg.HasMigration {
		writes = append(writes, kvWrite{migrationKey, cfg.Migration})
	}
	for _, w := range writes {
		if err := kv.Put(w.key, w.value); err != nil {
			return err
		}
	}
	return nil
}

// requireAuth verifies the invocation was signed by addr.
func (e *Engine) requireAuth(addr [20]byte) error {
	if e.auth == nil {
		return remiterrors.ErrUnauthorized
	}
	if err := e.auth.RequireAuth(addr); err != nil {
		return remiterrors.ErrUnauthorized
	}
	return nil
}

// RequireAdmin verifies that addr authorized the invocation and holds the
// admin role.
func (e *Engine) RequireAdmin(addr [20]byte) error {
	if err := e.requireAuth(addr); err != nil {
		return err
	}
	return e.requireAdminRole(addr)
}

func (e *Engine) requireAdminRole(addr [20]byte) error {
	ok, err := e.IsAdmin(addr)
	if err != nil {
		return err
	}
	if !ok {
		return remiterrors.ErrUnauthorized
	}
	return nil
}

// adminCall runs the common prologue of admin operations: authorization,
// configuration load and the admin role check.
func (e *Engine) adminCall(caller [20]byte) (*instanceConfig, error) {
	if err := e.requireAuth(caller); err != nil {
		return nil, err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := e.requireAdminRole(caller); err != nil {
		return nil, err
	}
	return cfg, nil
}

func guardPaused(cfg *instanceConfig) error {
	if err := common.Guard(cfg, ModuleName); err != nil {
		if errors.Is(err, common.ErrModulePaused) {
			return remiterrors.ErrContractPaused
		}
		return err
	}
	return nil
}

// Initialize installs the first admin, the settlement token and the platform
// fee. It can run exactly once.
func (e *Engine) Initialize(admin, token [20]byte, feeBps uint32) error {
	if err := e.requireAuth(admin); err != nil {
		return err
	}
	if _, err := e.loadConfig(); err == nil {
		return remiterrors.ErrAlreadyInitialized
	} else if !errors.Is(err, remiterrors.ErrNotInitialized) {
		return err
	}
	if feeBps > MaxFeeBps {
		return remiterrors.ErrInvalidFeeBps
	}
	if admin == ([20]byte{}) || token == ([20]byte{}) {
		return remiterrors.ErrInvalidAddress
	}
	cfg := &instanceConfig{
		Admin:           admin,
		AdminCount:      1,
		Token:           token,
		FeeBps:          feeBps,
		AccumulatedFees: big.NewInt(0),
		Cooldown:        DefaultCooldown,
		CooldownSet:     true,
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	if err := kv.Put(adminRoleKey(admin), true); err != nil {
		return err
	}
	if err := kv.Put(whitelistKey(token), true); err != nil {
		return err
	}
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	if err := e.state.SetStateVersion(state.StateVersion); err != nil {
		return err
	}
	e.emit(newInitializedEvent(admin, token, feeBps))
	return nil
}

// UpdateFee changes the platform fee rate.
func (e *Engine) UpdateFee(caller [20]byte, feeBps uint32) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	if feeBps > MaxFeeBps {
		return remiterrors.ErrInvalidFeeBps
	}
	cfg.FeeBps = feeBps
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newFeeUpdatedEvent(caller, feeBps))
	return nil
}

// Pause halts settlement until Unpause is called.
func (e *Engine) Pause(caller [20]byte) error {
	return e.setPaused(caller, true)
}

// Unpause resumes settlement.
func (e *Engine) Unpause(caller [20]byte) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller [20]byte, paused bool) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	cfg.Paused = paused
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newPauseEvent(caller, paused))
	return nil
}

// IsPaused reports whether settlement is halted.
func (e *Engine) IsPaused() (bool, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return false, err
	}
	return cfg.Paused, nil
}

// FeeBps returns the platform fee rate in basis points.
func (e *Engine) FeeBps() (uint32, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.FeeBps, nil
}

// SettlementToken returns the token settlements are paid in.
func (e *Engine) SettlementToken() ([20]byte, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return [20]byte{}, err
	}
	return cfg.Token, nil
}

// Admin returns the address installed by Initialize.
func (e *Engine) Admin() ([20]byte, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return [20]byte{}, err
	}
	return cfg.Admin, nil
}
