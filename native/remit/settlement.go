package remit

import (
	"fmt"
	"math"
	"math/big"

	remiterrors "swiftremit/core/errors"
)

var bpsDenominator = big.NewInt(10_000)

// ComputeFee returns floor(amount * feeBps / 10000).
func ComputeFee(amount *big.Int, feeBps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || feeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(feeBps)))
	return fee.Quo(fee, bpsDenominator)
}

// CreateRemittance opens a remittance towards a registered payout agent and
// returns its id. The remittance is settled later through ConfirmPayout.
func (e *Engine) CreateRemittance(sender, recipient [20]byte, amount *big.Int, currency, country string) (uint64, error) {
	if err := e.requireAuth(sender); err != nil {
		return 0, err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	if err := validateAmount(amount); err != nil {
		return 0, err
	}
	cur, ctry, err := validateCorridor(currency, country)
	if err != nil {
		return 0, err
	}
	if err := guardPaused(cfg); err != nil {
		return 0, err
	}
	registered, err := e.IsAgentRegistered(recipient)
	if err != nil {
		return 0, err
	}
	if !registered {
		return 0, remiterrors.ErrAgentNotRegistered
	}
	if cfg.Counter == math.MaxUint64 {
		return 0, remiterrors.ErrOverflow
	}
	rem := &Remittance{
		ID:        cfg.Counter + 1,
		Sender:    sender,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Fee:       big.NewInt(0),
		Currency:  cur,
		Country:   ctry,
		Status:    StatusCreated,
		CreatedAt: e.now(),
	}
	if err := e.storeRemittance(rem); err != nil {
		return 0, err
	}
	cfg.Counter = rem.ID
	if err := e.saveConfig(cfg); err != nil {
		return 0, err
	}
	e.emit(newRemittanceEvent(EventTypeRemittanceCreated, rem))
	return rem.ID, nil
}

// ConfirmPayout settles remittance id exactly once. Preconditions are checked
// in a fixed order and every one of them runs before any balance moves. An id
// that does not exist yet must be the next counter value; an existing
// remittance must match the supplied terms.
func (e *Engine) ConfirmPayout(sender [20]byte, id uint64, recipient [20]byte, amount *big.Int, currency, country string) (*Remittance, error) {
	if err := e.requireAuth(sender); err != nil {
		return nil, err
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, remiterrors.ErrRemittanceNotFound
	}
	if err := guardPaused(cfg); err != nil {
		return nil, err
	}
	if err := e.requireWhitelisted(cfg.Token); err != nil {
		return nil, err
	}
	settled, err := e.IsSettled(id)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, remiterrors.ErrDuplicateSettlement
	}

	if recipient == ([20]byte{}) {
		return nil, remiterrors.ErrInvalidAddress
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	cur, ctry, err := validateCorridor(currency, country)
	if err != nil {
		return nil, err
	}
	existing, found, err := e.loadRemittance(id)
	if err != nil {
		return nil, err
	}
	if found {
		if existing.Status != StatusCreated {
			return nil, remiterrors.ErrInvalidStatus
		}
		if existing.Sender != sender || existing.Recipient != recipient ||
			existing.Amount.Cmp(amount) != 0 || existing.Currency != cur || existing.Country != ctry {
			return nil, remiterrors.ErrRemittanceMismatch
		}
	} else if cfg.Counter == math.MaxUint64 || id != cfg.Counter+1 {
		return nil, remiterrors.ErrRemittanceNotFound
	}
	now := e.now()
	if err := e.checkRateLimit(cfg, sender, now); err != nil {
		return nil, err
	}
	if err := e.checkDailyLimit(sender, cur, ctry, amount, now); err != nil {
		return nil, err
	}

	fee := ComputeFee(amount, cfg.FeeBps)
	accumulated := new(big.Int).Add(cloneBigInt(cfg.AccumulatedFees), fee)
	if err := checkAmountBounds(accumulated); err != nil {
		return nil, err
	}
	payout := new(big.Int).Sub(amount, fee)
	if err := e.transfer(cfg.Token, sender, recipient, payout); err != nil {
		return nil, err
	}
	if err := e.transfer(cfg.Token, sender, e.contract, fee); err != nil {
		return nil, err
	}

	rem := &Remittance{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Fee:       fee,
		Currency:  cur,
		Country:   ctry,
		Status:    StatusSettled,
		CreatedAt: now,
	}
	if found {
		rem.CreatedAt = existing.CreatedAt
	}
	if err := e.storeRemittance(rem); err != nil {
		return nil, err
	}
	if err := e.markSettled(id); err != nil {
		return nil, err
	}
	record := TransferRecord{Timestamp: now, Amount: new(big.Int).Set(amount), Currency: cur, Country: ctry}
	if err := e.recordTransfer(sender, record); err != nil {
		return nil, err
	}
	cfg.AccumulatedFees = accumulated
	if id > cfg.Counter {
		cfg.Counter = id
	}
	if err := e.recordSettlementTime(sender, now); err != nil {
		return nil, err
	}
	if err := e.saveConfig(cfg); err != nil {
		return nil, err
	}
	e.emit(newRemittanceEvent(EventTypeRemittanceSettled, rem))
	return rem.Clone(), nil
}

// WithdrawFees pays accumulated platform fees out of contract custody.
func (e *Engine) WithdrawFees(caller, to [20]byte, amount *big.Int) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return remiterrors.ErrInvalidAddress
	}
	accumulated := cloneBigInt(cfg.AccumulatedFees)
	if accumulated.Sign() <= 0 {
		return remiterrors.ErrNoFeesToWithdraw
	}
	if amount.Cmp(accumulated) > 0 {
		return remiterrors.ErrInsufficientFees
	}
	if err := e.transfer(cfg.Token, e.contract, to, amount); err != nil {
		return err
	}
	cfg.AccumulatedFees = accumulated.Sub(accumulated, amount)
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newFeesWithdrawnEvent(caller, to, amount, cfg.AccumulatedFees))
	return nil
}

func (e *Engine) transfer(token, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if e.tokens == nil {
		return fmt.Errorf("%w: token transfer not configured", remiterrors.ErrTransferFailed)
	}
	if err := e.tokens.Transfer(token, from, to, amount); err != nil {
		return fmt.Errorf("%w: %v", remiterrors.ErrTransferFailed, err)
	}
	return nil
}

// Remittance returns the stored remittance.
func (e *Engine) Remittance(id uint64) (*Remittance, error) {
	rem, ok, err := e.loadRemittance(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, remiterrors.ErrRemittanceNotFound
	}
	return rem, nil
}

// IsSettled reports whether the dedup marker for id is set.
func (e *Engine) IsSettled(id uint64) (bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return false, err
	}
	return kv.Has(settlementKey(id))
}

// AccumulatedFees returns the platform fees held in custody.
func (e *Engine) AccumulatedFees() (*big.Int, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	return cloneBigInt(cfg.AccumulatedFees), nil
}

// RemittanceCounter returns the highest remittance id allocated so far.
func (e *Engine) RemittanceCounter() (uint64, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.Counter, nil
}

func (e *Engine) loadRemittance(id uint64) (*Remittance, bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return nil, false, err
	}
	var rem Remittance
	ok, err := kv.Get(remittanceKey(id), &rem)
	if err != nil || !ok {
		return nil, false, err
	}
	rem.Amount = cloneBigInt(rem.Amount)
	rem.Fee = cloneBigInt(rem.Fee)
	return &rem, true, nil
}

func (e *Engine) storeRemittance(rem *Remittance) error {
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	return kv.Put(remittanceKey(rem.ID), rem)
}

func (e *Engine) markSettled(id uint64) error {
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	return kv.Put(settlementKey(id), true)
}
