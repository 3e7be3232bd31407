package bank

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"swiftremit/core/state"
)

var (
	// ErrInsufficientBalance is returned when the debited account cannot cover
	// the transfer.
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("bank: amount must not be negative")
	// ErrBalanceOverflow is returned when a credit would exceed 256 bits.
	ErrBalanceOverflow = errors.New("bank: balance overflow")
)

var balancePrefix = []byte("bank/balance/")

func balanceKey(token, owner [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(token)+len(owner))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], token[:])
	copy(buf[len(balancePrefix)+len(token):], owner[:])
	return buf
}

type ledgerState interface {
	Persistent() state.KV
}

// Ledger keeps token balances in the persistent tier. Writes go through the
// same state journal as the settlement engine, so a transfer is rolled back
// together with the invocation that issued it.
type Ledger struct {
	state ledgerState
}

// NewLedger returns a ledger bound to st.
func NewLedger(st ledgerState) *Ledger {
	return &Ledger{state: st}
}

func (l *Ledger) kv() (state.KV, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("bank: state not configured")
	}
	return l.state.Persistent(), nil
}

func (l *Ledger) balance(kv state.KV, token, owner [20]byte) (*uint256.Int, error) {
	stored := new(big.Int)
	ok, err := kv.Get(balanceKey(token, owner), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	value, overflow := uint256.FromBig(stored)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	return value, nil
}

func (l *Ledger) setBalance(kv state.KV, token, owner [20]byte, value *uint256.Int) error {
	if value.IsZero() {
		return kv.Delete(balanceKey(token, owner))
	}
	return kv.Put(balanceKey(token, owner), value.ToBig())
}

func toUint256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil {
		return new(uint256.Int), nil
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	return value, nil
}

// BalanceOf returns the balance owner holds in token.
func (l *Ledger) BalanceOf(token, owner [20]byte) (*big.Int, error) {
	kv, err := l.kv()
	if err != nil {
		return nil, err
	}
	value, err := l.balance(kv, token, owner)
	if err != nil {
		return nil, err
	}
	return value.ToBig(), nil
}

// Mint credits amount to owner.
func (l *Ledger) Mint(token, owner [20]byte, amount *big.Int) error {
	kv, err := l.kv()
	if err != nil {
		return err
	}
	delta, err := toUint256(amount)
	if err != nil {
		return err
	}
	current, err := l.balance(kv, token, owner)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(current, delta)
	if overflow {
		return ErrBalanceOverflow
	}
	return l.setBalance(kv, token, owner, updated)
}

// Transfer moves amount of token from one account to another. Nothing is
// written unless both legs succeed.
func (l *Ledger) Transfer(token, from, to [20]byte, amount *big.Int) error {
	kv, err := l.kv()
	if err != nil {
		return err
	}
	delta, err := toUint256(amount)
	if err != nil {
		return err
	}
	if delta.IsZero() || from == to {
		return nil
	}
	fromBal, err := l.balance(kv, token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(delta) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBal.Dec(), delta.Dec())
	}
	toBal, err := l.balance(kv, token, to)
	if err != nil {
		return err
	}
	credited, overflow := new(uint256.Int).AddOverflow(toBal, delta)
	if overflow {
		return ErrBalanceOverflow
	}
	debited := new(uint256.Int).Sub(fromBal, delta)
	if err := l.setBalance(kv, token, from, debited); err != nil {
		return err
	}
	return l.setBalance(kv, token, to, credited)
}
