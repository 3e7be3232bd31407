package remit

import (
	"math/big"

	remiterrors "swiftremit/core/errors"
)

const (
	// MaxFeeBps caps the platform fee at 100%.
	MaxFeeBps uint32 = 10_000
	// DefaultCooldown is the per-sender cooldown installed by Initialize.
	DefaultCooldown uint64 = 3600
	// DailyWindowSeconds is the trailing window used by the daily limit.
	DailyWindowSeconds uint64 = 86_400
	// maxAmountBits bounds amounts to the signed 128-bit range.
	maxAmountBits = 127
)

// Status tracks the lifecycle of a remittance. Settled is terminal.
type Status uint8

const (
	StatusCreated Status = iota + 1
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	return s == StatusCreated || s == StatusSettled
}

// Remittance is one cross-border transfer owned by the settlement ledger.
type Remittance struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Amount    *big.Int
	Fee       *big.Int
	Currency  string
	Country   string
	Status    Status
	CreatedAt uint64
}

// Clone returns a deep copy of the remittance.
func (r *Remittance) Clone() *Remittance {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Amount = cloneBigInt(r.Amount)
	clone.Fee = cloneBigInt(r.Fee)
	return &clone
}

// TransferRecord is an entry in a user's settlement history consumed by the
// daily limit tracker.
type TransferRecord struct {
	Timestamp uint64
	Amount    *big.Int
	Currency  string
	Country   string
}

// DailyLimit caps the trailing 24 hour volume for one corridor.
type DailyLimit struct {
	Currency string
	Country  string
	Limit    *big.Int
}

// MigrationState tracks a hash-verified snapshot import. Batches are numbered
// from 1.
type MigrationState struct {
	Active       bool
	Completed    bool
	SnapshotHash [32]byte
	TotalBatches uint32
	LastBatch    uint32
	Digest       [32]byte
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func checkAmountBounds(v *big.Int) error {
	if v != nil && v.BitLen() > maxAmountBits {
		return remiterrors.ErrOverflow
	}
	return nil
}

func validateAmount(v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return remiterrors.ErrInvalidAmount
	}
	return checkAmountBounds(v)
}

func validateCorridor(currency, country string) (string, string, error) {
	cur := normalizeCode(currency)
	ctry := normalizeCode(country)
	if cur == "" || ctry == "" {
		return "", "", remiterrors.ErrInvalidCorridor
	}
	return cur, ctry, nil
}
