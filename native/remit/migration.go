package remit

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"lukechampine.com/blake3"

	remiterrors "swiftremit/core/errors"
)

// StartMigration opens a snapshot import expected to hash to snapshotHash once
// totalBatches batches have been applied.
func (e *Engine) StartMigration(caller [20]byte, snapshotHash [32]byte, totalBatches uint32) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	if cfg.Migration.Active {
		return remiterrors.ErrMigrationInProgress
	}
	if totalBatches == 0 {
		return remiterrors.ErrInvalidMigrationBatch
	}
	cfg.Migration = MigrationState{
		Active:       true,
		SnapshotHash: snapshotHash,
		TotalBatches: totalBatches,
	}
	cfg.HasMigration = true
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newMigrationEvent(EventTypeMigrationStarted, caller, &cfg.Migration))
	return nil
}

// ImportBatch applies one batch of remittances. Batches must arrive in order
// starting at 1. The final batch verifies the cumulative digest against the
// snapshot hash; on mismatch the call fails and the migration stays active at
// the previous batch.
func (e *Engine) ImportBatch(caller [20]byte, batchNumber uint32, records []Remittance) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	mig := cfg.Migration
	if !mig.Active {
		return remiterrors.ErrMigrationNotActive
	}
	if batchNumber != mig.LastBatch+1 || batchNumber > mig.TotalBatches {
		return remiterrors.ErrInvalidMigrationBatch
	}
	counter, err := e.validateBatch(records, cfg.Counter)
	if err != nil {
		return err
	}
	digest, err := nextDigest(mig.Digest, batchNumber, records)
	if err != nil {
		return err
	}
	for i := range records {
		rec := records[i].Clone()
		if err := e.storeRemittance(rec); err != nil {
			return err
		}
		if rec.Status == StatusSettled {
			if err := e.markSettled(rec.ID); err != nil {
				return err
			}
		}
	}
	cfg.Counter = counter
	mig.LastBatch = batchNumber
	mig.Digest = digest
	if batchNumber == mig.TotalBatches {
		if digest != mig.SnapshotHash {
			return remiterrors.ErrInvalidMigrationHash
		}
		mig.Active = false
		mig.Completed = true
	}
	cfg.Migration = mig
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newBatchImportedEvent(caller, batchNumber, len(records), &mig))
	if mig.Completed {
		e.emit(newMigrationEvent(EventTypeMigrationCompleted, caller, &mig))
	}
	return nil
}

// AbortMigration clears an active migration so a fresh one can start. Data
// from already imported batches is kept.
func (e *Engine) AbortMigration(caller [20]byte) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	if !cfg.Migration.Active {
		return remiterrors.ErrMigrationNotActive
	}
	cfg.Migration.Active = false
	cfg.Migration.Completed = false
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newMigrationEvent(EventTypeMigrationAborted, caller, &cfg.Migration))
	return nil
}

// MigrationStatus returns the current migration record.
func (e *Engine) MigrationStatus() (MigrationState, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return MigrationState{}, err
	}
	return cfg.Migration, nil
}

// ExportSnapshot splits every stored remittance into batches of batchSize and
// returns them together with the hash a receiving instance should expect.
func (e *Engine) ExportSnapshot(batchSize int) ([][]Remittance, [32]byte, error) {
	if batchSize <= 0 {
		return nil, [32]byte{}, fmt.Errorf("remit: batch size must be positive")
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, [32]byte{}, err
	}
	var (
		batches [][]Remittance
		current []Remittance
	)
	for id := uint64(1); cfg.Counter > 0; id++ {
		rem, ok, err := e.loadRemittance(id)
		if err != nil {
			return nil, [32]byte{}, err
		}
		if ok {
			current = append(current, *rem)
			if len(current) == batchSize {
				batches = append(batches, current)
				current = nil
			}
		}
		if id == cfg.Counter {
			break
		}
	}
	if len(current) > 0 || len(batches) == 0 {
		batches = append(batches, current)
	}
	hash, err := SnapshotHash(batches)
	if err != nil {
		return nil, [32]byte{}, err
	}
	return batches, hash, nil
}

// SnapshotHash computes the digest ImportBatch accumulates when the batches are
// imported in order.
func SnapshotHash(batches [][]Remittance) ([32]byte, error) {
	var digest [32]byte
	for i, batch := range batches {
		next, err := nextDigest(digest, uint32(i+1), batch)
		if err != nil {
			return [32]byte{}, err
		}
		digest = next
	}
	return digest, nil
}

func nextDigest(prev [32]byte, batchNumber uint32, records []Remittance) ([32]byte, error) {
	if records == nil {
		records = []Remittance{}
	}
	encoded, err := rlp.EncodeToBytes(records)
	if err != nil {
		return [32]byte{}, fmt.Errorf("remit: encode batch %d: %w", batchNumber, err)
	}
	var num [4]byte
	binary.BigEndian.PutUint32(num[:], batchNumber)
	h := blake3.New(32, nil)
	h.Write(prev[:])
	h.Write(num[:])
	h.Write(encoded)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// validateBatch checks every record before anything is written and returns
// the counter after the batch. Ids stay dense: each id is at most one past the
// highest id seen so far, and no id repeats inside a batch. An id that already
// exists locally may only be replaced by a record with the same terms, which
// lets an aborted import be replayed.
func (e *Engine) validateBatch(records []Remittance, counter uint64) (uint64, error) {
	seen := make(map[uint64]struct{}, len(records))
	for i := range records {
		rec := &records[i]
		if err := e.validateImported(rec); err != nil {
			return 0, err
		}
		if _, dup := seen[rec.ID]; dup {
			return 0, remiterrors.ErrInvalidMigrationBatch
		}
		seen[rec.ID] = struct{}{}
		switch {
		case rec.ID <= counter:
			existing, found, err := e.loadRemittance(rec.ID)
			if err != nil {
				return 0, err
			}
			if found && !sameTerms(existing, rec) {
				return 0, remiterrors.ErrRemittanceMismatch
			}
		case rec.ID == counter+1:
			counter = rec.ID
		default:
			return 0, remiterrors.ErrInvalidMigrationBatch
		}
	}
	return counter, nil
}

func (e *Engine) validateImported(rec *Remittance) error {
	if rec.ID == 0 {
		return remiterrors.ErrRemittanceNotFound
	}
	if !rec.Status.Valid() {
		return remiterrors.ErrInvalidStatus
	}
	if err := validateAmount(rec.Amount); err != nil {
		return err
	}
	if rec.Fee == nil {
		rec.Fee = big.NewInt(0)
	}
	if rec.Fee.Sign() < 0 || rec.Fee.Cmp(rec.Amount) > 0 {
		return remiterrors.ErrInvalidAmount
	}
	cur, ctry, err := validateCorridor(rec.Currency, rec.Country)
	if err != nil {
		return err
	}
	// The digest covers the records as sent, so they must already be in the
	// stored form.
	if cur != rec.Currency || ctry != rec.Country {
		return remiterrors.ErrInvalidCorridor
	}
	settled, err := e.IsSettled(rec.ID)
	if err != nil {
		return err
	}
	if settled {
		return remiterrors.ErrDuplicateSettlement
	}
	return nil
}

// sameTerms reports whether two remittances describe the same transfer. Status,
// fee and creation time may differ.
func sameTerms(a, b *Remittance) bool {
	return a.Sender == b.Sender && a.Recipient == b.Recipient &&
		a.Amount.Cmp(b.Amount) == 0 &&
		a.Currency == b.Currency && a.Country == b.Country
}
