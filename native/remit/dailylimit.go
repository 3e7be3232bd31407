package remit

import (
	"math/big"

	remiterrors "swiftremit/core/errors"
	"swiftremit/core/state"
)

// SetDailyLimit caps the trailing 24 hour volume a single user may settle in
// one (currency, country) corridor.
func (e *Engine) SetDailyLimit(caller [20]byte, currency, country string, limit *big.Int) error {
	if _, err := e.adminCall(caller); err != nil {
		return err
	}
	cur, ctry, err := validateCorridor(currency, country)
	if err != nil {
		return err
	}
	if limit == nil || limit.Sign() < 0 {
		return remiterrors.ErrInvalidAmount
	}
	if err := checkAmountBounds(limit); err != nil {
		return err
	}
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	record := DailyLimit{Currency: cur, Country: ctry, Limit: new(big.Int).Set(limit)}
	if err := kv.Put(dailyLimitKey(cur, ctry), record); err != nil {
		return err
	}
	e.emit(newDailyLimitEvent(caller, &record))
	return nil
}

// DailyLimitFor returns the cap configured for a corridor.
func (e *Engine) DailyLimitFor(currency, country string) (*DailyLimit, bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return nil, false, err
	}
	var record DailyLimit
	ok, err := kv.Get(dailyLimitKey(currency, country), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	record.Limit = cloneBigInt(record.Limit)
	return &record, true, nil
}

// UserTransfers returns the retained settlement history of user.
func (e *Engine) UserTransfers(user [20]byte) ([]TransferRecord, error) {
	kv, err := e.persistent()
	if err != nil {
		return nil, err
	}
	var records []TransferRecord
	if err := state.GetList(kv, userTransfersKey(user), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DailyUsage sums the user's settlements in a corridor over the trailing
// window ending now.
func (e *Engine) DailyUsage(user [20]byte, currency, country string) (*big.Int, error) {
	records, err := e.UserTransfers(user)
	if err != nil {
		return nil, err
	}
	return windowTotal(records, normalizeCode(currency), normalizeCode(country), e.now()), nil
}

func (e *Engine) checkDailyLimit(user [20]byte, currency, country string, amount *big.Int, now uint64) error {
	limit, ok, err := e.DailyLimitFor(currency, country)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	records, err := e.UserTransfers(user)
	if err != nil {
		return err
	}
	projected := windowTotal(records, currency, country, now)
	projected.Add(projected, amount)
	if projected.Cmp(limit.Limit) > 0 {
		return remiterrors.ErrDailySendLimitExceeded
	}
	return nil
}

// recordTransfer drops entries that left the window and appends record.
func (e *Engine) recordTransfer(user [20]byte, record TransferRecord) error {
	records, err := e.UserTransfers(user)
	if err != nil {
		return err
	}
	kept := filterRecords(records, record.Timestamp)
	kept = append(kept, record)
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	return kv.Put(userTransfersKey(user), kept)
}

func inWindow(ts, now uint64) bool {
	if ts >= now {
		return true
	}
	return now-ts < DailyWindowSeconds
}

func filterRecords(records []TransferRecord, now uint64) []TransferRecord {
	kept := make([]TransferRecord, 0, len(records)+1)
	for _, r := range records {
		if inWindow(r.Timestamp, now) {
			kept = append(kept, r)
		}
	}
	return kept
}

func windowTotal(records []TransferRecord, currency, country string, now uint64) *big.Int {
	total := big.NewInt(0)
	for _, r := range records {
		if r.Currency != currency || r.Country != country {
			continue
		}
		if !inWindow(r.Timestamp, now) || r.Amount == nil {
			continue
		}
		total.Add(total, r.Amount)
	}
	return total
}
