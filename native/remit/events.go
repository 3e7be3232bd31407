package remit

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"swiftremit/core/types"
	"swiftremit/crypto"
)

const (
	EventTypeInitialized        = "remit.initialized"
	EventTypeFeeUpdated         = "remit.fee.updated"
	EventTypePaused             = "remit.paused"
	EventTypeUnpaused           = "remit.unpaused"
	EventTypeAdminAdded         = "remit.admin.added"
	EventTypeAdminRemoved       = "remit.admin.removed"
	EventTypeTokenWhitelisted   = "remit.token.whitelisted"
	EventTypeTokenDelisted      = "remit.token.delisted"
	EventTypeCooldownUpdated    = "remit.ratelimit.updated"
	EventTypeDailyLimitUpdated  = "remit.limit.updated"
	EventTypeAgentRegistered    = "remit.agent.registered"
	EventTypeAgentRemoved       = "remit.agent.removed"
	EventTypeRemittanceCreated  = "remit.created"
	EventTypeRemittanceSettled  = "remit.settled"
	EventTypeFeesWithdrawn      = "remit.fees.withdrawn"
	EventTypeMigrationStarted   = "remit.migration.started"
	EventTypeMigrationBatch     = "remit.migration.batch_imported"
	EventTypeMigrationCompleted = "remit.migration.completed"
	EventTypeMigrationAborted   = "remit.migration.aborted"
)

func newInitializedEvent(admin, token [20]byte, feeBps uint32) *types.Event {
	return &types.Event{Type: EventTypeInitialized, Attributes: map[string]string{
		"admin":  crypto.FormatAddress(admin),
		"token":  crypto.FormatToken(token),
		"feeBps": strconv.FormatUint(uint64(feeBps), 10),
	}}
}

func newFeeUpdatedEvent(caller [20]byte, feeBps uint32) *types.Event {
	return &types.Event{Type: EventTypeFeeUpdated, Attributes: map[string]string{
		"caller": crypto.FormatAddress(caller),
		"feeBps": strconv.FormatUint(uint64(feeBps), 10),
	}}
}

func newPauseEvent(caller [20]byte, paused bool) *types.Event {
	eventType := EventTypeUnpaused
	if paused {
		eventType = EventTypePaused
	}
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"caller": crypto.FormatAddress(caller),
	}}
}

func newAdminEvent(eventType string, caller, subject [20]byte, count uint32) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"caller": crypto.FormatAddress(caller),
		"admin":  crypto.FormatAddress(subject),
		"count":  strconv.FormatUint(uint64(count), 10),
	}}
}

func newWhitelistEvent(caller, token [20]byte, whitelisted bool) *types.Event {
	eventType := EventTypeTokenDelisted
	if whitelisted {
		eventType = EventTypeTokenWhitelisted
	}
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"caller": crypto.FormatAddress(caller),
		"token":  crypto.FormatToken(token),
	}}
}

func newCooldownEvent(caller [20]byte, seconds uint64) *types.Event {
	return &types.Event{Type: EventTypeCooldownUpdated, Attributes: map[string]string{
		"caller":          crypto.FormatAddress(caller),
		"cooldownSeconds": strconv.FormatUint(seconds, 10),
	}}
}

func newDailyLimitEvent(caller [20]byte, limit *DailyLimit) *types.Event {
	return &types.Event{Type: EventTypeDailyLimitUpdated, Attributes: map[string]string{
		"caller":   crypto.FormatAddress(caller),
		"currency": limit.Currency,
		"country":  limit.Country,
		"limit":    cloneBigInt(limit.Limit).String(),
	}}
}

func newAgentEvent(eventType string, caller, agent [20]byte) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"caller": crypto.FormatAddress(caller),
		"agent":  crypto.FormatAddress(agent),
	}}
}

func newRemittanceEvent(eventType string, rem *Remittance) *types.Event {
	attrs := make(map[string]string)
	if rem == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(rem.ID, 10)
	attrs["sender"] = crypto.FormatAddress(rem.Sender)
	attrs["recipient"] = crypto.FormatAddress(rem.Recipient)
	attrs["amount"] = cloneBigInt(rem.Amount).String()
	attrs["fee"] = cloneBigInt(rem.Fee).String()
	attrs["currency"] = rem.Currency
	attrs["country"] = rem.Country
	attrs["status"] = rem.Status.String()
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newFeesWithdrawnEvent(caller, to [20]byte, amount, remaining *big.Int) *types.Event {
	return &types.Event{Type: EventTypeFeesWithdrawn, Attributes: map[string]string{
		"caller":    crypto.FormatAddress(caller),
		"to":        crypto.FormatAddress(to),
		"amount":    cloneBigInt(amount).String(),
		"remaining": cloneBigInt(remaining).String(),
	}}
}

func newMigrationEvent(eventType string, caller [20]byte, mig *MigrationState) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"caller":       crypto.FormatAddress(caller),
		"snapshotHash": hex.EncodeToString(mig.SnapshotHash[:]),
		"totalBatches": strconv.FormatUint(uint64(mig.TotalBatches), 10),
		"lastBatch":    strconv.FormatUint(uint64(mig.LastBatch), 10),
	}}
}

func newBatchImportedEvent(caller [20]byte, batch uint32, records int, mig *MigrationState) *types.Event {
	evt := newMigrationEvent(EventTypeMigrationBatch, caller, mig)
	evt.Attributes["batch"] = strconv.FormatUint(uint64(batch), 10)
	evt.Attributes["records"] = strconv.Itoa(records)
	evt.Attributes["digest"] = hex.EncodeToString(mig.Digest[:])
	return evt
}
