package main

import (
	"encoding/hex"
	"errors"

	"swiftremit/config"
	"swiftremit/core"
	remiterrors "swiftremit/core/errors"
	"swiftremit/crypto"
)

type limitReport struct {
	Currency   string `json:"currency"`
	Country    string `json:"country"`
	Configured string `json:"configured"`
	OnChain    string `json:"onChain,omitempty"`
}

type migrationReport struct {
	Active       bool   `json:"active"`
	Completed    bool   `json:"completed"`
	SnapshotHash string `json:"snapshotHash,omitempty"`
	TotalBatches uint32 `json:"totalBatches"`
	LastBatch    uint32 `json:"lastBatch"`
}

type auditReport struct {
	Initialized      bool             `json:"initialized"`
	Admin            string           `json:"admin,omitempty"`
	AdminCount       uint32           `json:"adminCount"`
	Token            string           `json:"token,omitempty"`
	Contract         string           `json:"contract"`
	FeeBps           uint32           `json:"feeBps"`
	Paused           bool             `json:"paused"`
	Counter          uint64           `json:"remittanceCounter"`
	AccumulatedFees  string           `json:"accumulatedFees"`
	CooldownSeconds  *uint64          `json:"rateLimitCooldownSeconds,omitempty"`
	ContractBalance  string           `json:"contractBalance,omitempty"`
	Migration        *migrationReport `json:"migration,omitempty"`
	DailyLimits      []limitReport    `json:"dailyLimits"`
	ConfigMismatches []string         `json:"configMismatches,omitempty"`
}

// buildReport reads the contract state through a read-only host query and
// compares it with the [remit] section of cfg.
func buildReport(host *core.Host, cfg *config.Config, params config.RemitParameters) (*auditReport, error) {
	report := &auditReport{
		Contract:        cfg.ContractAddress,
		AccumulatedFees: "0",
		DailyLimits:     []limitReport{},
	}
	err := host.Query(func(rt *core.Runtime) error {
		engine := rt.Engine
		admin, err := engine.Admin()
		if errors.Is(err, remiterrors.ErrNotInitialized) {
			return nil
		}
		if err != nil {
			return err
		}
		report.Initialized = true
		report.Admin = crypto.FormatAddress(admin)
		if report.AdminCount, err = engine.AdminCount(); err != nil {
			return err
		}
		token, err := engine.SettlementToken()
		if err != nil {
			return err
		}
		report.Token = crypto.FormatToken(token)
		if report.FeeBps, err = engine.FeeBps(); err != nil {
			return err
		}
		if report.Paused, err = engine.IsPaused(); err != nil {
			return err
		}
		if report.Counter, err = engine.RemittanceCounter(); err != nil {
			return err
		}
		fees, err := engine.AccumulatedFees()
		if err != nil {
			return err
		}
		report.AccumulatedFees = fees.String()
		if cooldown, err := engine.RateLimitCooldown(); err == nil {
			report.CooldownSeconds = &cooldown
		} else if !errors.Is(err, remiterrors.ErrNotInitialized) {
			return err
		}
		balance, err := rt.Bank.BalanceOf(token, engine.ContractAddress())
		if err != nil {
			return err
		}
		report.ContractBalance = balance.String()
		migration, err := engine.MigrationStatus()
		if err != nil {
			return err
		}
		if migration.Active || migration.Completed {
			report.Migration = &migrationReport{
				Active:       migration.Active,
				Completed:    migration.Completed,
				SnapshotHash: hex.EncodeToString(migration.SnapshotHash[:]),
				TotalBatches: migration.TotalBatches,
				LastBatch:    migration.LastBatch,
			}
		}
		for _, limit := range params.DailyLimits {
			entry := limitReport{
				Currency:   limit.Currency,
				Country:    limit.Country,
				Configured: limit.Limit.String(),
			}
			stored, ok, err := engine.DailyLimitFor(limit.Currency, limit.Country)
			if err != nil {
				return err
			}
			if ok {
				entry.OnChain = stored.Limit.String()
			}
			if !ok || stored.Limit.Cmp(limit.Limit) != 0 {
				report.ConfigMismatches = append(report.ConfigMismatches, "daily limit "+limit.Currency+"/"+limit.Country)
			}
			report.DailyLimits = append(report.DailyLimits, entry)
		}
		if params.Admin != ([20]byte{}) && params.Admin != admin {
			report.ConfigMismatches = append(report.ConfigMismatches, "admin")
		}
		if params.Token != ([20]byte{}) && params.Token != token {
			report.ConfigMismatches = append(report.ConfigMismatches, "token")
		}
		if params.FeeBps != report.FeeBps {
			report.ConfigMismatches = append(report.ConfigMismatches, "fee")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
