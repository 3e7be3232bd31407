package config

import (
	"fmt"

	"swiftremit/crypto"
)

// MaxFeeBps mirrors the contract's upper bound on the platform fee.
const MaxFeeBps = uint32(10_000)

// Validate rejects configurations the settlement host cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLevelDB, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := crypto.ParseAddress(c.ContractAddress); err != nil {
		return fmt.Errorf("ContractAddress: %w", err)
	}
	if c.Remit.FeeBps > MaxFeeBps {
		return fmt.Errorf("remit.FeeBps %d exceeds %d", c.Remit.FeeBps, MaxFeeBps)
	}
	if _, err := c.Remit.Parameters(); err != nil {
		return err
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.SampleRatio must be within [0, 1]")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return fmt.Errorf("logging: rotation limits must not be negative")
	}
	return nil
}
