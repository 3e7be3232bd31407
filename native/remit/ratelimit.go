package remit

import (
	remiterrors "swiftremit/core/errors"
)

// SetRateLimitCooldown sets the minimum number of seconds between two
// settlements from the same sender. Zero disables the check.
func (e *Engine) SetRateLimitCooldown(caller [20]byte, seconds uint64) error {
	cfg, err := e.adminCall(caller)
	if err != nil {
		return err
	}
	cfg.Cooldown = seconds
	cfg.CooldownSet = true
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(newCooldownEvent(caller, seconds))
	return nil
}

// RateLimitCooldown returns the configured cooldown in seconds.
func (e *Engine) RateLimitCooldown() (uint64, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	if !cfg.CooldownSet {
		return 0, remiterrors.ErrNotInitialized
	}
	return cfg.Cooldown, nil
}

// LastSettlementTime returns the time of the sender's last successful
// settlement. The boolean is false when the sender never settled.
func (e *Engine) LastSettlementTime(sender [20]byte) (uint64, bool, error) {
	kv, err := e.persistent()
	if err != nil {
		return 0, false, err
	}
	var ts uint64
	ok, err := kv.Get(lastSettlementKey(sender), &ts)
	if err != nil {
		return 0, false, err
	}
	return ts, ok, nil
}

func (e *Engine) checkRateLimit(cfg *instanceConfig, sender [20]byte, now uint64) error {
	if !cfg.CooldownSet {
		return remiterrors.ErrNotInitialized
	}
	if cfg.Cooldown == 0 {
		return nil
	}
	last, ok, err := e.LastSettlementTime(sender)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var elapsed uint64
	if now > last {
		elapsed = now - last
	}
	if elapsed < cfg.Cooldown {
		return remiterrors.ErrRateLimitExceeded
	}
	return nil
}

func (e *Engine) recordSettlementTime(sender [20]byte, now uint64) error {
	kv, err := e.persistent()
	if err != nil {
		return err
	}
	return kv.Put(lastSettlementKey(sender), now)
}
