package main

import (
	"context"
	"errors"
	"fmt"

	"swiftremit/config"
	"swiftremit/core"
	"swiftremit/crypto"
)

// bootstrap initialises an empty contract from the [remit] section. The
// operator running the tool is trusted to hold the configured admin key, so
// calls are authorized as that admin.
func bootstrap(ctx context.Context, host *core.Host, params config.RemitParameters) error {
	if params.Admin == ([20]byte{}) || params.Token == ([20]byte{}) {
		return errors.New("bootstrap requires remit.Admin and remit.Token")
	}
	auth := crypto.Authorize(params.Admin)
	invoke := func(op string, fn func(*core.Runtime) error) error {
		if err := host.Invoke(ctx, core.Invocation{Op: op, Caller: params.Admin, Authorizer: auth}, fn); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	if err := invoke("initialize", func(rt *core.Runtime) error {
		return rt.Engine.Initialize(params.Admin, params.Token, params.FeeBps)
	}); err != nil {
		return err
	}
	if err := invoke("set_rate_limit", func(rt *core.Runtime) error {
		return rt.Engine.SetRateLimitCooldown(params.Admin, params.RateLimitCooldownSeconds)
	}); err != nil {
		return err
	}
	for _, limit := range params.DailyLimits {
		limit := limit
		if err := invoke("set_daily_limit", func(rt *core.Runtime) error {
			return rt.Engine.SetDailyLimit(params.Admin, limit.Currency, limit.Country, limit.Limit)
		}); err != nil {
			return err
		}
	}
	return nil
}
