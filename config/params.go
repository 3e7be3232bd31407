package config

import (
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"swiftremit/crypto"
)

// RemitParameters is the runtime form of the [remit] section.
type RemitParameters struct {
	Admin                    [20]byte
	Token                    [20]byte
	FeeBps                   uint32
	RateLimitCooldownSeconds uint64
	DailyLimits              []DailyLimitParameters
}

// DailyLimitParameters is a parsed corridor cap.
type DailyLimitParameters struct {
	Currency string
	Country  string
	Limit    *big.Int
}

// DefaultContractAddress derives the custody account used when none is
// configured.
func DefaultContractAddress() string {
	hash := ethcrypto.Keccak256([]byte("swiftremit/custody"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return crypto.FormatAddress(addr)
}

// Contract parses the custody account.
func (c *Config) Contract() ([20]byte, error) {
	return crypto.ParseAddress(c.ContractAddress)
}

// Parameters converts the textual configuration into runtime values.
func (r Remit) Parameters() (RemitParameters, error) {
	params := RemitParameters{
		FeeBps:                   r.FeeBps,
		RateLimitCooldownSeconds: r.RateLimitCooldownSeconds,
	}
	if strings.TrimSpace(r.Admin) != "" {
		admin, err := crypto.ParseAddress(r.Admin)
		if err != nil {
			return params, fmt.Errorf("remit.Admin: %w", err)
		}
		params.Admin = admin
	}
	if strings.TrimSpace(r.Token) != "" {
		token, err := crypto.ParseAddress(r.Token)
		if err != nil {
			return params, fmt.Errorf("remit.Token: %w", err)
		}
		params.Token = token
	}
	for i, limit := range r.DailyLimits {
		parsed, err := parseLimit(limit)
		if err != nil {
			return params, fmt.Errorf("remit.DailyLimits[%d]: %w", i, err)
		}
		params.DailyLimits = append(params.DailyLimits, parsed)
	}
	return params, nil
}

func parseLimit(limit DailyLimit) (DailyLimitParameters, error) {
	currency := strings.ToUpper(strings.TrimSpace(limit.Currency))
	country := strings.ToUpper(strings.TrimSpace(limit.Country))
	if currency == "" || country == "" {
		return DailyLimitParameters{}, fmt.Errorf("currency and country required")
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(limit.Limit), 10)
	if !ok {
		return DailyLimitParameters{}, fmt.Errorf("invalid limit %q", limit.Limit)
	}
	if value.Sign() < 0 {
		return DailyLimitParameters{}, fmt.Errorf("limit must not be negative")
	}
	if value.BitLen() > 127 {
		return DailyLimitParameters{}, fmt.Errorf("limit exceeds the signed 128-bit range")
	}
	return DailyLimitParameters{Currency: currency, Country: country, Limit: value}, nil
}
