package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces values of keys that are not known to be safe.
const RedactedValue = "[REDACTED]"

// addressTail is how many trailing characters of a bech32 address stay visible.
const addressTail = 4

// Invocation metadata and corridor identifiers carry no account data.
var plainKeys = map[string]struct{}{
	"error":      {},
	"reason":     {},
	"component":  {},
	"module":     {},
	"op":         {},
	"invocation": {},
	"code":       {},
	"outcome":    {},
	"remittance": {},
	"currency":   {},
	"country":    {},
}

func isPlain(key string) bool {
	_, ok := plainKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField keeps the value of invocation metadata keys and redacts anything else.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || isPlain(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// AddressField logs a bech32 account as its human-readable prefix and the last
// few characters, enough to tell senders and agents apart in one log stream.
// Values that are not bech32 are redacted.
func AddressField(key, address string) slog.Attr {
	address = strings.TrimSpace(address)
	sep := strings.LastIndexByte(address, '1')
	if sep <= 0 || len(address)-sep-1 <= addressTail {
		return MaskField(key, address)
	}
	return slog.String(key, address[:sep+1]+"…"+address[len(address)-addressTail:])
}
