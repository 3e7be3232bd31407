package remit

import "testing"

func TestKeySchemaHasNoCollisions(t *testing.T) {
	addr := newTestAddress(0x01)
	keys := map[string]string{
		"legacyAdmin":    string(legacyAdminKey),
		"adminCount":     string(adminCountKey),
		"token":          string(settlementTokenKey),
		"feeBps":         string(feeBpsKey),
		"counter":        string(counterKey),
		"fees":           string(accumulatedFeesKey),
		"paused":         string(pausedKey),
		"cooldown":       string(cooldownKey),
		"migration":      string(migrationKey),
		"adminRole":      string(adminRoleKey(addr)),
		"remittance":     string(remittanceKey(1)),
		"agent":          string(agentKey(addr)),
		"settled":        string(settlementKey(1)),
		"lastSettlement": string(lastSettlementKey(addr)),
		"dailyLimit":     string(dailyLimitKey("USD", "US")),
		"transfers":      string(userTransfersKey(addr)),
		"whitelist":      string(whitelistKey(addr)),
	}
	seen := make(map[string]string, len(keys))
	for name, key := range keys {
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s and %s share key %q", name, prev, key)
		}
		seen[key] = name
	}
}

func TestDailyLimitKeyNormalisesAndSeparates(t *testing.T) {
	if string(dailyLimitKey(" usd", "us ")) != string(dailyLimitKey("USD", "US")) {
		t.Fatalf("corridor keys must be case and space insensitive")
	}
	if string(dailyLimitKey("US", "DUS")) == string(dailyLimitKey("USD", "US")) {
		t.Fatalf("corridor keys must not alias")
	}
}
