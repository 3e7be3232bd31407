package remit

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Instance tier keys. Each singleton lives under its own key.
var (
	legacyAdminKey     = []byte("remit/admin")
	adminCountKey      = []byte("remit/admin/count")
	settlementTokenKey = []byte("remit/token")
	feeBpsKey          = []byte("remit/fee/bps")
	counterKey         = []byte("remit/counter")
	accumulatedFeesKey = []byte("remit/fees/accumulated")
	pausedKey          = []byte("remit/paused")
	cooldownKey        = []byte("remit/ratelimit/cooldown")
	migrationKey       = []byte("remit/migration")
)

// Persistent tier prefixes. Address and id suffixes are fixed width.
var (
	adminRolePrefix      = []byte("remit/admin/role/")
	remittancePrefix     = []byte("remit/remittance/")
	agentPrefix          = []byte("remit/agent/")
	settlementPrefix     = []byte("remit/settled/")
	lastSettlementPrefix = []byte("remit/ratelimit/last/")
	dailyLimitPrefix     = []byte("remit/limit/")
	userTransfersPrefix  = []byte("remit/transfers/")
	whitelistPrefix      = []byte("remit/whitelist/")
)

func addressKey(prefix []byte, addr [20]byte) []byte {
	buf := make([]byte, len(prefix)+len(addr))
	copy(buf, prefix)
	copy(buf[len(prefix):], addr[:])
	return buf
}

func idKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], id)
	return buf
}

func adminRoleKey(addr [20]byte) []byte      { return addressKey(adminRolePrefix, addr) }
func remittanceKey(id uint64) []byte         { return idKey(remittancePrefix, id) }
func agentKey(addr [20]byte) []byte          { return addressKey(agentPrefix, addr) }
func settlementKey(id uint64) []byte         { return idKey(settlementPrefix, id) }
func lastSettlementKey(addr [20]byte) []byte { return addressKey(lastSettlementPrefix, addr) }
func userTransfersKey(addr [20]byte) []byte  { return addressKey(userTransfersPrefix, addr) }
func whitelistKey(token [20]byte) []byte     { return addressKey(whitelistPrefix, token) }

// dailyLimitKey length-prefixes the currency so ("US","DUS") and ("USD","US")
// map to different keys.
func dailyLimitKey(currency, country string) []byte {
	cur := normalizeCode(currency)
	ctry := normalizeCode(country)
	var b strings.Builder
	b.Grow(len(dailyLimitPrefix) + len(cur) + len(ctry) + 4)
	b.Write(dailyLimitPrefix)
	b.WriteString(strconv.Itoa(len(cur)))
	b.WriteByte(':')
	b.WriteString(cur)
	b.WriteString(ctry)
	return []byte(b.String())
}

func normalizeCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
