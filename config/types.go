package config

// Remit holds the bootstrap parameters of the settlement contract.
type Remit struct {
	Admin                    string       `toml:"Admin"`
	Token                    string       `toml:"Token"`
	FeeBps                   uint32       `toml:"FeeBps"`
	RateLimitCooldownSeconds uint64       `toml:"RateLimitCooldownSeconds"`
	DailyLimits              []DailyLimit `toml:"DailyLimits"`
}

// DailyLimit caps one corridor. Limit is a base-10 integer string so values
// beyond 64 bits survive the TOML round trip.
type DailyLimit struct {
	Currency string `toml:"Currency"`
	Country  string `toml:"Country"`
	Limit    string `toml:"Limit"`
}

// Logging selects the log level and an optional rotated log file.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File,omitempty"`
	MaxSizeMB  int    `toml:"MaxSizeMB,omitempty"`
	MaxBackups int    `toml:"MaxBackups,omitempty"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint,omitempty"`
	Insecure bool   `toml:"Insecure"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
	Headers  string `toml:"Headers,omitempty"`
	// SampleRatio traces this fraction of invocations; 0 traces all.
	SampleRatio float64 `toml:"SampleRatio,omitempty"`
}
