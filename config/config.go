package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

type Config struct {
	DataDir         string    `toml:"DataDir"`
	Backend         string    `toml:"Backend"`
	ContractAddress string    `toml:"ContractAddress"`
	Environment     string    `toml:"Environment"`
	AuditListen     string    `toml:"AuditListen"`
	Remit           Remit     `toml:"remit"`
	Logging         Logging   `toml:"logging"`
	Telemetry       Telemetry `toml:"telemetry"`
}

// Load loads the configuration from the given path, writing a default file
// first when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh deployment.
func Default() *Config {
	cfg := &Config{
		DataDir:     "./swiftremit-data",
		Backend:     BackendLevelDB,
		Environment: "local",
		Remit: Remit{
			FeeBps:                   50,
			RateLimitCooldownSeconds: 3600,
			DailyLimits:              []DailyLimit{},
		},
		Logging: Logging{Level: "info"},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendLevelDB
	}
	if strings.TrimSpace(c.DataDir) == "" && c.Backend != BackendMemory {
		c.DataDir = "./swiftremit-data"
	}
	if strings.TrimSpace(c.ContractAddress) == "" {
		c.ContractAddress = DefaultContractAddress()
	}
	if c.Remit.DailyLimits == nil {
		c.Remit.DailyLimits = []DailyLimit{}
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// DatabasePath returns the on-disk location of the selected backend.
func (c *Config) DatabasePath() string {
	switch c.Backend {
	case BackendBolt:
		return filepath.Join(c.DataDir, "state.bolt")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(c.DataDir, "state")
	}
}
