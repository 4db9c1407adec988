// Package config loads runtime configuration via viper, the way the
// teacher's cmd/bd/doctor/config_values.go builds a scoped viper instance
// instead of relying on the global singleton.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys are the viper keys bindable as RUEK_* environment variables or
// --flag equivalents (spec.md §6's "Environment" section, SPEC_FULL.md's
// external-interfaces expansion).
const (
	KeyDatabaseURL    = "database-url"
	KeyCacheAddr      = "cache-addr"
	KeyOpTimeout      = "op-timeout"
	KeyCheckCostLimit = "check-cost-limit"
)

// EnvPrefix is the environment variable prefix viper binds under
// (RUEK_DATABASE_URL, RUEK_CACHE_ADDR, ...).
const EnvPrefix = "ruek"

// Defaults mirror spec.md §6: "a per-operation timeout (default 1s); a
// default check cost limit (suggest 1000)".
const (
	DefaultOpTimeout      = time.Second
	DefaultCheckCostLimit = 1000
)

// Config is the resolved runtime configuration.
type Config struct {
	DatabaseURL    string
	CacheAddr      string
	OpTimeout      time.Duration
	CheckCostLimit int
}

// New builds a viper instance pre-bound to RUEK_* environment variables
// and the defaults above, generalizing the teacher's scoped-viper pattern
// (cmd/bd/doctor/config_values.go's `viper.New()` rather than the package
// singleton).
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyCacheAddr, "")
	v.SetDefault(KeyOpTimeout, DefaultOpTimeout)
	v.SetDefault(KeyCheckCostLimit, DefaultCheckCostLimit)

	return v
}

// Load resolves a Config from an already-populated viper instance
// (flags bound via BindPFlag, config file read via ReadInConfig, or plain
// environment defaults from New).
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DatabaseURL:    v.GetString(KeyDatabaseURL),
		CacheAddr:      v.GetString(KeyCacheAddr),
		OpTimeout:      v.GetDuration(KeyOpTimeout),
		CheckCostLimit: v.GetInt(KeyCheckCostLimit),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: %s is required", KeyDatabaseURL)
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultOpTimeout
	}
	if cfg.CheckCostLimit <= 0 {
		cfg.CheckCostLimit = DefaultCheckCostLimit
	}
	return cfg, nil
}
