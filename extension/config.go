package extension

import "time"

// Config holds the Economy extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.economy" or "economy" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// CacheTTL controls how long cached guild reads live in-process
	// before re-reading the store (default: 30s). Zero disables the
	// in-process cache entirely.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheCapacity bounds the in-process cache entry count. Zero means
	// unbounded.
	CacheCapacity uint64 `json:"cache_capacity" mapstructure:"cache_capacity" yaml:"cache_capacity"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL: 30 * time.Second,
	}
}
