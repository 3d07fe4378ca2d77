package extension

import (
	"time"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/event"
	"github.com/xraph/economy/settings"
	"github.com/xraph/economy/store"
)

// Option configures the Economy Forge extension.
type Option func(*Extension)

// WithStore sets the store for the economy engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEconomyOption passes an economy.Option through to the underlying engine.
func WithEconomyOption(opt economy.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithSubscriber registers an event subscriber on the engine.
func WithSubscriber(s event.Subscriber) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, economy.WithSubscriber(s))
	}
}

// WithStaticSettings sets the engine's static settings configuration.
func WithStaticSettings(cfg settings.Config) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, economy.WithStaticSettings(cfg))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCacheTTL sets the in-process cache entry lifetime.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.CacheTTL = d }
}

// WithCacheCapacity bounds the in-process cache entry count.
func WithCacheCapacity(n uint64) Option {
	return func(e *Extension) { e.config.CacheCapacity = n }
}
