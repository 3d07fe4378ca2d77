// Package extension provides the Forge extension adapter for Economy.
//
// It implements the forge.Extension interface to integrate the economy
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.economy" or
// "economy" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/cache/ttl"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "economy"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Per-guild economy engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Economy as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *economy.Economy
	store      store.Store
	cache      *ttl.Cache
	engineOpts []economy.Option
}

// New creates a new Economy Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Economy instance.
// This is nil until Register is called.
func (e *Extension) Engine() *economy.Economy { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the economy engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := make([]economy.Option, 0, len(e.engineOpts)+1)
	if e.config.CacheTTL > 0 {
		e.cache = ttl.New(e.config.CacheTTL, e.config.CacheCapacity)
		opts = append(opts, economy.WithCache(e.cache))
	}
	opts = append(opts, e.engineOpts...)

	e.engine = economy.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*economy.Economy, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("economy: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.cache != nil {
		e.cache.Stop()
	}
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("economy: store not initialized")
	}
	return e.store.Ping(ctx)
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("economy: configuration is required but not found in config files; " +
				"ensure 'extensions.economy' or 'economy' key exists in your config")
		}

		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("economy: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("cache_ttl", e.config.CacheTTL),
		forge.F("cache_capacity", e.config.CacheCapacity),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.economy" first (namespaced pattern).
	if cm.IsSet("extensions.economy") {
		if err := cm.Bind("extensions.economy", &cfg); err == nil {
			e.Logger().Debug("economy: loaded config from file",
				forge.F("key", "extensions.economy"),
			)
			return cfg, true
		}
		e.Logger().Warn("economy: failed to bind extensions.economy config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "economy" key.
	if cm.IsSet("economy") {
		if err := cm.Bind("economy", &cfg); err == nil {
			e.Logger().Debug("economy: loaded config from file",
				forge.F("key", "economy"),
			)
			return cfg, true
		}
		e.Logger().Warn("economy: failed to bind economy config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.CacheTTL == 0 && programmaticConfig.CacheTTL != 0 {
		yamlConfig.CacheTTL = programmaticConfig.CacheTTL
	}
	if yamlConfig.CacheCapacity == 0 && programmaticConfig.CacheCapacity != 0 {
		yamlConfig.CacheCapacity = programmaticConfig.CacheCapacity
	}

	return e.mergeWithDefaults(yamlConfig)
}
