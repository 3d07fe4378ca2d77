// Package economy provides a per-guild economy engine for Go applications.
//
// Economy is designed as a library, not a service. Import it directly into
// your bot or application process. It provides:
//
//   - Cascading per-guild settings (guild override, static config, default)
//   - Reward cooldown tracking for daily, work and weekly claims
//   - Guild currencies with member balances and leaderboards
//   - Typed balance events with pluggable subscribers
//   - Swappable persistence: memory, bbolt, MongoDB, SQLite, PostgreSQL
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/economy"
//	    "github.com/xraph/economy/store/memory"
//	)
//
//	e := economy.New(memory.New())
//
//	ctx := context.Background()
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Currencies are created per guild and addressed by ID, name or symbol,
// case-insensitive:
//
//	gold, err := e.CreateCurrency(ctx, "Gold", "G", guildID)
//	res, err := e.AddBalance(ctx, "gold", 100, memberID, guildID, "daily reward")
//
// Balances are plain integers and may go negative. Every mutation emits
// exactly one event (customCurrencySet, customCurrencyAdd or
// customCurrencySubtract) to registered subscribers:
//
//	e := economy.New(store, economy.WithSubscriber(mySubscriber))
//
// Settings resolve through a cascade. A guild override wins over the
// static configuration the engine was built with, which wins over the
// built-in defaults:
//
//	resolved, err := e.SetSetting(ctx, economy.SettingDailyAmount, int64(500), guildID)
//
// Cooldowns are resolved from effective settings at tracker construction:
//
//	tracker, err := e.Cooldowns(ctx, guildID, memberID)
//	view, err := tracker.Daily(ctx)
//	if view == nil || view.Ready() {
//	    // claim the reward, then record the claim timestamp
//	}
//
// # Persistence
//
// All backends store one document tree per guild behind the same
// path-addressed store.Store interface, so switching backends is a
// constructor swap. The memory store suits tests and single-node use;
// bolt gives embedded persistence; mongo, sqlite and postgres run on
// Grove ORM.
package economy
