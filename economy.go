package economy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/economy/cache"
	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/event"
	"github.com/xraph/economy/id"
	"github.com/xraph/economy/settings"
	"github.com/xraph/economy/store"
)

// Economy is the per-guild economy engine: cascading settings, reward
// cooldowns and guild currencies with member balances, all persisted in
// a path-addressed document store.
type Economy struct {
	store  store.Store
	events *event.Registry
	logger *slog.Logger
	cache  cache.Invalidator
	static settings.Config
	clock  func() time.Time

	// Per-guild mutexes serialize read-modify-write sequences; the store
	// itself provides no transactions. Events and cache invalidation fire
	// after the lock is released, so subscribers may call back into the
	// engine.
	mu     sync.Mutex
	guilds map[string]*sync.Mutex
}

// New creates an Economy engine on top of a document store.
func New(s store.Store, opts ...Option) *Economy {
	e := &Economy{
		store:  s,
		events: event.NewRegistry(),
		logger: slog.Default(),
		cache:  cache.Noop{},
		clock:  time.Now,
		guilds: make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Economy instance.
type Option func(*Economy)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Economy) {
		e.logger = logger
		e.events.WithLogger(logger)
	}
}

// WithCache sets the cache invalidator notified after mutations.
func WithCache(inv cache.Invalidator) Option {
	return func(e *Economy) {
		if inv != nil {
			e.cache = inv
		}
	}
}

// WithSubscriber registers an event subscriber.
func WithSubscriber(s event.Subscriber) Option {
	return func(e *Economy) {
		_ = e.events.Register(s) //nolint:errcheck // best-effort subscriber registration during init
	}
}

// WithStaticSettings sets the configuration consulted when a guild has
// no override for a key, before the built-in defaults.
func WithStaticSettings(cfg settings.Config) Option {
	return func(e *Economy) {
		e.static = cfg
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Economy) {
		e.clock = clock
	}
}

// Events returns the subscriber registry for post-construction
// registration.
func (e *Economy) Events() *event.Registry { return e.events }

// Store returns the underlying document store.
func (e *Economy) Store() store.Store { return e.store }

// Start migrates the store and notifies init subscribers.
func (e *Economy) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.events.EmitInit(ctx, e)

	e.logger.Info("economy started",
		"subscribers", len(e.events.Subscribers()),
	)
	return nil
}

// Stop notifies shutdown subscribers and closes the store.
func (e *Economy) Stop() error {
	e.events.EmitShutdown(context.Background())
	return e.store.Close()
}

// guildLock returns the mutex serializing mutations for one guild.
func (e *Economy) guildLock(guildID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	mu, ok := e.guilds[guildID]
	if !ok {
		mu = &sync.Mutex{}
		e.guilds[guildID] = mu
	}
	return mu
}

// invalidate signals staleness, best-effort: a failure is logged and the
// triggering operation still succeeds.
func (e *Economy) invalidate(ctx context.Context, partitions []cache.Partition, scope cache.Scope) {
	if err := e.cache.UpdateMany(ctx, partitions, scope); err != nil {
		e.logger.Warn("economy: cache invalidation failed",
			"guild_id", scope.GuildID,
			"error", err,
		)
	}
}

// ──────────────────────────────────────────────────
// Settings
// ──────────────────────────────────────────────────

// Settings returns the guild's fully resolved settings, one value per
// key: guild override, then static configuration, then built-in default.
func (e *Economy) Settings(ctx context.Context, guildID string) (settings.Effective, error) {
	overrides, err := e.readOverrides(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return settings.Resolve(overrides, e.static), nil
}

// Setting returns one resolved setting value.
func (e *Economy) Setting(ctx context.Context, key settings.Key, guildID string) (any, error) {
	if !settings.Valid(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	overrides, err := e.readOverrides(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return settings.ResolveKey(key, overrides, e.static), nil
}

// SetSetting writes a guild override for one key and returns the new
// resolved settings. The value is stored as given: beyond key validity
// no shape checking happens, the caller owns semantic correctness (a
// cooldown set to a negative number produces nonsensical but not
// rejected cooldown math downstream).
func (e *Economy) SetSetting(ctx context.Context, key settings.Key, value any, guildID string) (settings.Effective, error) {
	if !settings.Valid(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	mu := e.guildLock(guildID)
	mu.Lock()
	err := e.store.Set(ctx, store.At(guildID, "settings", string(key)), value)
	mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("economy: set setting %s: %w", key, err)
	}

	e.invalidate(ctx, []cache.Partition{cache.PartitionGuilds}, cache.Scope{GuildID: guildID})
	e.events.EmitSettingChanged(ctx, guildID, key, value)
	return e.Settings(ctx, guildID)
}

// DeleteSetting removes a guild override, reverting the key to the
// static configuration or the built-in default. It returns the new
// resolved settings and whether an override existed.
func (e *Economy) DeleteSetting(ctx context.Context, key settings.Key, guildID string) (settings.Effective, bool, error) {
	if !settings.Valid(key) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	mu := e.guildLock(guildID)
	mu.Lock()
	existed, err := e.store.Delete(ctx, store.At(guildID, "settings", string(key)))
	mu.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("economy: delete setting %s: %w", key, err)
	}

	e.invalidate(ctx, []cache.Partition{cache.PartitionGuilds}, cache.Scope{GuildID: guildID})
	if existed {
		e.events.EmitSettingChanged(ctx, guildID, key, nil)
	}

	eff, err := e.Settings(ctx, guildID)
	if err != nil {
		return nil, existed, err
	}
	return eff, existed, nil
}

// RemoveSetting is an alias for DeleteSetting.
func (e *Economy) RemoveSetting(ctx context.Context, key settings.Key, guildID string) (settings.Effective, bool, error) {
	return e.DeleteSetting(ctx, key, guildID)
}

// ResetSettings drops every override the guild holds. It returns the new
// resolved settings, now all static/default, and whether any override
// existed.
func (e *Economy) ResetSettings(ctx context.Context, guildID string) (settings.Effective, bool, error) {
	mu := e.guildLock(guildID)
	mu.Lock()
	existed, err := e.store.Delete(ctx, store.At(guildID, "settings"))
	mu.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("economy: reset settings: %w", err)
	}

	e.invalidate(ctx, []cache.Partition{cache.PartitionGuilds}, cache.Scope{GuildID: guildID})
	if existed {
		e.events.EmitSettingsReset(ctx, guildID)
	}

	return settings.Resolve(nil, e.static), existed, nil
}

// readOverrides loads the guild's raw settings overrides.
func (e *Economy) readOverrides(ctx context.Context, guildID string) (map[settings.Key]any, error) {
	raw, ok, err := e.store.Get(ctx, store.At(guildID, "settings"))
	if err != nil {
		return nil, fmt.Errorf("economy: read settings: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var decoded map[string]any
	if err := store.Decode(raw, &decoded); err != nil {
		return nil, fmt.Errorf("economy: decode settings: %w", err)
	}

	overrides := make(map[settings.Key]any, len(decoded))
	for k, v := range decoded {
		overrides[settings.Key(k)] = v
	}
	return overrides, nil
}

// ──────────────────────────────────────────────────
// Cooldowns
// ──────────────────────────────────────────────────

// Cooldowns builds a tracker for one member's reward cooldowns. The three
// durations are resolved from the guild's effective settings once, at
// construction.
func (e *Economy) Cooldowns(ctx context.Context, guildID, memberID string) (*cooldown.Tracker, error) {
	eff, err := e.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}

	durations := cooldown.Durations{
		Daily:  eff.Duration(settings.KeyDailyCooldown),
		Work:   eff.Duration(settings.KeyWorkCooldown),
		Weekly: eff.Duration(settings.KeyWeeklyCooldown),
	}

	tracker := cooldown.NewTracker(e.store, e.cache, guildID, memberID, durations).
		WithClock(e.clock).
		WithLocker(e.guildLock(guildID)).
		OnCleared(func(ctx context.Context, typ cooldown.Type) {
			e.events.EmitCooldownCleared(ctx, guildID, memberID, typ)
		})
	return tracker, nil
}

// ──────────────────────────────────────────────────
// Currencies
// ──────────────────────────────────────────────────

// Currencies returns the guild's currency list, empty when none exist.
func (e *Economy) Currencies(ctx context.Context, guildID string) ([]currency.Currency, error) {
	return e.readCurrencies(ctx, guildID)
}

// FindCurrency resolves an identifier against the guild's currencies:
// numeric ID first, then name, then symbol, case-insensitive. It returns
// nil, not an error, when nothing matches.
func (e *Economy) FindCurrency(ctx context.Context, identifier, guildID string) (*currency.Currency, error) {
	list, err := e.readCurrencies(ctx, guildID)
	if err != nil {
		return nil, err
	}

	idx := currency.Resolve(list, identifier)
	if idx < 0 {
		return nil, nil
	}
	c := list[idx]
	return &c, nil
}

// GetCurrency is an alias for FindCurrency.
func (e *Economy) GetCurrency(ctx context.Context, identifier, guildID string) (*currency.Currency, error) {
	return e.FindCurrency(ctx, identifier, guildID)
}

// CreateCurrency adds a currency to the guild. When the name or symbol
// collides (case-insensitive, cross-checked) with an existing currency,
// the existing record is returned unchanged and no event fires.
func (e *Economy) CreateCurrency(ctx context.Context, name, symbol, guildID string) (*currency.Currency, error) {
	if name == "" {
		return nil, invalidType("name", "currency name must be a non-empty string")
	}
	if symbol == "" {
		return nil, invalidType("symbol", "currency symbol must be a non-empty string")
	}

	mu := e.guildLock(guildID)
	mu.Lock()

	list, err := e.readCurrencies(ctx, guildID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	if idx := currency.FindCollision(list, name, symbol); idx >= 0 {
		existing := list[idx]
		mu.Unlock()
		return &existing, nil
	}

	created := currency.New(currency.NextID(list), name, symbol)
	list = append(list, created)
	err = e.writeCurrencies(ctx, guildID, list)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx,
		[]cache.Partition{cache.PartitionCurrencies, cache.PartitionGuilds},
		cache.Scope{GuildID: guildID},
	)
	e.events.EmitCurrencyCreated(ctx, guildID, &created)
	return &created, nil
}

// EditCurrency mutates one property of a currency: name, symbol or the
// custom data map.
func (e *Economy) EditCurrency(ctx context.Context, identifier string, property currency.Property, value any, guildID string) (*currency.Currency, error) {
	if !currency.ValidProperty(property) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProperty, property)
	}

	// Validate the value's shape before taking the lock or reading.
	var apply func(c *currency.Currency)
	switch property {
	case currency.PropertyName:
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, invalidType("value", "currency name must be a non-empty string")
		}
		apply = func(c *currency.Currency) { c.Name = s }
	case currency.PropertySymbol:
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, invalidType("value", "currency symbol must be a non-empty string")
		}
		apply = func(c *currency.Currency) { c.Symbol = s }
	case currency.PropertyCustom:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, invalidType("value", "currency custom data must be a map")
		}
		apply = func(c *currency.Currency) { c.Custom = m }
	}

	mu := e.guildLock(guildID)
	mu.Lock()

	list, err := e.readCurrencies(ctx, guildID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	idx := currency.Resolve(list, identifier)
	if idx < 0 {
		mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrCurrencyNotFound, identifier)
	}

	c := &list[idx]
	apply(c)
	c.Touch()

	err = e.writeCurrencies(ctx, guildID, list)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx,
		[]cache.Partition{cache.PartitionCurrencies, cache.PartitionGuilds},
		cache.Scope{GuildID: guildID},
	)
	edited := list[idx]
	return &edited, nil
}

// SetCurrencyCustom replaces a currency's custom data map.
func (e *Economy) SetCurrencyCustom(ctx context.Context, identifier string, custom map[string]any, guildID string) (*currency.Currency, error) {
	return e.EditCurrency(ctx, identifier, currency.PropertyCustom, custom, guildID)
}

// GetBalance returns a member's balance in one currency, zero when the
// member has never held it.
func (e *Economy) GetBalance(ctx context.Context, identifier, memberID, guildID string) (int64, error) {
	c, err := e.FindCurrency(ctx, identifier, guildID)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, fmt.Errorf("%w: %q", ErrCurrencyNotFound, identifier)
	}
	return c.Balance(memberID), nil
}

// SetBalance overwrites a member's balance unconditionally. Negative
// amounts are stored as-is. Emits a customCurrencySet event.
func (e *Economy) SetBalance(ctx context.Context, identifier string, amount int64, memberID, guildID, reason string) (*currency.TransactionResult, error) {
	return e.applyBalance(ctx, identifier, memberID, guildID, reason, event.TypeBalanceSet, amount,
		func(int64) int64 { return amount })
}

// AddBalance increases a member's balance. Emits a customCurrencyAdd
// event and never a set event.
func (e *Economy) AddBalance(ctx context.Context, identifier string, amount int64, memberID, guildID, reason string) (*currency.TransactionResult, error) {
	return e.applyBalance(ctx, identifier, memberID, guildID, reason, event.TypeBalanceAdd, amount,
		func(old int64) int64 { return old + amount })
}

// SubtractBalance decreases a member's balance, below zero if need be.
// Emits a customCurrencySubtract event and never a set event.
func (e *Economy) SubtractBalance(ctx context.Context, identifier string, amount int64, memberID, guildID, reason string) (*currency.TransactionResult, error) {
	return e.applyBalance(ctx, identifier, memberID, guildID, reason, event.TypeBalanceSubtract, amount,
		func(old int64) int64 { return old - amount })
}

// applyBalance runs one serialized balance mutation and emits exactly one
// event of the given kind.
func (e *Economy) applyBalance(ctx context.Context, identifier, memberID, guildID, reason, eventType string, amount int64, compute func(old int64) int64) (*currency.TransactionResult, error) {
	mu := e.guildLock(guildID)
	mu.Lock()

	list, err := e.readCurrencies(ctx, guildID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	idx := currency.Resolve(list, identifier)
	if idx < 0 {
		mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrCurrencyNotFound, identifier)
	}

	c := &list[idx]
	old := c.Balance(memberID)
	updated := compute(old)
	c.SetBalance(memberID, updated)
	c.Touch()

	err = e.writeCurrencies(ctx, guildID, list)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx,
		[]cache.Partition{cache.PartitionCurrencies, cache.PartitionGuilds, cache.PartitionUsers},
		cache.Scope{GuildID: guildID, MemberID: memberID},
	)

	snapshot := list[idx]
	payload := &event.Payload{
		ID:         id.NewEventID(),
		Type:       eventType,
		GuildID:    guildID,
		MemberID:   memberID,
		Amount:     amount,
		Balance:    updated,
		OldBalance: old,
		Currency:   &snapshot,
		Reason:     reason,
	}
	switch eventType {
	case event.TypeBalanceAdd:
		e.events.EmitBalanceAdd(ctx, payload)
	case event.TypeBalanceSubtract:
		e.events.EmitBalanceSubtract(ctx, payload)
	default:
		e.events.EmitBalanceSet(ctx, payload)
	}

	e.logger.Debug("balance mutated",
		"type", eventType,
		"guild_id", guildID,
		"member_id", memberID,
		"currency_id", snapshot.ID,
		"old_balance", old,
		"new_balance", updated,
	)

	return &currency.TransactionResult{
		ID:         id.NewTransactionID(),
		Status:     currency.StatusSuccess,
		Amount:     amount,
		OldBalance: old,
		NewBalance: updated,
		Currency:   &snapshot,
		Reason:     reason,
	}, nil
}

// Leaderboard ranks a currency's balances in descending order with
// 1-based indexes.
func (e *Economy) Leaderboard(ctx context.Context, identifier, guildID string) ([]currency.LeaderboardEntry, error) {
	c, err := e.FindCurrency(ctx, identifier, guildID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrCurrencyNotFound, identifier)
	}
	return currency.Leaderboard(c), nil
}

// DeleteCurrency removes a currency and all its balances, returning the
// removed record. A miss returns nil, nil and leaves the list unchanged.
func (e *Economy) DeleteCurrency(ctx context.Context, identifier, guildID string) (*currency.Currency, error) {
	mu := e.guildLock(guildID)
	mu.Lock()

	list, err := e.readCurrencies(ctx, guildID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	idx := currency.Resolve(list, identifier)
	if idx < 0 {
		mu.Unlock()
		return nil, nil
	}

	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	err = e.writeCurrencies(ctx, guildID, list)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx,
		[]cache.Partition{cache.PartitionCurrencies, cache.PartitionGuilds},
		cache.Scope{GuildID: guildID},
	)
	e.events.EmitCurrencyDeleted(ctx, guildID, &removed)
	return &removed, nil
}

// ClearCurrencies removes every currency the guild holds. It reports
// whether any existed.
func (e *Economy) ClearCurrencies(ctx context.Context, guildID string) (bool, error) {
	mu := e.guildLock(guildID)
	mu.Lock()

	list, err := e.readCurrencies(ctx, guildID)
	if err != nil {
		mu.Unlock()
		return false, err
	}
	if len(list) == 0 {
		mu.Unlock()
		return false, nil
	}

	err = e.writeCurrencies(ctx, guildID, []currency.Currency{})
	mu.Unlock()
	if err != nil {
		return false, err
	}

	e.invalidate(ctx,
		[]cache.Partition{cache.PartitionCurrencies, cache.PartitionGuilds},
		cache.Scope{GuildID: guildID},
	)
	e.events.EmitCurrenciesCleared(ctx, guildID, len(list))
	return true, nil
}

// readCurrencies loads the guild's currency list, materializing the guild
// document on first touch.
func (e *Economy) readCurrencies(ctx context.Context, guildID string) ([]currency.Currency, error) {
	if guildID == "" {
		return nil, invalidType("guildID", "guild ID must be a non-empty string")
	}

	raw, err := e.store.Fetch(ctx, store.At(guildID, "currencies"))
	if err != nil {
		return nil, fmt.Errorf("economy: read currencies: %w", err)
	}
	if raw == nil {
		return []currency.Currency{}, nil
	}

	var list []currency.Currency
	if err := store.Decode(raw, &list); err != nil {
		return nil, fmt.Errorf("economy: decode currencies: %w", err)
	}
	if list == nil {
		list = []currency.Currency{}
	}
	return list, nil
}

func (e *Economy) writeCurrencies(ctx context.Context, guildID string, list []currency.Currency) error {
	if err := e.store.Set(ctx, store.At(guildID, "currencies"), list); err != nil {
		return fmt.Errorf("economy: write currencies: %w", err)
	}
	return nil
}
