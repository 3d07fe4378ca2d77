package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/settings"
)

// Registry manages all registered subscribers and dispatches events to
// them. Hook interfaces are type-cached at registration for cheap
// dispatch. Subscriber errors are logged and never propagated to the
// operation that emitted the event.
type Registry struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	logger      *slog.Logger

	// Type-cached subscriber lists for dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onBalanceSet        []OnBalanceSet
	onBalanceAdd        []OnBalanceAdd
	onBalanceSubtract   []OnBalanceSubtract
	onCurrencyCreated   []OnCurrencyCreated
	onCurrencyDeleted   []OnCurrencyDeleted
	onCurrenciesCleared []OnCurrenciesCleared
	onSettingChanged    []OnSettingChanged
	onSettingsReset     []OnSettingsReset
	onCooldownCleared   []OnCooldownCleared
}

// NewRegistry creates an empty subscriber registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a subscriber to the registry and caches its hook
// interfaces. Registering two subscribers with the same name is an error.
func (r *Registry) Register(s Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.subscribers {
		if existing.Name() == s.Name() {
			return fmt.Errorf("event: duplicate subscriber: %s", s.Name())
		}
	}

	r.subscribers = append(r.subscribers, s)

	if v, ok := s.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := s.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := s.(OnBalanceSet); ok {
		r.onBalanceSet = append(r.onBalanceSet, v)
	}
	if v, ok := s.(OnBalanceAdd); ok {
		r.onBalanceAdd = append(r.onBalanceAdd, v)
	}
	if v, ok := s.(OnBalanceSubtract); ok {
		r.onBalanceSubtract = append(r.onBalanceSubtract, v)
	}
	if v, ok := s.(OnCurrencyCreated); ok {
		r.onCurrencyCreated = append(r.onCurrencyCreated, v)
	}
	if v, ok := s.(OnCurrencyDeleted); ok {
		r.onCurrencyDeleted = append(r.onCurrencyDeleted, v)
	}
	if v, ok := s.(OnCurrenciesCleared); ok {
		r.onCurrenciesCleared = append(r.onCurrenciesCleared, v)
	}
	if v, ok := s.(OnSettingChanged); ok {
		r.onSettingChanged = append(r.onSettingChanged, v)
	}
	if v, ok := s.(OnSettingsReset); ok {
		r.onSettingsReset = append(r.onSettingsReset, v)
	}
	if v, ok := s.(OnCooldownCleared); ok {
		r.onCooldownCleared = append(r.onCooldownCleared, v)
	}

	return nil
}

// Subscribers returns the names of all registered subscribers.
func (r *Registry) Subscribers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.subscribers))
	for i, s := range r.subscribers {
		names[i] = s.Name()
	}
	return names
}

func (r *Registry) logErr(sub Subscriber, hook string, err error) {
	if err != nil {
		r.logger.Warn("economy: subscriber hook failed",
			"subscriber", sub.Name(),
			"hook", hook,
			"error", err,
		)
	}
}

// EmitInit notifies OnInit subscribers.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onInit {
		r.logErr(s, "OnInit", s.OnInit(ctx, engine))
	}
}

// EmitShutdown notifies OnShutdown subscribers.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onShutdown {
		r.logErr(s, "OnShutdown", s.OnShutdown(ctx))
	}
}

// EmitBalanceSet notifies OnBalanceSet subscribers.
func (r *Registry) EmitBalanceSet(ctx context.Context, p *Payload) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onBalanceSet {
		r.logErr(s, "OnBalanceSet", s.OnBalanceSet(ctx, p))
	}
}

// EmitBalanceAdd notifies OnBalanceAdd subscribers.
func (r *Registry) EmitBalanceAdd(ctx context.Context, p *Payload) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onBalanceAdd {
		r.logErr(s, "OnBalanceAdd", s.OnBalanceAdd(ctx, p))
	}
}

// EmitBalanceSubtract notifies OnBalanceSubtract subscribers.
func (r *Registry) EmitBalanceSubtract(ctx context.Context, p *Payload) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onBalanceSubtract {
		r.logErr(s, "OnBalanceSubtract", s.OnBalanceSubtract(ctx, p))
	}
}

// EmitCurrencyCreated notifies OnCurrencyCreated subscribers.
func (r *Registry) EmitCurrencyCreated(ctx context.Context, guildID string, c *currency.Currency) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onCurrencyCreated {
		r.logErr(s, "OnCurrencyCreated", s.OnCurrencyCreated(ctx, guildID, c))
	}
}

// EmitCurrencyDeleted notifies OnCurrencyDeleted subscribers.
func (r *Registry) EmitCurrencyDeleted(ctx context.Context, guildID string, c *currency.Currency) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onCurrencyDeleted {
		r.logErr(s, "OnCurrencyDeleted", s.OnCurrencyDeleted(ctx, guildID, c))
	}
}

// EmitCurrenciesCleared notifies OnCurrenciesCleared subscribers.
func (r *Registry) EmitCurrenciesCleared(ctx context.Context, guildID string, removed int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onCurrenciesCleared {
		r.logErr(s, "OnCurrenciesCleared", s.OnCurrenciesCleared(ctx, guildID, removed))
	}
}

// EmitSettingChanged notifies OnSettingChanged subscribers.
func (r *Registry) EmitSettingChanged(ctx context.Context, guildID string, key settings.Key, value any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onSettingChanged {
		r.logErr(s, "OnSettingChanged", s.OnSettingChanged(ctx, guildID, key, value))
	}
}

// EmitSettingsReset notifies OnSettingsReset subscribers.
func (r *Registry) EmitSettingsReset(ctx context.Context, guildID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onSettingsReset {
		r.logErr(s, "OnSettingsReset", s.OnSettingsReset(ctx, guildID))
	}
}

// EmitCooldownCleared notifies OnCooldownCleared subscribers.
func (r *Registry) EmitCooldownCleared(ctx context.Context, guildID, memberID string, typ cooldown.Type) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.onCooldownCleared {
		r.logErr(s, "OnCooldownCleared", s.OnCooldownCleared(ctx, guildID, memberID, typ))
	}
}
