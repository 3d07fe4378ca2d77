// Package observability provides a metrics subscriber for Economy that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/event"
	"github.com/xraph/economy/settings"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ event.Subscriber          = (*MetricsExtension)(nil)
	_ event.OnInit              = (*MetricsExtension)(nil)
	_ event.OnBalanceSet        = (*MetricsExtension)(nil)
	_ event.OnBalanceAdd        = (*MetricsExtension)(nil)
	_ event.OnBalanceSubtract   = (*MetricsExtension)(nil)
	_ event.OnCurrencyCreated   = (*MetricsExtension)(nil)
	_ event.OnCurrencyDeleted   = (*MetricsExtension)(nil)
	_ event.OnCurrenciesCleared = (*MetricsExtension)(nil)
	_ event.OnSettingChanged    = (*MetricsExtension)(nil)
	_ event.OnSettingsReset     = (*MetricsExtension)(nil)
	_ event.OnCooldownCleared   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an Economy subscriber to automatically track economy
// activity.
type MetricsExtension struct {
	factory MetricFactory

	// Balance metrics
	BalanceSet        Counter
	BalanceAdded      Counter
	BalanceSubtracted Counter
	TransactionAmount Histogram

	// Currency metrics
	CurrencyCreated   Counter
	CurrencyDeleted   Counter
	CurrenciesCleared Counter

	// Settings metrics
	SettingChanged Counter
	SettingsReset  Counter

	// Cooldown metrics
	CooldownCleared Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided
// MetricFactory. Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Balance metrics
		BalanceSet:        factory.Counter("economy.balance.set"),
		BalanceAdded:      factory.Counter("economy.balance.added"),
		BalanceSubtracted: factory.Counter("economy.balance.subtracted"),
		TransactionAmount: factory.Histogram("economy.transaction.amount"),

		// Currency metrics
		CurrencyCreated:   factory.Counter("economy.currency.created"),
		CurrencyDeleted:   factory.Counter("economy.currency.deleted"),
		CurrenciesCleared: factory.Counter("economy.currency.cleared"),

		// Settings metrics
		SettingChanged: factory.Counter("economy.setting.changed"),
		SettingsReset:  factory.Counter("economy.settings.reset"),

		// Cooldown metrics
		CooldownCleared: factory.Counter("economy.cooldown.cleared"),
	}
}

// Name implements event.Subscriber.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements event.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceSet implements event.OnBalanceSet.
func (m *MetricsExtension) OnBalanceSet(_ context.Context, p *event.Payload) error {
	m.BalanceSet.Inc()
	m.TransactionAmount.Observe(float64(p.Amount))
	return nil
}

// OnBalanceAdd implements event.OnBalanceAdd.
func (m *MetricsExtension) OnBalanceAdd(_ context.Context, p *event.Payload) error {
	m.BalanceAdded.Inc()
	m.TransactionAmount.Observe(float64(p.Amount))
	return nil
}

// OnBalanceSubtract implements event.OnBalanceSubtract.
func (m *MetricsExtension) OnBalanceSubtract(_ context.Context, p *event.Payload) error {
	m.BalanceSubtracted.Inc()
	m.TransactionAmount.Observe(float64(p.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Currency hooks
// ──────────────────────────────────────────────────

// OnCurrencyCreated implements event.OnCurrencyCreated.
func (m *MetricsExtension) OnCurrencyCreated(_ context.Context, _ string, _ *currency.Currency) error {
	m.CurrencyCreated.Inc()
	return nil
}

// OnCurrencyDeleted implements event.OnCurrencyDeleted.
func (m *MetricsExtension) OnCurrencyDeleted(_ context.Context, _ string, _ *currency.Currency) error {
	m.CurrencyDeleted.Inc()
	return nil
}

// OnCurrenciesCleared implements event.OnCurrenciesCleared.
func (m *MetricsExtension) OnCurrenciesCleared(_ context.Context, _ string, removed int) error {
	m.CurrenciesCleared.Inc()
	m.CurrencyDeleted.Add(float64(removed))
	return nil
}

// ──────────────────────────────────────────────────
// Settings hooks
// ──────────────────────────────────────────────────

// OnSettingChanged implements event.OnSettingChanged.
func (m *MetricsExtension) OnSettingChanged(_ context.Context, _ string, _ settings.Key, _ any) error {
	m.SettingChanged.Inc()
	return nil
}

// OnSettingsReset implements event.OnSettingsReset.
func (m *MetricsExtension) OnSettingsReset(_ context.Context, _ string) error {
	m.SettingsReset.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Cooldown hooks
// ──────────────────────────────────────────────────

// OnCooldownCleared implements event.OnCooldownCleared.
func (m *MetricsExtension) OnCooldownCleared(_ context.Context, _, _ string, _ cooldown.Type) error {
	m.CooldownCleared.Inc()
	return nil
}
