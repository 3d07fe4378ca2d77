// Package audithook bridges Economy lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/event"
	"github.com/xraph/economy/settings"
)

// Compile-time interface checks.
var (
	_ event.Subscriber          = (*Extension)(nil)
	_ event.OnBalanceSet        = (*Extension)(nil)
	_ event.OnBalanceAdd        = (*Extension)(nil)
	_ event.OnBalanceSubtract   = (*Extension)(nil)
	_ event.OnCurrencyCreated   = (*Extension)(nil)
	_ event.OnCurrencyDeleted   = (*Extension)(nil)
	_ event.OnCurrenciesCleared = (*Extension)(nil)
	_ event.OnSettingChanged    = (*Extension)(nil)
	_ event.OnSettingsReset     = (*Extension)(nil)
	_ event.OnCooldownCleared   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so that callers can inject any concrete backend at
// wiring time without a module dependency here.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	GuildID    string         `json:"guild_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Economy lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements event.Subscriber.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnBalanceSet implements event.OnBalanceSet.
func (e *Extension) OnBalanceSet(ctx context.Context, p *event.Payload) error {
	return e.recordBalance(ctx, ActionBalanceSet, p)
}

// OnBalanceAdd implements event.OnBalanceAdd.
func (e *Extension) OnBalanceAdd(ctx context.Context, p *event.Payload) error {
	return e.recordBalance(ctx, ActionBalanceAdded, p)
}

// OnBalanceSubtract implements event.OnBalanceSubtract.
func (e *Extension) OnBalanceSubtract(ctx context.Context, p *event.Payload) error {
	return e.recordBalance(ctx, ActionBalanceSubtracted, p)
}

func (e *Extension) recordBalance(ctx context.Context, action string, p *event.Payload) error {
	kvPairs := []any{
		"event", p.Type,
		"member_id", p.MemberID,
		"amount", p.Amount,
		"old_balance", p.OldBalance,
		"new_balance", p.Balance,
	}
	if p.Currency != nil {
		kvPairs = append(kvPairs, "currency", p.Currency.Name)
	}
	if p.Reason != "" {
		kvPairs = append(kvPairs, "reason", p.Reason)
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceBalance, p.ID.String(), CategoryEconomy, p.GuildID,
		kvPairs...,
	)
}

// ──────────────────────────────────────────────────
// Currency hooks
// ──────────────────────────────────────────────────

// OnCurrencyCreated implements event.OnCurrencyCreated.
func (e *Extension) OnCurrencyCreated(ctx context.Context, guildID string, c *currency.Currency) error {
	return e.record(ctx, ActionCurrencyCreated, SeverityInfo, OutcomeSuccess,
		ResourceCurrency, strconv.Itoa(c.ID), CategoryEconomy, guildID,
		"name", c.Name,
		"symbol", c.Symbol,
	)
}

// OnCurrencyDeleted implements event.OnCurrencyDeleted.
func (e *Extension) OnCurrencyDeleted(ctx context.Context, guildID string, c *currency.Currency) error {
	return e.record(ctx, ActionCurrencyDeleted, SeverityWarning, OutcomeSuccess,
		ResourceCurrency, strconv.Itoa(c.ID), CategoryEconomy, guildID,
		"name", c.Name,
		"symbol", c.Symbol,
		"holders", len(c.Balances),
	)
}

// OnCurrenciesCleared implements event.OnCurrenciesCleared.
func (e *Extension) OnCurrenciesCleared(ctx context.Context, guildID string, removed int) error {
	return e.record(ctx, ActionCurrenciesCleared, SeverityWarning, OutcomeSuccess,
		ResourceCurrency, "", CategoryEconomy, guildID,
		"removed", removed,
	)
}

// ──────────────────────────────────────────────────
// Settings hooks
// ──────────────────────────────────────────────────

// OnSettingChanged implements event.OnSettingChanged. A nil value means
// the override was removed.
func (e *Extension) OnSettingChanged(ctx context.Context, guildID string, key settings.Key, value any) error {
	kvPairs := []any{"key", string(key)}
	if value != nil {
		kvPairs = append(kvPairs, "value", value)
	} else {
		kvPairs = append(kvPairs, "removed", true)
	}
	return e.record(ctx, ActionSettingChanged, SeverityInfo, OutcomeSuccess,
		ResourceSettings, string(key), CategoryConfiguration, guildID,
		kvPairs...,
	)
}

// OnSettingsReset implements event.OnSettingsReset.
func (e *Extension) OnSettingsReset(ctx context.Context, guildID string) error {
	return e.record(ctx, ActionSettingsReset, SeverityWarning, OutcomeSuccess,
		ResourceSettings, "", CategoryConfiguration, guildID,
		"event", "settings_reset",
	)
}

// ──────────────────────────────────────────────────
// Cooldown hooks
// ──────────────────────────────────────────────────

// OnCooldownCleared implements event.OnCooldownCleared.
func (e *Extension) OnCooldownCleared(ctx context.Context, guildID, memberID string, typ cooldown.Type) error {
	return e.record(ctx, ActionCooldownCleared, SeverityInfo, OutcomeSuccess,
		ResourceCooldown, string(typ), CategoryEconomy, guildID,
		"member_id", memberID,
		"type", string(typ),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category, guildID string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		GuildID:    guildID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"guild_id", guildID,
			"error", recErr,
		)
	}
	return nil
}
