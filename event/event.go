// Package event provides the publish/subscribe surface of the economy
// engine. Subscribers implement the base Subscriber interface plus any
// of the typed hook interfaces below; the Registry discovers the hooks
// once at registration and dispatches without reflection afterwards.
package event

import (
	"context"

	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/currency"
	"github.com/xraph/economy/id"
	"github.com/xraph/economy/settings"
)

// Balance event names, as they appear on the wire and in Payload.Type.
const (
	TypeBalanceSet      = "customCurrencySet"
	TypeBalanceAdd      = "customCurrencyAdd"
	TypeBalanceSubtract = "customCurrencySubtract"
)

// Payload describes one balance mutation. Exactly one balance event is
// emitted per mutation: a plain set emits TypeBalanceSet, while add and
// subtract emit only their own kind, never a set event as well.
type Payload struct {
	ID         id.ID              `json:"id"`
	Type       string             `json:"type"`
	GuildID    string             `json:"guildID"`
	MemberID   string             `json:"memberID"`
	Amount     int64              `json:"amount"`
	Balance    int64              `json:"balance"`
	OldBalance int64              `json:"oldBalance"`
	Currency   *currency.Currency `json:"currency"`
	Reason     string             `json:"reason,omitempty"`
}

// Subscriber is the base interface all subscribers must implement.
type Subscriber interface {
	Name() string
}

// OnInit is called when the engine starts.
type OnInit interface {
	Subscriber
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Subscriber
	OnShutdown(ctx context.Context) error
}

// OnBalanceSet is called after a plain balance overwrite.
type OnBalanceSet interface {
	Subscriber
	OnBalanceSet(ctx context.Context, p *Payload) error
}

// OnBalanceAdd is called after a balance addition.
type OnBalanceAdd interface {
	Subscriber
	OnBalanceAdd(ctx context.Context, p *Payload) error
}

// OnBalanceSubtract is called after a balance subtraction.
type OnBalanceSubtract interface {
	Subscriber
	OnBalanceSubtract(ctx context.Context, p *Payload) error
}

// OnCurrencyCreated is called when a new currency is created. It does not
// fire when create returns an existing currency on a name/symbol collision.
type OnCurrencyCreated interface {
	Subscriber
	OnCurrencyCreated(ctx context.Context, guildID string, c *currency.Currency) error
}

// OnCurrencyDeleted is called when a currency and its balances are removed.
type OnCurrencyDeleted interface {
	Subscriber
	OnCurrencyDeleted(ctx context.Context, guildID string, c *currency.Currency) error
}

// OnCurrenciesCleared is called when a guild's whole currency list is wiped.
type OnCurrenciesCleared interface {
	Subscriber
	OnCurrenciesCleared(ctx context.Context, guildID string, removed int) error
}

// OnSettingChanged is called after a setting override is written or
// removed; value is nil on removal.
type OnSettingChanged interface {
	Subscriber
	OnSettingChanged(ctx context.Context, guildID string, key settings.Key, value any) error
}

// OnSettingsReset is called after a guild's override map is cleared.
type OnSettingsReset interface {
	Subscriber
	OnSettingsReset(ctx context.Context, guildID string) error
}

// OnCooldownCleared is called after a member's cooldown is cleared.
type OnCooldownCleared interface {
	Subscriber
	OnCooldownCleared(ctx context.Context, guildID, memberID string, typ cooldown.Type) error
}
