// Package currency defines the guild-scoped currency record and the pure
// logic over a guild's currency list: identifier resolution, uniqueness
// checks, ID assignment, and leaderboard ranking. Records handed to
// callers are transient views built fresh per call; the persisted guild
// document is the only copy of record.
package currency

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xraph/economy/id"
)

// Currency is one named, symboled currency inside a guild. Balances map
// member IDs to integer amounts; entries appear lazily on first write and
// may go negative (mutations do not floor at zero).
type Currency struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Symbol    string           `json:"symbol"`
	Balances  map[string]int64 `json:"balances"`
	Custom    map[string]any   `json:"custom,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// New builds a fresh currency record. Every call allocates new maps; a
// record is never shared between creations.
func New(currencyID int, name, symbol string) Currency {
	now := time.Now().UTC()
	return Currency{
		ID:        currencyID,
		Name:      name,
		Symbol:    symbol,
		Balances:  make(map[string]int64),
		Custom:    make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (c *Currency) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// Balance returns the member's recorded balance, zero when absent.
func (c *Currency) Balance(memberID string) int64 {
	return c.Balances[memberID]
}

// SetBalance overwrites the member's balance unconditionally, creating
// the entry (and the map, after a decode round trip) as needed.
func (c *Currency) SetBalance(memberID string, amount int64) {
	if c.Balances == nil {
		c.Balances = make(map[string]int64)
	}
	c.Balances[memberID] = amount
}

// Property is a currency field that EditCurrency may mutate.
type Property string

const (
	PropertyName   Property = "name"
	PropertySymbol Property = "symbol"
	PropertyCustom Property = "custom"
)

// ValidProperty reports whether p names an editable field.
func ValidProperty(p Property) bool {
	switch p {
	case PropertyName, PropertySymbol, PropertyCustom:
		return true
	default:
		return false
	}
}

// NextID returns the ID for the next created currency:
// max(existing) + 1, starting at 1 for an empty list.
func NextID(list []Currency) int {
	maxID := 0
	for i := range list {
		if list[i].ID > maxID {
			maxID = list[i].ID
		}
	}
	return maxID + 1
}

// Resolve finds a currency by identifier. Numeric identifiers match IDs
// first, then the name, then the symbol, both case-insensitive; the first
// match in that precedence order wins. Returns the index into list, or -1.
func Resolve(list []Currency, identifier string) int {
	if n, err := strconv.Atoi(identifier); err == nil {
		for i := range list {
			if list[i].ID == n {
				return i
			}
		}
	}
	for i := range list {
		if strings.EqualFold(list[i].Name, identifier) {
			return i
		}
	}
	for i := range list {
		if strings.EqualFold(list[i].Symbol, identifier) {
			return i
		}
	}
	return -1
}

// FindCollision returns the index of a currency whose name or symbol
// matches (case-insensitive) either of the given name/symbol, or -1.
// Uniqueness is enforced only here, at creation time.
func FindCollision(list []Currency, name, symbol string) int {
	for i := range list {
		if strings.EqualFold(list[i].Name, name) ||
			strings.EqualFold(list[i].Symbol, symbol) ||
			strings.EqualFold(list[i].Name, symbol) ||
			strings.EqualFold(list[i].Symbol, name) {
			return i
		}
	}
	return -1
}

// LeaderboardEntry is one ranked row of a currency's balances.
type LeaderboardEntry struct {
	Index  int    `json:"index"` // 1-based rank
	UserID string `json:"userID"`
	Money  int64  `json:"money"`
}

// Leaderboard ranks a currency's balances in descending order. Ties keep
// a deterministic order: member IDs sort ascending before the stable sort
// by balance, so tied members appear in member-ID order.
func Leaderboard(c *Currency) []LeaderboardEntry {
	if len(c.Balances) == 0 {
		return []LeaderboardEntry{}
	}

	members := make([]string, 0, len(c.Balances))
	for memberID := range c.Balances {
		members = append(members, memberID)
	}
	sort.Strings(members)
	sort.SliceStable(members, func(i, j int) bool {
		return c.Balances[members[i]] > c.Balances[members[j]]
	})

	entries := make([]LeaderboardEntry, len(members))
	for i, memberID := range members {
		entries[i] = LeaderboardEntry{
			Index:  i + 1,
			UserID: memberID,
			Money:  c.Balances[memberID],
		}
	}
	return entries
}

// TransactionStatus reports the outcome recorded on a TransactionResult.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "success"
)

// TransactionResult describes one completed balance mutation.
type TransactionResult struct {
	ID         id.ID             `json:"id"`
	Status     TransactionStatus `json:"status"`
	Amount     int64             `json:"amount"`
	OldBalance int64             `json:"oldBalance"`
	NewBalance int64             `json:"newBalance"`
	Currency   *Currency         `json:"currency"`
	Reason     string            `json:"reason,omitempty"`
}
