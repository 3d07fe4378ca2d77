// Package cache defines the invalidation contract the economy engine
// signals after every successful mutation. Invalidation is best-effort:
// the engine logs a failed UpdateMany but never fails the triggering
// operation over it.
package cache

import "context"

// Partition names a cache partition that a mutation makes stale.
type Partition string

const (
	PartitionCurrencies Partition = "currencies"
	PartitionGuilds     Partition = "guilds"
	PartitionCooldowns  Partition = "cooldowns"
	PartitionUsers      Partition = "users"
)

// Scope narrows an invalidation to a guild and, optionally, one member.
type Scope struct {
	GuildID  string
	MemberID string
}

// Invalidator receives staleness signals. Implementations drop whatever
// they hold for the named partitions within the scope.
type Invalidator interface {
	UpdateMany(ctx context.Context, partitions []Partition, scope Scope) error
}

// Noop is an Invalidator that does nothing, used when no cache layer
// is wired.
type Noop struct{}

// UpdateMany implements Invalidator.
func (Noop) UpdateMany(context.Context, []Partition, Scope) error { return nil }
