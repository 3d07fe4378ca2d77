package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/economy/cache"
	"github.com/xraph/economy/store"
)

// Tracker reads and clears one member's cooldowns in one guild. It holds
// the full addressing context (guild ID, member ID) it was constructed
// with, plus durations resolved once at construction. Obtain one from
// the engine; a settings change after construction is not reflected.
type Tracker struct {
	store       store.Store
	invalidator cache.Invalidator
	clock       func() time.Time

	guildID   string
	memberID  string
	durations Durations

	// locker, when set, serializes clears against other writers on the
	// same guild document.
	locker sync.Locker

	// cleared, when set, is notified after a successful clear.
	cleared func(ctx context.Context, t Type)
}

// NewTracker builds a Tracker. A nil invalidator or clock falls back to
// cache.Noop and time.Now.
func NewTracker(s store.Store, inv cache.Invalidator, guildID, memberID string, d Durations) *Tracker {
	if inv == nil {
		inv = cache.Noop{}
	}
	return &Tracker{
		store:       s,
		invalidator: inv,
		clock:       time.Now,
		guildID:     guildID,
		memberID:    memberID,
		durations:   d,
	}
}

// WithClock overrides the time source, for tests.
func (t *Tracker) WithClock(clock func() time.Time) *Tracker {
	t.clock = clock
	return t
}

// WithLocker sets the lock held while a clear mutates the guild
// document. The engine passes its per-guild mutex here.
func (t *Tracker) WithLocker(l sync.Locker) *Tracker {
	t.locker = l
	return t
}

// OnCleared registers a callback notified after each successful clear.
func (t *Tracker) OnCleared(fn func(ctx context.Context, typ Type)) *Tracker {
	t.cleared = fn
	return t
}

// GuildID returns the guild this tracker addresses.
func (t *Tracker) GuildID() string { return t.guildID }

// MemberID returns the member this tracker addresses.
func (t *Tracker) MemberID() string { return t.memberID }

// Durations returns the durations captured at construction.
func (t *Tracker) Durations() Durations { return t.durations }

// Get returns the cooldown view for one reward type, or nil (no error)
// when the member has never claimed it.
func (t *Tracker) Get(ctx context.Context, typ Type) (*View, error) {
	if !Valid(typ) {
		return nil, fmt.Errorf("cooldown: unknown reward type %q", typ)
	}

	raw, ok, err := t.store.Get(ctx, t.path(typ))
	if err != nil {
		return nil, fmt.Errorf("cooldown: read %s for %s/%s: %w", typ, t.guildID, t.memberID, err)
	}
	if !ok {
		return nil, nil
	}

	var startedMs int64
	if err := store.Decode(raw, &startedMs); err != nil {
		return nil, fmt.Errorf("cooldown: decode %s for %s/%s: %w", typ, t.guildID, t.memberID, err)
	}
	if startedMs == 0 {
		// Zero timestamp means never claimed.
		return nil, nil
	}

	startedAt := time.UnixMilli(startedMs)
	return NewView(typ, startedAt, t.durations.For(typ), t.clock()), nil
}

// Daily returns the daily reward's cooldown view.
func (t *Tracker) Daily(ctx context.Context) (*View, error) { return t.Get(ctx, Daily) }

// Work returns the work reward's cooldown view.
func (t *Tracker) Work(ctx context.Context) (*View, error) { return t.Get(ctx, Work) }

// Weekly returns the weekly reward's cooldown view.
func (t *Tracker) Weekly(ctx context.Context) (*View, error) { return t.Get(ctx, Weekly) }

// Snapshot holds all three reward types' views, each nil when never
// claimed. Each view resolves independently against its own duration.
type Snapshot struct {
	Daily  *View `json:"daily"`
	Work   *View `json:"work"`
	Weekly *View `json:"weekly"`
}

// All returns the three reward types' views in one shape.
func (t *Tracker) All(ctx context.Context) (*Snapshot, error) {
	daily, err := t.Get(ctx, Daily)
	if err != nil {
		return nil, err
	}
	work, err := t.Get(ctx, Work)
	if err != nil {
		return nil, err
	}
	weekly, err := t.Get(ctx, Weekly)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Daily: daily, Work: work, Weekly: weekly}, nil
}

// Clear deletes the stored timestamp for one reward type and reports
// whether a value existed. Invalidation covers the cooldowns and users
// partitions for this member.
func (t *Tracker) Clear(ctx context.Context, typ Type) (bool, error) {
	if !Valid(typ) {
		return false, fmt.Errorf("cooldown: unknown reward type %q", typ)
	}

	if t.locker != nil {
		t.locker.Lock()
	}
	existed, err := t.store.Delete(ctx, t.path(typ))
	if t.locker != nil {
		t.locker.Unlock()
	}
	if err != nil {
		return false, fmt.Errorf("cooldown: clear %s for %s/%s: %w", typ, t.guildID, t.memberID, err)
	}
	if !existed {
		return false, nil
	}

	// Best-effort invalidation; the clear already succeeded.
	_ = t.invalidator.UpdateMany(ctx, //nolint:errcheck
		[]cache.Partition{cache.PartitionCooldowns, cache.PartitionUsers},
		cache.Scope{GuildID: t.guildID, MemberID: t.memberID},
	)

	if t.cleared != nil {
		t.cleared(ctx, typ)
	}
	return true, nil
}

// ClearDaily clears the daily reward's cooldown.
func (t *Tracker) ClearDaily(ctx context.Context) (bool, error) { return t.Clear(ctx, Daily) }

// ClearWork clears the work reward's cooldown.
func (t *Tracker) ClearWork(ctx context.Context) (bool, error) { return t.Clear(ctx, Work) }

// ClearWeekly clears the weekly reward's cooldown.
func (t *Tracker) ClearWeekly(ctx context.Context) (bool, error) { return t.Clear(ctx, Weekly) }

func (t *Tracker) path(typ Type) store.Path {
	return store.At(t.guildID, "cooldowns", t.memberID, string(typ))
}
