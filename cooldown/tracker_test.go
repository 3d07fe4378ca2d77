package cooldown_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/economy/cache"
	"github.com/xraph/economy/cooldown"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/memory"
)

type recordingInvalidator struct {
	partitions []cache.Partition
	scope      cache.Scope
	calls      int
}

func (r *recordingInvalidator) UpdateMany(_ context.Context, partitions []cache.Partition, scope cache.Scope) error {
	r.partitions = partitions
	r.scope = scope
	r.calls++
	return nil
}

func testDurations() cooldown.Durations {
	return cooldown.Durations{
		Daily:  24 * time.Hour,
		Work:   time.Hour,
		Weekly: 7 * 24 * time.Hour,
	}
}

func TestGetNeverClaimed(t *testing.T) {
	s := memory.New()
	tr := cooldown.NewTracker(s, nil, "g1", "m1", testDurations())

	v, err := tr.Daily(context.Background())
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if v != nil {
		t.Errorf("got %+v, want nil for never claimed", v)
	}
}

func TestGetZeroTimestampIsNeverClaimed(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	if err := s.Set(ctx, store.At("g1", "cooldowns", "m1", "daily"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	tr := cooldown.NewTracker(s, nil, "g1", "m1", testDurations())
	v, err := tr.Daily(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if v != nil {
		t.Errorf("got %+v, want nil for zero timestamp", v)
	}
}

func TestGetActiveWindow(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	started := time.UnixMilli(1_700_000_000_000)
	if err := s.Set(ctx, store.At("g1", "cooldowns", "m1", "work"), started.UnixMilli()); err != nil {
		t.Fatalf("set: %v", err)
	}

	now := started.Add(20 * time.Minute)
	tr := cooldown.NewTracker(s, nil, "g1", "m1", testDurations()).
		WithClock(func() time.Time { return now })

	v, err := tr.Work(ctx)
	if err != nil {
		t.Fatalf("work: %v", err)
	}
	if v == nil {
		t.Fatal("got nil view for active window")
	}
	if v.Remaining != 40*time.Minute {
		t.Errorf("Remaining = %v, want 40m", v.Remaining)
	}
	if v.Ready() {
		t.Error("active window reported ready")
	}
}

func TestAllResolvesIndependently(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	started := time.UnixMilli(1_700_000_000_000)
	if err := s.Set(ctx, store.At("g1", "cooldowns", "m1", "daily"), started.UnixMilli()); err != nil {
		t.Fatalf("set daily: %v", err)
	}
	if err := s.Set(ctx, store.At("g1", "cooldowns", "m1", "work"), started.UnixMilli()); err != nil {
		t.Fatalf("set work: %v", err)
	}

	// Two hours in: work (1h) has expired, daily (24h) is still active,
	// weekly was never claimed.
	now := started.Add(2 * time.Hour)
	tr := cooldown.NewTracker(s, nil, "g1", "m1", testDurations()).
		WithClock(func() time.Time { return now })

	all, err := tr.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all.Daily == nil || all.Daily.Ready() {
		t.Error("daily should be active")
	}
	if all.Work == nil || !all.Work.Ready() {
		t.Error("work should be expired (ready)")
	}
	if all.Weekly != nil {
		t.Error("weekly should be nil (never claimed)")
	}
}

func TestClear(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	inv := &recordingInvalidator{}

	if err := s.Set(ctx, store.At("g1", "cooldowns", "m1", "daily"), 1_700_000_000_000); err != nil {
		t.Fatalf("set: %v", err)
	}

	var clearedType cooldown.Type
	tr := cooldown.NewTracker(s, inv, "g1", "m1", testDurations()).
		OnCleared(func(_ context.Context, typ cooldown.Type) { clearedType = typ })

	existed, err := tr.ClearDaily(ctx)
	if err != nil || !existed {
		t.Fatalf("clear: existed=%v err=%v", existed, err)
	}
	if clearedType != cooldown.Daily {
		t.Errorf("cleared callback got %q, want daily", clearedType)
	}
	if inv.calls != 1 {
		t.Fatalf("invalidator calls = %d, want 1", inv.calls)
	}
	wantPartitions := []cache.Partition{cache.PartitionCooldowns, cache.PartitionUsers}
	if len(inv.partitions) != 2 || inv.partitions[0] != wantPartitions[0] || inv.partitions[1] != wantPartitions[1] {
		t.Errorf("partitions = %v, want %v", inv.partitions, wantPartitions)
	}
	if inv.scope.GuildID != "g1" || inv.scope.MemberID != "m1" {
		t.Errorf("scope = %+v", inv.scope)
	}

	// Second clear finds nothing and stays silent.
	existed, err = tr.ClearDaily(ctx)
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if existed {
		t.Error("second clear reported a value")
	}
	if inv.calls != 1 {
		t.Errorf("invalidator called on no-op clear")
	}
}

func TestUnknownType(t *testing.T) {
	tr := cooldown.NewTracker(memory.New(), nil, "g1", "m1", testDurations())

	if _, err := tr.Get(context.Background(), "monthly"); err == nil {
		t.Error("expected error for unknown reward type")
	}
	if _, err := tr.Clear(context.Background(), "monthly"); err == nil {
		t.Error("expected error for unknown reward type")
	}
}
