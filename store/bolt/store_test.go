package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xraph/economy/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "economy.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, store.At("g1", "settings", "workAmount"), 75); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := s.Get(ctx, store.At("g1", "settings", "workAmount"))
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != float64(75) {
		t.Errorf("got %v, want 75", v)
	}

	existed, err := s.Delete(ctx, store.At("g1", "settings", "workAmount"))
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}

	_, ok, err = s.Get(ctx, store.At("g1", "settings", "workAmount"))
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if ok {
		t.Error("value still present after delete")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "economy.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, store.At("g1", "currencies"), []map[string]any{{"id": 1, "name": "Gold", "symbol": "G"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, ok, err := s2.Get(ctx, store.At("g1", "currencies"))
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}

	var list []map[string]any
	if err := store.Decode(v, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0]["name"] != "Gold" {
		t.Errorf("got %v", list)
	}
}

func TestFetchMaterializes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.Fetch(ctx, store.At("fresh", "settings"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if v != nil {
		t.Errorf("absent subpath: got %v, want nil", v)
	}

	doc, ok, err := s.Get(ctx, store.At("fresh"))
	if err != nil || !ok {
		t.Fatalf("guild document not materialized: ok=%v err=%v", ok, err)
	}
	if len(doc.(map[string]any)) != 0 {
		t.Errorf("materialized document not empty: %v", doc)
	}
}

func TestDeleteAbsent(t *testing.T) {
	s := openTestStore(t)

	existed, err := s.Delete(context.Background(), store.At("nope", "settings", "dailyAmount"))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if existed {
		t.Error("delete of absent path reported a value")
	}
}
