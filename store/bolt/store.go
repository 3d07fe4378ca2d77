// Package bolt provides an embedded document store backed by bbolt.
// Each guild document is one JSON value in a single bucket, and subpath
// operations are applied in Go inside a bbolt transaction.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/docpath"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

var bucketGuilds = []byte("guilds")

// Store implements store.Store over a bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the bbolt file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("economy/bolt: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// New wraps an already opened bbolt database.
func New(db *bbolt.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(_ context.Context, path store.Path) (any, bool, error) {
	if !path.Valid() {
		return nil, false, economy.ErrPathMalformed
	}

	guildID, parts := path.Split()

	var value any
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		doc, err := readDoc(tx, guildID)
		if err != nil || doc == nil {
			return err
		}
		value, found = docpath.Get(doc, parts)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (s *Store) Set(_ context.Context, path store.Path, value any) error {
	if !path.Valid() {
		return economy.ErrPathMalformed
	}

	normalized, err := store.Normalize(value)
	if err != nil {
		return err
	}

	guildID, parts := path.Split()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketGuilds)
		if err != nil {
			return err
		}

		doc, err := readDoc(tx, guildID)
		if err != nil {
			return err
		}
		if doc == nil {
			doc = make(map[string]any)
		}

		if len(parts) == 0 {
			m, ok := normalized.(map[string]any)
			if !ok {
				return economy.ErrPathMalformed
			}
			doc = m
		} else {
			docpath.Set(doc, parts, normalized)
		}

		return writeDoc(b, guildID, doc)
	})
}

func (s *Store) Delete(_ context.Context, path store.Path) (bool, error) {
	if !path.Valid() {
		return false, economy.ErrPathMalformed
	}

	guildID, parts := path.Split()

	var existed bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketGuilds)
		if b == nil {
			return nil
		}

		doc, err := readDoc(tx, guildID)
		if err != nil || doc == nil {
			return err
		}

		if len(parts) == 0 {
			existed = true
			return b.Delete([]byte(guildID))
		}

		if existed = docpath.Delete(doc, parts); !existed {
			return nil
		}
		return writeDoc(b, guildID, doc)
	})
	return existed, err
}

func (s *Store) Fetch(ctx context.Context, path store.Path) (any, error) {
	if !path.Valid() {
		return nil, economy.ErrPathMalformed
	}

	guildID, _ := path.Split()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketGuilds)
		if err != nil {
			return err
		}
		if b.Get([]byte(guildID)) == nil {
			return writeDoc(b, guildID, map[string]any{})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	v, _, err := s.Get(ctx, path)
	return v, err
}

// Migrate creates the guilds bucket.
func (s *Store) Migrate(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketGuilds)
		return err
	})
}

func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func (s *Store) Close() error {
	return s.db.Close()
}

func readDoc(tx *bbolt.Tx, guildID string) (map[string]any, error) {
	b := tx.Bucket(bucketGuilds)
	if b == nil {
		return nil, nil
	}
	raw := b.Get([]byte(guildID))
	if raw == nil {
		return nil, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("economy/bolt: decode guild %s: %w", guildID, err)
	}
	return doc, nil
}

func writeDoc(b *bbolt.Bucket, guildID string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("economy/bolt: encode guild %s: %w", guildID, err)
	}
	return b.Put([]byte(guildID), raw)
}
