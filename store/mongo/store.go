// Package mongo implements the document store on MongoDB via Grove ORM.
// Each guild is one document in the economy_guilds collection; subpath
// writes translate to dotted $set / $unset updates so concurrent guilds
// never contend.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/docpath"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// guildModel is the persisted shape: the guild ID as _id and the whole
// document tree under one field.
type guildModel struct {
	grove.BaseModel `grove:"table:economy_guilds"`

	ID        string         `grove:"guild_id,pk" bson:"_id"`
	Doc       map[string]any `grove:"doc"         bson:"doc"`
	UpdatedAt time.Time      `grove:"updated_at"  bson:"updated_at"`
}

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate is a no-op: lookups go through _id, which MongoDB indexes on
// its own.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, path store.Path) (any, bool, error) {
	if !path.Valid() {
		return nil, false, economy.ErrPathMalformed
	}

	guildID, parts := path.Split()
	doc, found, err := s.readDoc(ctx, guildID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if len(parts) == 0 {
		normalized, err := store.Normalize(doc)
		if err != nil {
			return nil, false, err
		}
		return normalized, true, nil
	}

	v, ok := docpath.Get(doc, parts)
	if !ok {
		return nil, false, nil
	}
	normalized, err := store.Normalize(v)
	if err != nil {
		return nil, false, err
	}
	return normalized, true, nil
}

func (s *Store) Set(ctx context.Context, path store.Path, value any) error {
	if !path.Valid() {
		return economy.ErrPathMalformed
	}

	normalized, err := store.Normalize(value)
	if err != nil {
		return err
	}

	guildID, parts := path.Split()
	t := time.Now().UTC()

	if len(parts) == 0 {
		m, ok := normalized.(map[string]any)
		if !ok {
			return economy.ErrPathMalformed
		}
		_, err := s.mdb.NewUpdate((*guildModel)(nil)).
			Filter(bson.M{"_id": guildID}).
			SetUpdate(bson.M{"$set": bson.M{
				"doc":        m,
				"updated_at": t,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("economy/mongo: set document: %w", err)
		}
		return nil
	}

	field := "doc." + strings.Join(parts, ".")
	_, err = s.mdb.NewUpdate((*guildModel)(nil)).
		Filter(bson.M{"_id": guildID}).
		SetUpdate(bson.M{"$set": bson.M{
			field:        normalized,
			"updated_at": t,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("economy/mongo: set %s: %w", path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path store.Path) (bool, error) {
	if !path.Valid() {
		return false, economy.ErrPathMalformed
	}

	guildID, parts := path.Split()

	if len(parts) == 0 {
		res, err := s.mdb.NewDelete((*guildModel)(nil)).
			Filter(bson.M{"_id": guildID}).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("economy/mongo: delete guild: %w", err)
		}
		return res.DeletedCount() > 0, nil
	}

	// $unset gives no existed-before signal, so check first. The engine
	// serializes writers per guild, so the pair is not racy in practice.
	_, existed, err := s.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}

	field := "doc." + strings.Join(parts, ".")
	_, err = s.mdb.NewUpdate((*guildModel)(nil)).
		Filter(bson.M{"_id": guildID}).
		SetUpdate(bson.M{
			"$unset": bson.M{field: ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("economy/mongo: delete %s: %w", path, err)
	}
	return true, nil
}

func (s *Store) Fetch(ctx context.Context, path store.Path) (any, error) {
	if !path.Valid() {
		return nil, economy.ErrPathMalformed
	}

	guildID, _ := path.Split()
	_, found, err := s.readDoc(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if !found {
		m := &guildModel{ID: guildID, Doc: map[string]any{}, UpdatedAt: time.Now().UTC()}
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil && !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("economy/mongo: materialize guild: %w", err)
		}
	}

	v, _, err := s.Get(ctx, path)
	return v, err
}

// readDoc loads one guild's document tree.
func (s *Store) readDoc(ctx context.Context, guildID string) (map[string]any, bool, error) {
	var m guildModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": guildID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("economy/mongo: read guild %s: %w", guildID, err)
	}
	if m.Doc == nil {
		m.Doc = map[string]any{}
	}
	return m.Doc, true, nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
