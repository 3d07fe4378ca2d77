// Package postgres implements the document store on PostgreSQL via Grove
// ORM. Each guild's document tree is one JSONB column; subpath operations
// read the document, mutate it in Go and upsert the result.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the postgres migration executor
	"github.com/xraph/grove/migrate"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/docpath"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

type guildModel struct {
	grove.BaseModel `grove:"table:economy_guilds"`

	GuildID   string          `grove:"guild_id,pk"`
	Doc       json.RawMessage `grove:"doc,type:jsonb"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the guild table using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("economy/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("economy/postgres: migration failed: %w", err)
	}
	return nil
}

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
		return doc, true, nil
	}
	v, ok := docpath.Get(doc, parts)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
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

	if len(parts) == 0 {
		m, ok := normalized.(map[string]any)
		if !ok {
			return economy.ErrPathMalformed
		}
		return s.writeDoc(ctx, guildID, m)
	}

	doc, _, err := s.readDoc(ctx, guildID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	docpath.Set(doc, parts, normalized)
	return s.writeDoc(ctx, guildID, doc)
}

func (s *Store) Delete(ctx context.Context, path store.Path) (bool, error) {
	if !path.Valid() {
		return false, economy.ErrPathMalformed
	}

	guildID, parts := path.Split()

	if len(parts) == 0 {
		res, err := s.pg.NewDelete((*guildModel)(nil)).
			Where("guild_id = ?", guildID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("economy/postgres: delete guild: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return rows > 0, nil
	}

	doc, found, err := s.readDoc(ctx, guildID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if !docpath.Delete(doc, parts) {
		return false, nil
	}
	if err := s.writeDoc(ctx, guildID, doc); err != nil {
		return false, err
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
		if err := s.writeDoc(ctx, guildID, map[string]any{}); err != nil {
			return nil, err
		}
	}

	v, _, err := s.Get(ctx, path)
	return v, err
}

// readDoc loads one guild's document tree.
func (s *Store) readDoc(ctx context.Context, guildID string) (map[string]any, bool, error) {
	m := new(guildModel)
	err := s.pg.NewSelect(m).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("economy/postgres: read guild %s: %w", guildID, err)
	}

	doc := map[string]any{}
	if len(m.Doc) > 0 {
		if err := json.Unmarshal(m.Doc, &doc); err != nil {
			return nil, false, fmt.Errorf("economy/postgres: decode guild %s: %w", guildID, err)
		}
	}
	return doc, true, nil
}

// writeDoc upserts one guild's document tree.
func (s *Store) writeDoc(ctx context.Context, guildID string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("economy/postgres: encode guild %s: %w", guildID, err)
	}

	m := &guildModel{
		GuildID:   guildID,
		Doc:       raw,
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.pg.NewInsert(m).
		OnConflict("(guild_id) DO UPDATE").
		Set("doc = EXCLUDED.doc").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("economy/postgres: write guild %s: %w", guildID, err)
	}
	return nil
}

// isNoRows checks if an error wraps sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
