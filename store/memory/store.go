// Package memory provides an in-process document store, used by tests
// and single-node deployments that do not need persistence.
package memory

import (
	"context"
	"sync"

	economy "github.com/xraph/economy"
	"github.com/xraph/economy/store"
	"github.com/xraph/economy/store/docpath"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store holds one JSON-shaped document tree per guild under an RWMutex.
// Values are normalized on write and deep-copied on read so callers can
// never mutate stored state through a returned reference.
type Store struct {
	mu     sync.RWMutex
	guilds map[string]map[string]any
	closed bool
}

func New() *Store {
	return &Store{
		guilds: make(map[string]map[string]any),
	}
}

func (s *Store) Get(_ context.Context, path store.Path) (any, bool, error) {
	if !path.Valid() {
		return nil, false, economy.ErrPathMalformed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, economy.ErrStoreClosed
	}

	guildID, parts := path.Split()
	doc, ok := s.guilds[guildID]
	if !ok {
		return nil, false, nil
	}

	v, ok := docpath.Get(doc, parts)
	if !ok {
		return nil, false, nil
	}

	copied, err := store.Normalize(v)
	if err != nil {
		return nil, false, err
	}
	return copied, true, nil
}

func (s *Store) Set(_ context.Context, path store.Path, value any) error {
	if !path.Valid() {
		return economy.ErrPathMalformed
	}

	normalized, err := store.Normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return economy.ErrStoreClosed
	}

	guildID, parts := path.Split()
	doc, ok := s.guilds[guildID]
	if !ok {
		doc = make(map[string]any)
		s.guilds[guildID] = doc
	}

	if len(parts) == 0 {
		// Whole-document write; must itself be a map.
		m, ok := normalized.(map[string]any)
		if !ok {
			return economy.ErrPathMalformed
		}
		s.guilds[guildID] = m
		return nil
	}

	docpath.Set(doc, parts, normalized)
	return nil
}

func (s *Store) Delete(_ context.Context, path store.Path) (bool, error) {
	if !path.Valid() {
		return false, economy.ErrPathMalformed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, economy.ErrStoreClosed
	}

	guildID, parts := path.Split()
	doc, ok := s.guilds[guildID]
	if !ok {
		return false, nil
	}

	if len(parts) == 0 {
		delete(s.guilds, guildID)
		return true, nil
	}

	return docpath.Delete(doc, parts), nil
}

func (s *Store) Fetch(ctx context.Context, path store.Path) (any, error) {
	if !path.Valid() {
		return nil, economy.ErrPathMalformed
	}

	s.mu.Lock()
	guildID, _ := path.Split()
	if !s.closed {
		if _, ok := s.guilds[guildID]; !ok {
			s.guilds[guildID] = make(map[string]any)
		}
	}
	s.mu.Unlock()

	v, _, err := s.Get(ctx, path)
	return v, err
}

func (s *Store) Migrate(_ context.Context) error {
	return nil // No schema for the memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return economy.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.guilds = nil
	return nil
}
