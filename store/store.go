// Package store defines the document store contract the economy engine
// consumes: get/set/delete/fetch over dotted paths rooted at a guild ID.
//
// Backends persist one document tree per guild and must provide
// last-write-wins semantics on a single path and read-your-writes
// visibility of a Set to a subsequent Get. They provide no transactions
// and no mutual exclusion; the engine serializes read-modify-write
// sequences per guild on its side.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Store is the path-addressed document store interface.
// All backends satisfy it with a compile-time check.
type Store interface {
	// Get returns the value at path. ok is false when the path is absent,
	// which is not an error.
	Get(ctx context.Context, path Path) (value any, ok bool, err error)

	// Set writes value at path, creating the guild document and any
	// intermediate maps as needed. Last write wins.
	Set(ctx context.Context, path Path, value any) error

	// Delete removes the value at path and reports whether one existed.
	Delete(ctx context.Context, path Path) (bool, error)

	// Fetch is Get that first materializes an empty document for the
	// guild if none exists yet. It returns nil (no error) for an absent
	// subpath of an existing document.
	Fetch(ctx context.Context, path Path) (any, error)

	// Migrate prepares backend schema (tables, buckets, indexes).
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Path is a dot-joined document address rooted at a guild ID,
// e.g. "guild123.currencies" or "guild123.cooldowns.member9.daily".
type Path string

// At builds a Path from a guild ID and subpath segments.
func At(guildID string, parts ...string) Path {
	if len(parts) == 0 {
		return Path(guildID)
	}
	return Path(guildID + "." + strings.Join(parts, "."))
}

// Split separates the guild ID from the subpath segments.
func (p Path) Split() (guildID string, parts []string) {
	segments := strings.Split(string(p), ".")
	return segments[0], segments[1:]
}

// GuildID returns the guild component of the path.
func (p Path) GuildID() string {
	guildID, _ := p.Split()
	return guildID
}

// String returns the dotted form.
func (p Path) String() string { return string(p) }

// Valid reports whether the path has a non-empty guild component and no
// empty segments.
func (p Path) Valid() bool {
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(string(p), ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

// Decode converts a stored value into out. Backends return JSON-shaped
// generic values (maps, slices, float64 numbers); Decode normalizes them
// into typed structures via a JSON round trip.
func Decode(value any, out any) error {
	if value == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode value: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("store: decode value: %w", err)
	}
	return nil
}

// Normalize converts a typed value into its JSON-shaped generic form,
// the representation backends hold in memory and persist.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("store: normalize value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("store: normalize value: %w", err)
	}
	return out, nil
}
