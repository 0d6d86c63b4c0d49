// Package allowlist manages the user-curated set of destination folders the
// engine may suggest. Entries are ordered, unique by case-insensitive path,
// and persisted write-through so restarts see the same list.
package allowlist

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/db"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/pathutil"
)

// Entry is one allowed destination folder.
type Entry struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Store keeps the allow-list in memory, mirrored to SQLite on every
// mutation. Reads copy the slice so callers never observe later edits.
type Store struct {
	db      *db.DB
	mu      sync.RWMutex
	entries []Entry
}

// NewStore loads the persisted allow-list in insertion order. An empty
// table yields an empty list.
func NewStore(ctx context.Context, database *db.DB) (*Store, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT path, description FROM allowlist ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading allowlist: %w", err)
	}
	defer rows.Close()

	s := &Store{db: database}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning allowlist row: %w", err)
		}
		s.entries = append(s.entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading allowlist rows: %w", err)
	}
	return s, nil
}

// List returns a copy of the entries in insertion order.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Upsert adds a folder, replacing any existing entry with the same
// case-insensitive path. The entry always lands at the end of the list,
// matching re-add semantics.
func (s *Store) Upsert(ctx context.Context, path, description string) error {
	key := pathutil.Key(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting allowlist write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM allowlist WHERE path_key = ?`, key); err != nil {
		return fmt.Errorf("replacing allowlist entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO allowlist (path, path_key, description) VALUES (?, ?, ?)`,
		path, key, description); err != nil {
		return fmt.Errorf("inserting allowlist entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing allowlist write: %w", err)
	}

	s.entries = removeByKey(s.entries, key)
	s.entries = append(s.entries, Entry{Path: path, Description: description})
	return nil
}

// Remove deletes the entry matching path case-insensitively. It returns
// false when no entry matched.
func (s *Store) Remove(ctx context.Context, path string) (bool, error) {
	key := pathutil.Key(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsKey(s.entries, key) {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM allowlist WHERE path_key = ?`, key); err != nil {
		return false, fmt.Errorf("deleting allowlist entry: %w", err)
	}
	s.entries = removeByKey(s.entries, key)
	return true, nil
}

// Clear removes every entry and returns the removed paths so the caller can
// purge rule references.
func (s *Store) Clear(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM allowlist`); err != nil {
		return nil, fmt.Errorf("clearing allowlist: %w", err)
	}
	paths := make([]string, len(s.entries))
	for i, e := range s.entries {
		paths[i] = e.Path
	}
	s.entries = nil
	return paths, nil
}

// ExistingDirs returns the entry paths that currently exist as directories,
// preserving list order.
func (s *Store) ExistingDirs() []string {
	entries := s.List()
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if info, err := os.Stat(e.Path); err == nil && info.IsDir() {
			dirs = append(dirs, e.Path)
		}
	}
	return dirs
}

func removeByKey(entries []Entry, key string) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if pathutil.Key(e.Path) != key {
			out = append(out, e)
		}
	}
	return out
}

func containsKey(entries []Entry, key string) bool {
	for _, e := range entries {
		if pathutil.Key(e.Path) == key {
			return true
		}
	}
	return false
}
