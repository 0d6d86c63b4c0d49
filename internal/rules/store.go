// Package rules holds the engine's learned weighted associations: which
// folders an extension, a keyword, or a recently seen file signature point
// at. The store is bootstrapped once from seed rules and afterwards mutated
// only by feedback.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/db"
)

// rulesKey is the kv slot the whole store is persisted under.
const rulesKey = "rules"

const (
	// recencyStep is added to a signature's recency weight on every refresh.
	recencyStep = 0.3
	// recencyCap bounds the cumulative recency weight.
	recencyCap = 1.0
)

// Kind selects one of the two keyed weight mappings.
type Kind string

const (
	KindExt   Kind = "ext"
	KindToken Kind = "token"
)

// Weights maps folder path -> weight. Folders are present only while their
// weight is positive.
type Weights map[string]float64

// RecentEntry is the recency cache value: the folder a signature last
// resolved to and its accumulated weight.
type RecentEntry struct {
	Folder string  `json:"folder"`
	Weight float64 `json:"weight"`
}

// Association is one learned folder/weight pair, used by diagnostics.
type Association struct {
	Folder string  `json:"folder"`
	Weight float64 `json:"weight"`
}

// Tables is the full mutable rule state. Methods on Tables do not lock;
// they are called inside Store.Update or on private copies.
type Tables struct {
	Ext    map[string]Weights     `json:"ext"`
	Token  map[string]Weights     `json:"token"`
	Recent map[string]RecentEntry `json:"recent"`
}

func newTables() Tables {
	return Tables{
		Ext:    map[string]Weights{},
		Token:  map[string]Weights{},
		Recent: map[string]RecentEntry{},
	}
}

func (t *Tables) mapping(kind Kind) map[string]Weights {
	switch kind {
	case KindExt:
		return t.Ext
	case KindToken:
		return t.Token
	default:
		return nil
	}
}

// Bump adds delta to folder's weight under key, clamping at zero. A folder
// whose weight reaches zero is removed, and a key with no folders left is
// pruned. Empty keys or folders are ignored.
func (t *Tables) Bump(kind Kind, key, folder string, delta float64) {
	if key == "" || folder == "" {
		return
	}
	table := t.mapping(kind)
	if table == nil {
		return
	}

	weights := table[key]
	next := weights[folder] + delta
	if next > 0 {
		if weights == nil {
			weights = Weights{}
			table[key] = weights
		}
		weights[folder] = next
		return
	}

	if weights != nil {
		delete(weights, folder)
		if len(weights) == 0 {
			delete(table, key)
		}
	}
}

// RefreshRecent points the recency cache entry for sig at folder, growing
// the entry's weight by a fixed step up to the cap. The weight accumulates
// across refreshes even when the folder changes.
func (t *Tables) RefreshRecent(sig, folder string) {
	if sig == "" || folder == "" {
		return
	}
	prev := t.Recent[sig].Weight
	t.Recent[sig] = RecentEntry{
		Folder: folder,
		Weight: math.Min(recencyCap, prev+recencyStep),
	}
}

// Purge removes every reference to the given folder paths from all three
// mappings, comparing paths case-insensitively and pruning emptied keys.
func (t *Tables) Purge(folders []string) {
	if len(folders) == 0 {
		return
	}
	gone := make(map[string]bool, len(folders))
	for _, f := range folders {
		gone[strings.ToLower(f)] = true
	}

	for _, table := range []map[string]Weights{t.Ext, t.Token} {
		for key, weights := range table {
			for folder := range weights {
				if gone[strings.ToLower(folder)] {
					delete(weights, folder)
				}
			}
			if len(weights) == 0 {
				delete(table, key)
			}
		}
	}

	for sig, entry := range t.Recent {
		if gone[strings.ToLower(entry.Folder)] {
			delete(t.Recent, sig)
		}
	}
}

func (t Tables) clone() Tables {
	out := newTables()
	for key, weights := range t.Ext {
		w := make(Weights, len(weights))
		for folder, v := range weights {
			w[folder] = v
		}
		out.Ext[key] = w
	}
	for key, weights := range t.Token {
		w := make(Weights, len(weights))
		for folder, v := range weights {
			w[folder] = v
		}
		out.Token[key] = w
	}
	for sig, entry := range t.Recent {
		out.Recent[sig] = entry
	}
	return out
}

// Store persists Tables in SQLite and serializes mutations. Reads take a
// deep-copied snapshot so a suggestion computation never observes a
// half-applied feedback event.
type Store struct {
	db *db.DB
	mu sync.RWMutex
	t  Tables
}

// NewStore loads the persisted rule state, or bootstraps it from the seed
// file on first use. A missing or malformed seed file yields an empty store;
// the engine learns from feedback alone in that case.
func NewStore(ctx context.Context, database *db.DB, seedPath string) (*Store, error) {
	s := &Store{db: database, t: newTables()}

	raw, ok, err := database.GetValue(ctx, rulesKey)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.t); err != nil {
			return nil, fmt.Errorf("decoding persisted rules: %w", err)
		}
		s.fillNilMaps()
		return s, nil
	}

	seeds, err := LoadSeedFile(seedPath)
	if err != nil {
		log.Printf("rules: ignoring seed file %s: %v", seedPath, err)
		seeds = &SeedFile{}
	}
	seeds.Apply(&s.t)
	if err := s.persist(ctx); err != nil {
		return nil, fmt.Errorf("persisting bootstrapped rules: %w", err)
	}
	return s, nil
}

func (s *Store) fillNilMaps() {
	if s.t.Ext == nil {
		s.t.Ext = map[string]Weights{}
	}
	if s.t.Token == nil {
		s.t.Token = map[string]Weights{}
	}
	if s.t.Recent == nil {
		s.t.Recent = map[string]RecentEntry{}
	}
}

// Snapshot returns a deep copy of the current rule state for scoring.
func (s *Store) Snapshot() Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.clone()
}

// Update applies fn to the rule state under the write lock and persists the
// result before releasing it, so concurrent mutations serialize and no
// delta is lost.
func (s *Store) Update(ctx context.Context, fn func(*Tables)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.t)
	return s.persist(ctx)
}

// persist writes the whole store as one JSON blob. Callers must hold the
// write lock or have exclusive access.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.t)
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	return s.db.SetValue(ctx, rulesKey, string(data))
}

// TopK returns the strongest k folder associations per extension and per
// token, ordered by weight descending (folder path ascending on ties).
func (s *Store) TopK(k int) (ext, token map[string][]Association) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return topK(s.t.Ext, k), topK(s.t.Token, k)
}

func topK(table map[string]Weights, k int) map[string][]Association {
	out := make(map[string][]Association, len(table))
	for key, weights := range table {
		assocs := make([]Association, 0, len(weights))
		for folder, w := range weights {
			assocs = append(assocs, Association{Folder: folder, Weight: w})
		}
		sort.Slice(assocs, func(i, j int) bool {
			if assocs[i].Weight != assocs[j].Weight {
				return assocs[i].Weight > assocs[j].Weight
			}
			return assocs[i].Folder < assocs[j].Folder
		})
		if len(assocs) > k {
			assocs = assocs[:k]
		}
		out[key] = assocs
	}
	return out
}
