package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := NewStore(context.Background(), database, "")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

func TestBumpClampAndPrune(t *testing.T) {
	tables := newTables()

	tables.Bump(KindExt, "pdf", "/Invoices", 0.5)
	tables.Bump(KindExt, "pdf", "/Invoices", 0.35)
	if got := tables.Ext["pdf"]["/Invoices"]; got != 0.85 {
		t.Errorf("weight = %v, want 0.85", got)
	}

	// Driving a weight to zero removes the folder, and the emptied key.
	tables.Bump(KindExt, "pdf", "/Invoices", -1.0)
	if _, ok := tables.Ext["pdf"]; ok {
		t.Error("key should be pruned once its last folder hits zero")
	}

	// A negative bump on an absent folder must not create an entry.
	tables.Bump(KindToken, "invoice", "/Invoices", -0.25)
	if _, ok := tables.Token["invoice"]; ok {
		t.Error("negative bump should not create entries")
	}

	// Empty key or folder is ignored.
	tables.Bump(KindExt, "", "/Invoices", 0.5)
	tables.Bump(KindExt, "pdf", "", 0.5)
	if len(tables.Ext) != 0 {
		t.Errorf("empty-key bumps should be ignored, got %v", tables.Ext)
	}
}

func TestBumpPruneKeepsSiblings(t *testing.T) {
	tables := newTables()
	tables.Bump(KindExt, "pdf", "/Invoices", 0.5)
	tables.Bump(KindExt, "pdf", "/Tax", 0.5)

	tables.Bump(KindExt, "pdf", "/Invoices", -0.5)
	if _, ok := tables.Ext["pdf"]["/Invoices"]; ok {
		t.Error("/Invoices should be pruned")
	}
	if got := tables.Ext["pdf"]["/Tax"]; got != 0.5 {
		t.Errorf("/Tax weight = %v, want 0.5", got)
	}
}

func TestRefreshRecent(t *testing.T) {
	tables := newTables()

	tables.RefreshRecent("pdf:invoice|march|2024", "/Invoices")
	entry := tables.Recent["pdf:invoice|march|2024"]
	if entry.Folder != "/Invoices" || entry.Weight != 0.3 {
		t.Errorf("entry = %+v, want /Invoices at 0.3", entry)
	}

	// Weight accumulates even when the folder changes.
	tables.RefreshRecent("pdf:invoice|march|2024", "/Tax")
	entry = tables.Recent["pdf:invoice|march|2024"]
	if entry.Folder != "/Tax" || entry.Weight != 0.6 {
		t.Errorf("entry = %+v, want /Tax at 0.6", entry)
	}

	// Bounded at the cap.
	for i := 0; i < 10; i++ {
		tables.RefreshRecent("pdf:invoice|march|2024", "/Tax")
	}
	if got := tables.Recent["pdf:invoice|march|2024"].Weight; got != 1.0 {
		t.Errorf("weight = %v, want capped at 1.0", got)
	}
}

func TestPurge(t *testing.T) {
	tables := newTables()
	tables.Bump(KindExt, "pdf", "/Invoices", 0.5)
	tables.Bump(KindExt, "pdf", "/Tax", 0.5)
	tables.Bump(KindToken, "invoice", "/Invoices", 0.5)
	tables.RefreshRecent("pdf:invoice|march|2024", "/Invoices")
	tables.RefreshRecent("txt:notes", "/Tax")

	// Purge is case-insensitive on the folder path.
	tables.Purge([]string{"/INVOICES"})

	if _, ok := tables.Ext["pdf"]["/Invoices"]; ok {
		t.Error("extension reference survived purge")
	}
	if _, ok := tables.Ext["pdf"]["/Tax"]; !ok {
		t.Error("unrelated folder was purged")
	}
	if _, ok := tables.Token["invoice"]; ok {
		t.Error("token key should be pruned when emptied")
	}
	if _, ok := tables.Recent["pdf:invoice|march|2024"]; ok {
		t.Error("recency entry referencing purged folder survived")
	}
	if _, ok := tables.Recent["txt:notes"]; !ok {
		t.Error("unrelated recency entry was purged")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tb *Tables) {
		tb.Bump(KindExt, "pdf", "/Invoices", 0.5)
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	snap := store.Snapshot()
	err = store.Update(ctx, func(tb *Tables) {
		tb.Bump(KindExt, "pdf", "/Invoices", 0.35)
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if got := snap.Ext["pdf"]["/Invoices"]; got != 0.5 {
		t.Errorf("snapshot observed a later mutation: weight = %v, want 0.5", got)
	}

	// Mutating the snapshot must not leak back into the store.
	snap.Bump(KindExt, "pdf", "/Invoices", 100)
	if got := store.Snapshot().Ext["pdf"]["/Invoices"]; got != 0.85 {
		t.Errorf("store weight = %v, want 0.85", got)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	ctx := context.Background()

	store, err := NewStore(ctx, database, "")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	err = store.Update(ctx, func(tb *Tables) {
		tb.Bump(KindExt, "pdf", "/Invoices", 0.85)
		tb.Bump(KindToken, "invoice", "/Invoices", 0.35)
		tb.RefreshRecent("pdf:invoice|march|2024", "/Invoices")
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	// A second store over the same database sees the persisted state.
	reloaded, err := NewStore(ctx, database, "")
	if err != nil {
		t.Fatalf("reloading store: %v", err)
	}
	snap := reloaded.Snapshot()
	if got := snap.Ext["pdf"]["/Invoices"]; got != 0.85 {
		t.Errorf("reloaded ext weight = %v, want 0.85", got)
	}
	if got := snap.Token["invoice"]["/Invoices"]; got != 0.35 {
		t.Errorf("reloaded token weight = %v, want 0.35", got)
	}
	if got := snap.Recent["pdf:invoice|march|2024"]; got.Folder != "/Invoices" || got.Weight != 0.3 {
		t.Errorf("reloaded recency = %+v", got)
	}
}

func TestBootstrapFromSeeds(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seeds.yml")
	invoices := filepath.Join(dir, "Invoices")
	seeds := fmt.Sprintf(`
base_dirs:
  Invoices: %s
rules:
  - to: Invoices
    if_ext_in: [pdf, PDF, .pdf]
    if_name_has_any: [invoice, receipt]
  - to: Invoices
    if_ext_in: [pdf]
`, invoices)
	if err := os.WriteFile(seedPath, []byte(seeds), 0644); err != nil {
		t.Fatal(err)
	}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := NewStore(context.Background(), database, seedPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	snap := store.Snapshot()

	// "pdf", "PDF" and ".pdf" collapse to one match per rule; two rules stack.
	if got := snap.Ext["pdf"][invoices]; got != 1.0 {
		t.Errorf("seeded pdf weight = %v, want 1.0", got)
	}
	if got := snap.Token["invoice"][invoices]; got != 0.5 {
		t.Errorf("seeded token weight = %v, want 0.5", got)
	}
	if _, err := os.Stat(invoices); err != nil {
		t.Errorf("base dir was not created: %v", err)
	}

	// Seeds apply on first use only; a reload keeps the persisted state.
	store2, err := NewStore(context.Background(), database, seedPath)
	if err != nil {
		t.Fatalf("reloading store: %v", err)
	}
	if got := store2.Snapshot().Ext["pdf"][invoices]; got != 1.0 {
		t.Errorf("reloaded seed weight = %v, want 1.0 (not re-applied)", got)
	}
}

func TestLoadSeedFileMissing(t *testing.T) {
	seeds, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing seed file should not error: %v", err)
	}
	if len(seeds.Rules) != 0 {
		t.Errorf("expected empty seeds, got %+v", seeds)
	}

	seeds, err = LoadSeedFile("")
	if err != nil || len(seeds.Rules) != 0 {
		t.Errorf("empty path should yield empty seeds, got %+v err=%v", seeds, err)
	}
}

func TestLoadSeedFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.yml")
	if err := os.WriteFile(path, []byte("rules: {not: [valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeedFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestTopK(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tb *Tables) {
		tb.Bump(KindExt, "pdf", "/A", 0.2)
		tb.Bump(KindExt, "pdf", "/B", 0.9)
		tb.Bump(KindExt, "pdf", "/C", 0.5)
		tb.Bump(KindExt, "pdf", "/D", 0.5)
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	ext, _ := store.TopK(3)
	got := ext["pdf"]
	if len(got) != 3 {
		t.Fatalf("TopK returned %d entries, want 3", len(got))
	}
	if got[0].Folder != "/B" {
		t.Errorf("top folder = %q, want /B", got[0].Folder)
	}
	// Equal weights order by folder path for determinism.
	if got[1].Folder != "/C" || got[2].Folder != "/D" {
		t.Errorf("tie order = %q, %q, want /C, /D", got[1].Folder, got[2].Folder)
	}
}

func TestUpdateSerializesConcurrentBumps(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "rules.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := NewStore(context.Background(), database, "")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	const workers = 8
	const bumpsEach = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < bumpsEach; j++ {
				err := store.Update(context.Background(), func(tb *Tables) {
					tb.Bump(KindExt, "pdf", "/Invoices", 0.01)
				})
				if err != nil {
					t.Errorf("Update error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	got := store.Snapshot().Ext["pdf"]["/Invoices"]
	want := float64(workers*bumpsEach) * 0.01
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("concurrent bumps lost updates: weight = %v, want %v", got, want)
	}
}
