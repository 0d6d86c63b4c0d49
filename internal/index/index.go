// Package index maintains the cached vector representation of the allowed
// destination folders. The index is a derived cache: it is valid only while
// its signature matches the allow-list that produced it, and it may be
// silently absent when no embedding oracle is available.
package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	chromem "github.com/philippgille/chromem-go"
	"github.com/zeebo/xxh3"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/allowlist"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/embeddings"
)

const collectionName = "allowlist-folders"

const (
	// maxQueryTokens caps how many keywords go into the query prompt.
	maxQueryTokens = 12
	// maxQueryContent caps the content slice in the query prompt.
	maxQueryContent = 2000
)

// Similarity is one folder's cosine similarity against a query vector.
type Similarity struct {
	Folder string
	Score  float64
}

// snapshot is one immutable build of the index. Readers holding a snapshot
// during a rebuild keep using it; they never observe a partial build.
type snapshot struct {
	sig        string
	collection *chromem.Collection
	count      int
	texts      map[string]string
}

// Index caches folder vectors behind an atomic pointer. Rebuilds are
// serialized; replacement is a single pointer swap.
type Index struct {
	oracle *embeddings.Oracle

	mu  sync.Mutex
	cur atomic.Pointer[snapshot]
}

// New creates an index over the given oracle.
func New(oracle *embeddings.Oracle) *Index {
	return &Index{oracle: oracle}
}

// Signature deterministically hashes the ordered (path, description) pairs
// of an allow-list. Any change to paths, descriptions or their order yields
// a different signature.
func Signature(entries []allowlist.Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Path)
		sb.WriteByte(0x1f)
		sb.WriteString(e.Description)
		sb.WriteByte(0x1e)
	}
	return strconv.FormatUint(xxh3.HashString(sb.String()), 16)
}

// Ensure makes the index current for the given allow-list and reports
// whether a usable index exists. A matching signature is a cache hit; a
// mismatch forces a rebuild. Returns false when the oracle is unavailable
// or no allow-list path exists as a directory.
func (ix *Index) Ensure(ctx context.Context, entries []allowlist.Entry) bool {
	sig := Signature(entries)
	if cur := ix.cur.Load(); cur != nil && cur.sig == sig {
		return true
	}
	if !ix.oracle.Available(ctx) {
		return false
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Another request may have rebuilt while we waited on the lock.
	if cur := ix.cur.Load(); cur != nil && cur.sig == sig {
		return true
	}

	snap, err := ix.build(ctx, sig, entries)
	if err != nil {
		log.Printf("index: rebuild failed: %v", err)
		return false
	}
	ix.cur.Store(snap)
	if snap != nil {
		rebuildsTotal.Inc()
	}
	return snap != nil
}

func (ix *Index) build(ctx context.Context, sig string, entries []allowlist.Entry) (*snapshot, error) {
	paths := make([]string, 0, len(entries))
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		info, err := os.Stat(e.Path)
		if err != nil || !info.IsDir() {
			continue
		}
		paths = append(paths, e.Path)
		texts = append(texts, folderText(e))
	}
	if len(paths) == 0 {
		return nil, nil
	}

	vectors, err := ix.oracle.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encoding folder texts: %w", err)
	}

	vdb := chromem.NewDB()
	col, err := vdb.GetOrCreateCollection(collectionName, nil, ix.oracle.ChromemFunc())
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, len(paths))
	byFolder := make(map[string]string, len(paths))
	for i, p := range paths {
		docs[i] = chromem.Document{
			ID:        p,
			Content:   texts[i],
			Embedding: vectors[i],
		}
		byFolder[p] = texts[i]
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("adding folder documents: %w", err)
	}

	return &snapshot{sig: sig, collection: col, count: len(paths), texts: byFolder}, nil
}

// Invalidate drops the current index. The next Ensure rebuilds it.
func (ix *Index) Invalidate() {
	ix.cur.Store(nil)
}

// CurrentSignature returns the signature of the live index, if any.
func (ix *Index) CurrentSignature() (string, bool) {
	snap := ix.cur.Load()
	if snap == nil {
		return "", false
	}
	return snap.sig, true
}

// FolderText returns the descriptive text the given folder was indexed
// under, for rationale assembly.
func (ix *Index) FolderText(folder string) (string, bool) {
	snap := ix.cur.Load()
	if snap == nil {
		return "", false
	}
	text, ok := snap.texts[folder]
	return text, ok
}

// Similarities scores every indexed folder against the query vector. The
// second return is false when no index is live or the query fails.
func (ix *Index) Similarities(ctx context.Context, query []float32) ([]Similarity, bool) {
	snap := ix.cur.Load()
	if snap == nil {
		return nil, false
	}
	results, err := snap.collection.QueryEmbedding(ctx, query, snap.count, nil, nil)
	if err != nil {
		log.Printf("index: similarity query failed: %v", err)
		return nil, false
	}
	sims := make([]Similarity, len(results))
	for i, r := range results {
		sims[i] = Similarity{Folder: r.ID, Score: float64(r.Similarity)}
	}
	return sims, true
}

// QueryVector encodes a compact descriptive prompt for the candidate file.
// The second return is false when the oracle is unavailable or encoding
// fails; the caller proceeds without a semantic signal.
func (ix *Index) QueryVector(ctx context.Context, name, ext string, tokens []string, content string) ([]float32, bool) {
	if !ix.oracle.Available(ctx) {
		return nil, false
	}
	vec, err := ix.oracle.EncodeOne(ctx, buildQuery(name, ext, tokens, content))
	if err != nil {
		log.Printf("index: query encode failed: %v", err)
		return nil, false
	}
	return vec, true
}

func buildQuery(name, ext string, tokens []string, content string) string {
	parts := []string{"File: " + name, "Type: " + ext}
	if len(tokens) > 0 {
		if len(tokens) > maxQueryTokens {
			tokens = tokens[:maxQueryTokens]
		}
		parts = append(parts, "Keywords: "+strings.Join(tokens, " "))
	}
	if content != "" {
		snippet := content
		if runes := []rune(snippet); len(runes) > maxQueryContent {
			snippet = string(runes[:maxQueryContent])
		}
		parts = append(parts, "Content: "+strings.ReplaceAll(snippet, "\n", " "))
	}
	return strings.Join(parts, ". ")
}

// folderText is the text a folder is embedded under: its name plus the
// user-supplied description.
func folderText(e allowlist.Entry) string {
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return filepath.Base(e.Path)
	}
	return filepath.Base(e.Path) + ". " + desc
}
