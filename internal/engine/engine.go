package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/allowlist"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/embeddings"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/index"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/pathutil"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/peek"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/rules"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/tokenize"
)

// Signal blend weights. Rule hits dominate; embedding similarity can lift a
// semantically close folder past a weak keyword match but not past a strong
// one.
const (
	weightExt          = 0.35
	weightToken        = 0.45
	weightRecent       = 0.20
	weightContentToken = 0.20
	weightEmbed        = 0.60

	lowSignalThreshold = 0.35
	maxContentTokens   = 20
	feedbackTokens     = 3
	statusTopK         = 3

	confBase  = 0.58
	confScale = 5.0
	confMin   = 0.50
	confMax   = 0.99

	confAllowlistFallback = 0.55
	confErrorFallback     = 0.51
	confAccepted          = 0.95
	confCorrected         = 0.91

	reinforceDelta = 0.35
	penaltyDelta   = 0.25

	noAllowlistScore     = 0.10
	maxRationaleKeywords = 4
	maxFolderTextChars   = 220
)

// Engine ranks allow-listed folders for incoming file events and learns from
// accept/correct feedback. All methods are safe for concurrent use.
type Engine struct {
	rules  *rules.Store
	allow  *allowlist.Store
	index  *index.Index
	oracle *embeddings.Oracle

	fallbackDir string
	records     *recordLog
	events      EventSink
}

// Options configures a new Engine. Events may be nil.
type Options struct {
	Rules       *rules.Store
	Allowlist   *allowlist.Store
	Index       *index.Index
	Oracle      *embeddings.Oracle
	FallbackDir string
	RecordsCap  int
	Events      EventSink
}

func New(opts Options) *Engine {
	oracle := opts.Oracle
	if oracle == nil {
		oracle = embeddings.NewOracle(nil)
	}
	idx := opts.Index
	if idx == nil {
		idx = index.New(oracle)
	}
	fallback := opts.FallbackDir
	if fallback != "" {
		fallback = pathutil.Expand(fallback)
	}
	return &Engine{
		rules:       opts.Rules,
		allow:       opts.Allowlist,
		index:       idx,
		oracle:      oracle,
		fallbackDir: fallback,
		records:     newRecordLog(opts.RecordsCap),
		events:      opts.Events,
	}
}

// Suggest recommends a destination folder for a file event. It never fails:
// internal errors degrade to a low-confidence fallback suggestion.
func (e *Engine) Suggest(ctx context.Context, ev FileEvent) Suggestion {
	start := time.Now()
	ev = normalizeEvent(ev)

	sg, outcome, err := e.suggest(ctx, ev)
	if err != nil {
		log.Printf("engine: suggest %q: %v", ev.Name, err)
		sg = e.errorFallback(ev, failureClass(err))
		outcome = outcomeError
	}

	suggestDuration.Observe(time.Since(start).Seconds())
	suggestTotal.WithLabelValues(outcome).Inc()
	e.publish(SuggestionEvent{Type: "suggestion", FileName: ev.Name, Suggestion: sg})
	return sg
}

func (e *Engine) suggest(ctx context.Context, ev FileEvent) (sg Suggestion, outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &internalError{class: panicClass(r), err: fmt.Errorf("recovered from panic: %v", r)}
		}
	}()

	tokens := tokenize.Tokens(ev.Name)
	sig := tokenize.Signature(ev.Ext, tokens)
	snap := e.rules.Snapshot()
	entries := e.allow.List()
	allowed := existingDirs(entries)
	allowedSet := make(map[string]bool, len(allowed))
	for _, folder := range allowed {
		allowedSet[folder] = true
	}

	scores := make(map[string]float64)
	for folder, w := range snap.Ext[ev.Ext] {
		scores[folder] += weightExt * w
	}
	for _, tok := range tokens {
		for folder, w := range snap.Token[tok] {
			scores[folder] += weightToken * w
		}
	}
	if re, ok := snap.Recent[sig]; ok {
		scores[re.Folder] += weightRecent * re.Weight
	}

	// When the name alone carries no usable signal, peek inside the file
	// and score its leading tokens like filename keywords.
	content := ""
	if bestScore(scores) < lowSignalThreshold && peek.Peekable(ev.Ext) && ev.Path != "" {
		text, perr := peek.Extract(ctx, ev.Path, ev.Ext)
		if perr != nil {
			log.Printf("engine: content peek %q: %v", ev.Name, perr)
		} else if text != "" {
			content = text
			ctoks := tokenize.Tokens(text)
			if len(ctoks) > maxContentTokens {
				ctoks = ctoks[:maxContentTokens]
			}
			for _, tok := range ctoks {
				for folder, w := range snap.Token[tok] {
					scores[folder] += weightContentToken * w
				}
			}
		}
	}

	embedUsed := false
	if len(entries) > 0 && e.index.Ensure(ctx, entries) {
		if qv, ok := e.index.QueryVector(ctx, ev.Name, ev.Ext, tokens, content); ok {
			if sims, ok := e.index.Similarities(ctx, qv); ok {
				embedUsed = true
				for _, sim := range sims {
					if !allowedSet[sim.Folder] {
						continue
					}
					scores[sim.Folder] += weightEmbed * math.Max(0, sim.Score)
				}
			}
		}
	}

	// Restrict candidates to allow-listed folders that exist on disk.
	needsAllowlist := false
	if len(allowed) > 0 {
		filtered := make(map[string]float64, len(scores))
		for folder, s := range scores {
			if allowedSet[folder] {
				filtered[folder] = s
			}
		}
		if len(filtered) == 0 {
			sg = e.record(ev, sig, tokens, allowed[0], confAllowlistFallback,
				"allow-list fallback (no rule/semantic signal)", false)
			return sg, outcomeAllowlistFallback, nil
		}
		scores = filtered
	} else {
		needsAllowlist = true
		scores = map[string]float64{e.fallbackDir: noAllowlistScore}
	}

	winner, margin := rank(scores)
	confidence := clamp(confBase+margin/confScale, confMin, confMax)
	rationale := e.rationale(&snap, ev.Ext, tokens, sig, content != "", embedUsed, winner, needsAllowlist)

	sg = e.record(ev, sig, tokens, winner, confidence, rationale, needsAllowlist)
	outcome = outcomeScored
	if needsAllowlist {
		outcome = outcomeNoAllowlist
	}
	return sg, outcome, nil
}

// Feedback applies accept or correct learning for a previously served
// suggestion. Unknown or evicted ids are acknowledged without mutating state.
func (e *Engine) Feedback(ctx context.Context, fb FeedbackRequest) Ack {
	rec, ok := e.records.get(fb.SuggestionID)
	if !ok {
		feedbackTotal.WithLabelValues("unknown").Inc()
		return Ack{Status: StatusUnknownSuggestion}
	}

	head := rec.tokens
	if len(head) > feedbackTokens {
		head = head[:feedbackTokens]
	}

	target := rec.folder
	label := "accepted"
	confidence := confAccepted
	if !fb.Accepted {
		label = "corrected"
		confidence = confCorrected
		if chosen := strings.TrimSpace(fb.ChosenFolder); chosen != "" {
			target = pathutil.Expand(chosen)
		}
	}

	err := e.rules.Update(ctx, func(t *rules.Tables) {
		if fb.Accepted {
			t.Bump(rules.KindExt, rec.ext, rec.folder, reinforceDelta)
		} else {
			t.Bump(rules.KindExt, rec.ext, rec.folder, -penaltyDelta)
			t.Bump(rules.KindExt, rec.ext, target, reinforceDelta)
		}
		for _, tok := range head {
			t.Bump(rules.KindToken, tok, target, reinforceDelta)
		}
		t.RefreshRecent(rec.signature, target)
	})
	if err != nil {
		log.Printf("engine: persist feedback %s: %v", fb.SuggestionID, err)
	}

	feedbackTotal.WithLabelValues(label).Inc()
	e.publish(FeedbackEvent{Type: "feedback", SuggestionID: fb.SuggestionID, Accepted: fb.Accepted, Folder: target})
	return Ack{Status: StatusOK, NewConfidence: &confidence}
}

// LearnFromMove replays one historical move through the same deltas feedback
// would apply. destFolder is where the file actually ended up; a non-empty
// suggestedFolder that differs from it is penalized.
func (e *Engine) LearnFromMove(ctx context.Context, fileName, destFolder, suggestedFolder string, accepted bool) error {
	if strings.TrimSpace(fileName) == "" || strings.TrimSpace(destFolder) == "" {
		return errors.New("move record needs a file name and destination")
	}

	ext := tokenize.NormalizeExt(filepath.Ext(fileName))
	tokens := tokenize.Tokens(fileName)
	head := tokens
	if len(head) > feedbackTokens {
		head = head[:feedbackTokens]
	}
	sig := tokenize.Signature(ext, tokens)
	dest := pathutil.Expand(strings.TrimSpace(destFolder))

	var suggested string
	if s := strings.TrimSpace(suggestedFolder); s != "" {
		suggested = pathutil.Expand(s)
	}

	return e.rules.Update(ctx, func(t *rules.Tables) {
		if !accepted && suggested != "" && !strings.EqualFold(suggested, dest) {
			t.Bump(rules.KindExt, ext, suggested, -penaltyDelta)
		}
		t.Bump(rules.KindExt, ext, dest, reinforceDelta)
		for _, tok := range head {
			t.Bump(rules.KindToken, tok, dest, reinforceDelta)
		}
		t.RefreshRecent(sig, dest)
	})
}

// Status reports learned associations, allow-list size and embedding health.
// It never probes the embedding backend; Embeddings is true only after a
// suggestion has already exercised it.
func (e *Engine) Status() StatusReport {
	ext, token := e.rules.TopK(statusTopK)
	return StatusReport{
		Learned:        Learned{Ext: ext, Token: token},
		AllowlistCount: e.allow.Count(),
		Embeddings:     e.oracle.Ready(),
	}
}

// AllowlistEntries returns the configured allow-list in insertion order.
func (e *Engine) AllowlistEntries() []allowlist.Entry {
	return e.allow.List()
}

// AllowlistAdd registers an existing directory as an allowed destination.
func (e *Engine) AllowlistAdd(ctx context.Context, path, description string) (Ack, error) {
	if strings.TrimSpace(path) == "" {
		return Ack{Status: StatusNotAFolder}, nil
	}
	expanded := pathutil.Expand(path)
	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		return Ack{Status: StatusNotAFolder}, nil
	}
	if err := e.allow.Upsert(ctx, expanded, strings.TrimSpace(description)); err != nil {
		return Ack{}, fmt.Errorf("adding %s: %w", expanded, err)
	}
	e.index.Invalidate()
	return Ack{Status: StatusOK}, nil
}

// AllowlistRemove drops a folder from the allow-list and purges every learned
// weight that pointed at it.
func (e *Engine) AllowlistRemove(ctx context.Context, path string) (Ack, error) {
	if strings.TrimSpace(path) == "" {
		return Ack{Status: StatusNotFound}, nil
	}
	expanded := pathutil.Expand(path)
	removed, err := e.allow.Remove(ctx, expanded)
	if err != nil {
		return Ack{}, fmt.Errorf("removing %s: %w", expanded, err)
	}
	if !removed {
		return Ack{Status: StatusNotFound}, nil
	}
	if err := e.rules.Update(ctx, func(t *rules.Tables) {
		t.Purge([]string{expanded})
	}); err != nil {
		return Ack{}, fmt.Errorf("purging %s: %w", expanded, err)
	}
	e.index.Invalidate()
	return Ack{Status: StatusOK}, nil
}

// AllowlistClear wipes the allow-list and all weights learned for its folders.
func (e *Engine) AllowlistClear(ctx context.Context) (Ack, error) {
	paths, err := e.allow.Clear(ctx)
	if err != nil {
		return Ack{}, fmt.Errorf("clearing allow-list: %w", err)
	}
	if len(paths) > 0 {
		if err := e.rules.Update(ctx, func(t *rules.Tables) {
			t.Purge(paths)
		}); err != nil {
			return Ack{}, fmt.Errorf("purging cleared folders: %w", err)
		}
	}
	e.index.Invalidate()
	return Ack{Status: StatusOK}, nil
}

// Reindex rebuilds the semantic folder index from the current allow-list.
func (e *Engine) Reindex(ctx context.Context) Ack {
	e.index.Invalidate()
	if !e.index.Ensure(ctx, e.allow.List()) {
		return Ack{Status: StatusNoIndex}
	}
	return Ack{Status: StatusOK}
}

func (e *Engine) record(ev FileEvent, sig string, tokens []string, folder string, confidence float64, rationale string, needsAllowlist bool) Suggestion {
	id := "sg_" + uuid.NewString()
	e.records.add(id, record{signature: sig, folder: folder, ext: ev.Ext, tokens: tokens})
	return Suggestion{
		SuggestionID:   id,
		Folder:         folder,
		Confidence:     confidence,
		Rationale:      rationale,
		NeedsAllowlist: needsAllowlist,
	}
}

func (e *Engine) rationale(snap *rules.Tables, ext string, tokens []string, sig string, peeked, embedUsed bool, winner string, needsAllowlist bool) string {
	var clauses []string
	if peeked {
		clauses = append(clauses, "content peek used")
	}
	if embedUsed {
		if text, ok := e.index.FolderText(winner); ok {
			clauses = append(clauses, fmt.Sprintf("semantic match to allow-list: %q", truncateRunes(text, maxFolderTextChars)))
		}
	}
	if len(snap.Ext[ext]) > 0 {
		clauses = append(clauses, "extension ."+ext+" seen before")
	}
	var matched []string
	for _, tok := range tokens {
		if len(snap.Token[tok]) > 0 {
			matched = append(matched, tok)
			if len(matched) == maxRationaleKeywords {
				break
			}
		}
	}
	if len(matched) > 0 {
		clauses = append(clauses, "keywords matched: "+strings.Join(matched, ", "))
	}
	if _, ok := snap.Recent[sig]; ok {
		clauses = append(clauses, "recent similar files")
	}
	if needsAllowlist {
		clauses = append(clauses, "no allow-list configured")
	}
	if len(clauses) == 0 {
		return "fallback"
	}
	return strings.Join(clauses, " | ")
}

func (e *Engine) errorFallback(ev FileEvent, class string) Suggestion {
	tokens := tokenize.Tokens(ev.Name)
	sig := tokenize.Signature(ev.Ext, tokens)
	folder := e.fallbackDir
	needs := true
	if allowed := e.allow.ExistingDirs(); len(allowed) > 0 {
		folder = allowed[0]
		needs = false
	}
	return e.record(ev, sig, tokens, folder, confErrorFallback, "fallback after internal error: "+class, needs)
}

func (e *Engine) publish(event any) {
	if e.events == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: event sink panic: %v", r)
		}
	}()
	e.events.Publish(event)
}

func normalizeEvent(ev FileEvent) FileEvent {
	if ev.Name == "" && ev.Path != "" {
		ev.Name = filepath.Base(ev.Path)
	}
	if ev.Ext == "" {
		ev.Ext = filepath.Ext(ev.Name)
	}
	ev.Ext = tokenize.NormalizeExt(ev.Ext)
	return ev
}

func existingDirs(entries []allowlist.Entry) []string {
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if info, err := os.Stat(entry.Path); err == nil && info.IsDir() {
			dirs = append(dirs, entry.Path)
		}
	}
	return dirs
}

func bestScore(scores map[string]float64) float64 {
	best := 0.0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	return best
}

// rank returns the highest-scoring folder and its margin over the runner-up.
// Ties resolve to the lexicographically smallest path; a lone candidate's
// margin is its own score.
func rank(scores map[string]float64) (winner string, margin float64) {
	folders := make([]string, 0, len(scores))
	for folder := range scores {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	best, second := math.Inf(-1), math.Inf(-1)
	for _, folder := range folders {
		s := scores[folder]
		if s > best {
			second = best
			best = s
			winner = folder
		} else if s > second {
			second = s
		}
	}
	margin = best
	if !math.IsInf(second, -1) {
		margin = best - second
	}
	return winner, margin
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

type internalError struct {
	class string
	err   error
}

func (e *internalError) Error() string { return e.err.Error() }
func (e *internalError) Unwrap() error { return e.err }

func failureClass(err error) string {
	var ie *internalError
	if errors.As(err, &ie) {
		return ie.class
	}
	return "internal"
}

func panicClass(r any) string {
	switch r.(type) {
	case runtime.Error:
		return "runtime"
	case error:
		return "error"
	default:
		return "panic"
	}
}
