package embeddings

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	chromem "github.com/philippgille/chromem-go"
)

// normEpsilon keeps unit normalization defined for degenerate
// (near-zero-norm) vectors.
const normEpsilon = 1e-9

// Oracle wraps an Embedder as the engine's semantic capability. It owes the
// rest of the engine two guarantees: availability is probed at most once per
// process lifetime, and every vector it hands out is unit-normalized so that
// dot products are cosine similarities.
//
// A nil underlying embedder is a valid configuration: the oracle is simply
// never available and the engine degrades to rule-only scoring.
type Oracle struct {
	embedder Embedder

	probeOnce sync.Once
	probed    atomic.Bool
	available atomic.Bool
}

// NewOracle wraps the given embedder. embedder may be nil.
func NewOracle(embedder Embedder) *Oracle {
	return &Oracle{embedder: embedder}
}

// Available reports whether the oracle can produce embeddings, probing the
// underlying embedder on the first call and caching the result for the
// process lifetime.
func (o *Oracle) Available(ctx context.Context) bool {
	if o.embedder == nil {
		return false
	}
	o.probeOnce.Do(func() {
		_, err := o.embedder.Embed(ctx, []string{"folder"})
		if err != nil {
			log.Printf("embeddings: oracle %s unavailable: %v", o.embedder.Name(), err)
		}
		o.available.Store(err == nil)
		o.probed.Store(true)
	})
	return o.available.Load()
}

// Ready reports the cached probe state without triggering a probe. It is
// false until the first Available call completes.
func (o *Oracle) Ready() bool {
	return o.probed.Load() && o.available.Load()
}

// Name identifies the underlying model, or "none" when no embedder is
// configured.
func (o *Oracle) Name() string {
	if o.embedder == nil {
		return "none"
	}
	return o.embedder.Name()
}

// Encode embeds the given texts and unit-normalizes every vector.
func (o *Oracle) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if o.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	vectors, err := o.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors, expected %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		vectors[i] = Normalize(v)
	}
	return vectors, nil
}

// EncodeOne embeds a single text, unit-normalized.
func (o *Oracle) EncodeOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// ChromemFunc adapts the oracle into a chromem.EmbeddingFunc so collections
// built on it store the same normalized vectors the engine queries with.
func (o *Oracle) ChromemFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return o.EncodeOne(ctx, text)
	}
}

// Normalize scales v to unit length. A small epsilon in the denominator
// keeps the operation defined for near-zero vectors.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
