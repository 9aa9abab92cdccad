// Package embed implements the embedding stage: batched vector generation
// over a content-addressed cache (on-disk or Redis-backed), with a
// deterministic fallback provider when no real embedding client is
// configured.
package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ragpipe/internal/config"
)

// Provider produces embedding vectors for a batch of texts.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Cache stores and retrieves embeddings by content-addressed key.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, embedding []float32)
}

// CacheKey returns the content-addressed cache key for one text: the hex
// SHA-256 of "text|provider|model", so a model or provider change never
// serves a stale vector.
func CacheKey(text, provider, model string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", text, provider, model)))
	return hex.EncodeToString(sum[:])
}

// Embedder generates embeddings for enriched chunks, consulting cache
// before falling through to the wrapped provider.
type Embedder struct {
	cfg      config.EmbeddingConfig
	provider Provider
	cache    Cache // nil disables caching

	lastHits  int
	lastTotal int
}

func New(cfg config.EmbeddingConfig, provider Provider, cache Cache) *Embedder {
	return &Embedder{cfg: cfg, provider: provider, cache: cache}
}

// EmbeddedChunk pairs a chunk's text with its vector and provenance.
type EmbeddedChunk struct {
	Text       string
	Vector     []float32
	Provider   string
	Model      string
	Dimensions int
}

// EmbedBatch truncates each text to MaxTextLength, resolves as many
// vectors as possible from cache, and dispatches the remainder to the
// wrapped provider in batches of BatchSize. Texts generated fresh are
// written back to cache.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]EmbeddedChunk, error) {
	maxLen := e.cfg.MaxTextLength
	if maxLen <= 0 {
		maxLen = 8192
	}
	truncated := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > maxLen {
			t = t[:maxLen]
		}
		truncated[i] = t
	}

	results := make([][]float32, len(truncated))
	var missingIdx []int
	var missingTexts []string

	for i, t := range truncated {
		if e.cache != nil {
			if v, ok := e.cache.Get(ctx, CacheKey(t, e.cfg.Provider, e.cfg.Model)); ok {
				results[i] = v
				continue
			}
		}
		missingIdx = append(missingIdx, i)
		missingTexts = append(missingTexts, t)
	}

	e.lastTotal = len(truncated)
	e.lastHits = len(truncated) - len(missingTexts)

	if len(missingTexts) > 0 {
		batchSize := e.cfg.BatchSize
		if batchSize <= 0 {
			batchSize = 32
		}
		var generated [][]float32
		for start := 0; start < len(missingTexts); start += batchSize {
			end := start + batchSize
			if end > len(missingTexts) {
				end = len(missingTexts)
			}
			vecs, err := e.provider.EmbedBatch(ctx, missingTexts[start:end])
			if err != nil {
				return nil, fmt.Errorf("embed: generating batch: %w", err)
			}
			generated = append(generated, vecs...)
		}
		if len(generated) != len(missingTexts) {
			return nil, fmt.Errorf("embed: provider returned %d vectors for %d texts", len(generated), len(missingTexts))
		}
		for j, idx := range missingIdx {
			results[idx] = generated[j]
			if e.cache != nil {
				e.cache.Set(ctx, CacheKey(missingTexts[j], e.cfg.Provider, e.cfg.Model), generated[j])
			}
		}
	}

	out := make([]EmbeddedChunk, len(texts))
	for i, v := range results {
		out[i] = EmbeddedChunk{
			Text:       texts[i],
			Vector:     v,
			Provider:   e.cfg.Provider,
			Model:      e.cfg.Model,
			Dimensions: len(v),
		}
	}
	return out, nil
}

// HitRate returns the cache hit count and total text count from the most
// recent EmbedBatch call, for the caller's "N/M hits (P%)" log line.
func (e *Embedder) HitRate() (hits, total int) {
	return e.lastHits, e.lastTotal
}
