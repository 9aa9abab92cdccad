package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/config"
	"ragpipe/internal/embed"
	"ragpipe/internal/providers"
)

// EmbeddingStage produces an embedding vector per chunk, consulting an
// on-disk or Redis-backed content-addressed cache before dispatching
// to-generate texts to the configured provider in batches.
type EmbeddingStage struct {
	cfg      config.EmbeddingConfig
	embedder *embed.Embedder
}

func NewEmbeddingStage(cfg config.EmbeddingConfig, registry *providers.Registry) (*EmbeddingStage, error) {
	var provider embed.Provider
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "simulated", "deterministic":
		provider = embed.NewDeterministicProvider(cfg.Dimension, true, 0)
	default:
		if registry == nil {
			return nil, fmt.Errorf("embedding stage: provider %q requires a configured provider registry", cfg.Provider)
		}
		client, err := registry.Client(cfg.Provider, cfg.Model, 0)
		if err != nil {
			return nil, fmt.Errorf("embedding stage: resolving provider: %w", err)
		}
		client.Retry = providers.RetryConfigFromRateLimit(cfg.RateLimit)
		provider = client
	}

	var cache embed.Cache
	if cfg.UseRedisCache {
		rc, err := embed.NewRedisCache(cfg.RedisAddr, time.Duration(cfg.CacheTTLHours)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("embedding stage: %w", err)
		}
		if rc != nil {
			cache = rc
		}
	} else if cfg.CacheDir != "" {
		fc, err := embed.NewFileCache(cfg.CacheDir, time.Duration(cfg.CacheTTLHours)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("embedding stage: %w", err)
		}
		cache = fc
	}

	return &EmbeddingStage{cfg: cfg, embedder: embed.New(cfg, provider, cache)}, nil
}

func (s *EmbeddingStage) Name() string { return "embedding" }

func (s *EmbeddingStage) ValidateConfig() error {
	if s.embedder == nil {
		return fmt.Errorf("embedding: not initialized")
	}
	return nil
}

func (s *EmbeddingStage) Execute(ctx context.Context, bb *Blackboard) error {
	if len(bb.EnrichedChunks) == 0 {
		log.Warn().Str("stage", s.Name()).Msg("no enriched chunks; writing empty embedded_chunks")
		bb.EmbeddedChunks = nil
		return nil
	}

	texts := make([]string, len(bb.EnrichedChunks))
	for i, c := range bb.EnrichedChunks {
		texts[i] = c.Text
	}

	results, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	hits, total := s.embedder.HitRate()
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(hits) / float64(total)
	}
	log.Info().Int("hits", hits).Int("total", total).Float64("hit_rate_pct", pct).
		Msgf("embedding: cache %d/%d hits (%.1f%%)", hits, total, pct)

	out := make([]EmbeddedChunk, len(bb.EnrichedChunks))
	for i, c := range bb.EnrichedChunks {
		out[i] = EmbeddedChunk{
			EnrichedChunk:       c,
			Embedding:           results[i].Vector,
			EmbeddingProvider:   results[i].Provider,
			EmbeddingModel:      results[i].Model,
			EmbeddingDimensions: results[i].Dimensions,
		}
	}
	bb.EmbeddedChunks = out
	return nil
}
