package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/config"
	"ragpipe/internal/enrich"
	"ragpipe/internal/providers"
)

// EnrichmentStage attaches compliance metadata (content hash, timestamp,
// sensitivity, document type, regulatory tags) to every chunk.
type EnrichmentStage struct {
	enricher *enrich.Enricher
}

func NewEnrichmentStage(cfg config.EnrichmentConfig, registry *providers.Registry) (*EnrichmentStage, error) {
	var llmCaller enrich.LLMCaller
	if cfg.LLM.Enabled && registry != nil {
		client, err := registry.Client(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.Temperature)
		if err != nil {
			return nil, fmt.Errorf("enrichment stage: resolving llm provider: %w", err)
		}
		client.Retry = providers.RetryConfigFromRateLimit(cfg.LLM.RateLimit)
		llmCaller = client
	}
	if body, ok := cfg.LLM.Prompts["sensitivity_classification"]; ok {
		if _, err := providers.NewTemplate("sensitivity_classification", body, []string{"text"}); err != nil {
			return nil, fmt.Errorf("enrichment stage: %w", err)
		}
	}
	return &EnrichmentStage{enricher: enrich.New(cfg, llmCaller)}, nil
}

func (s *EnrichmentStage) Name() string { return "enrichment" }

func (s *EnrichmentStage) ValidateConfig() error {
	if s.enricher == nil {
		return fmt.Errorf("enrichment: not initialized")
	}
	return nil
}

func (s *EnrichmentStage) Execute(ctx context.Context, bb *Blackboard) error {
	if len(bb.Chunks) == 0 {
		log.Warn().Str("stage", s.Name()).Msg("no chunks; writing empty enriched_chunks")
		bb.EnrichedChunks = nil
		return nil
	}

	out := make([]EnrichedChunk, len(bb.Chunks))
	for i, c := range bb.Chunks {
		ec := s.enricher.Enrich(ctx, c.Text, c.SourceFile, c.ChunkIndex)
		out[i] = EnrichedChunk{
			Text:           ec.Text,
			SourceFile:     ec.SourceFile,
			ChunkIndex:     ec.ChunkIndex,
			TotalChunks:    c.TotalChunks,
			ContentHash:    ec.ContentHash,
			ProcessedAt:    ec.ProcessedAt,
			Sensitivity:    ec.Sensitivity,
			DocumentType:   ec.DocumentType,
			RegulatoryTags: ec.RegulatoryTags,
		}
	}
	bb.EnrichedChunks = out
	return nil
}
