package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/chunk"
	"ragpipe/internal/config"
	"ragpipe/internal/providers"
)

// ChunkingStage splits every extracted document's text into ordered
// chunks using exactly one configured strategy, then drops chunks outside
// the configured size bounds.
type ChunkingStage struct {
	cfg      config.ChunkingConfig
	strategy chunk.Strategy
}

// NewChunkingStage resolves the configured strategy. The semantic
// strategy's embedder is built from the embedding stage's provider and
// model rather than a duplicate chunker-local config block, so the two
// stages cannot disagree on which model produces sentence vectors.
func NewChunkingStage(cfg config.ChunkingConfig, embedCfg config.EmbeddingConfig, registry *providers.Registry) (*ChunkingStage, error) {
	var llmCaller chunk.LLMCaller
	if cfg.Strategy == "llm_guided" && cfg.LLM.Enabled && registry != nil {
		client, err := registry.Client(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.Temperature)
		if err != nil {
			return nil, fmt.Errorf("chunking stage: resolving llm provider: %w", err)
		}
		client.Retry = providers.RetryConfigFromRateLimit(cfg.LLM.RateLimit)
		llmCaller = client
	}
	if body, ok := cfg.LLM.Prompts["chunk_boundary_analysis"]; ok {
		if _, err := providers.NewTemplate("chunk_boundary_analysis", body, []string{"text"}); err != nil {
			return nil, fmt.Errorf("chunking stage: %w", err)
		}
	}

	var embedder chunk.Embedder
	if cfg.Strategy == "semantic" && registry != nil && embedCfg.Provider != "" {
		client, err := registry.Client(embedCfg.Provider, embedCfg.Model, 0)
		if err != nil {
			return nil, fmt.Errorf("chunking stage: resolving embedding provider: %w", err)
		}
		client.Retry = providers.RetryConfigFromRateLimit(embedCfg.RateLimit)
		embedder = client
	}

	strategy, err := chunk.New(cfg, llmCaller, embedder)
	if err != nil {
		return nil, fmt.Errorf("chunking stage: %w", err)
	}
	return &ChunkingStage{cfg: cfg, strategy: strategy}, nil
}

func (s *ChunkingStage) Name() string { return "chunking" }

func (s *ChunkingStage) ValidateConfig() error {
	if s.strategy == nil {
		return fmt.Errorf("chunking: no strategy resolved")
	}
	return nil
}

func (s *ChunkingStage) Execute(ctx context.Context, bb *Blackboard) error {
	docs := bb.ExtractedDocuments
	if len(docs) == 0 {
		log.Warn().Str("stage", s.Name()).Msg("no extracted documents; writing empty chunks")
		bb.Chunks = nil
		return nil
	}

	var all []Chunk
	var totalRejected int
	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		texts, err := s.strategy.Split(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("chunking: splitting %s: %w", doc.FilePath, err)
		}
		survivors, rejected := chunk.Validate(texts, s.cfg.Validation.MinChunkSize, s.cfg.Validation.MaxChunkSize)
		totalRejected += rejected

		for i, text := range survivors {
			all = append(all, Chunk{
				Text:             text,
				SourceFile:       doc.FilePath,
				ChunkIndex:       i,
				TotalChunks:      len(survivors),
				ChunkingStrategy: s.strategy.Name(),
			})
		}
	}
	if totalRejected > 0 {
		log.Info().Int("rejected", totalRejected).Msg("chunking: dropped out-of-bounds chunks")
	}
	bb.Chunks = all
	return nil
}
