package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/config"
	"ragpipe/internal/normalize"
)

// NormalizeStage L2-normalizes each chunk's embedding, applies optional
// text cleanup, validates embedding/metadata shape, and re-emits a
// whitelisted metadata map ready for vector store upsert. Chunks that fail
// validation are dropped (or kept with a recorded error, per config);
// never silently corrupted.
type NormalizeStage struct {
	normalizer  *normalize.Normalizer
	skipInvalid bool
}

func NewNormalizeStage(cfg config.NormalizeConfig) *NormalizeStage {
	text := normalize.TextConfig{
		UnicodeForm:       cfg.TextNormalization.UnicodeForm,
		RemoveAccents:     cfg.TextNormalization.RemoveAccents,
		StandardizeQuotes: cfg.TextNormalization.StandardizeQuotes,
	}
	return &NormalizeStage{
		normalizer:  normalize.New(cfg, text),
		skipInvalid: !cfg.KeepInvalidChunks,
	}
}

func (s *NormalizeStage) Name() string { return "normalization" }

func (s *NormalizeStage) ValidateConfig() error {
	return nil
}

func (s *NormalizeStage) Execute(ctx context.Context, bb *Blackboard) error {
	if len(bb.EmbeddedChunks) == 0 {
		log.Warn().Str("stage", s.Name()).Msg("no embedded chunks; writing empty normalized_chunks")
		bb.NormalizedChunks = nil
		return nil
	}

	var out []normalize.Result
	var rejected int
	for _, c := range bb.EmbeddedChunks {
		nc := normalize.Chunk{
			Text:           c.Text,
			SourceFile:     c.SourceFile,
			ChunkIndex:     c.ChunkIndex,
			ContentHash:    c.ContentHash,
			Sensitivity:    c.Sensitivity,
			DocumentType:   c.DocumentType,
			RegulatoryTags: c.RegulatoryTags,
			ProcessedAt:    c.ProcessedAt,
			Embedding:      c.Embedding,
		}
		result, ok, err := s.normalizer.Normalize(nc)
		if !ok {
			rejected++
			log.Warn().Str("source_file", c.SourceFile).Int("chunk_index", c.ChunkIndex).Err(err).
				Msg("normalization: chunk rejected")
			if s.skipInvalid {
				continue
			}
			result = normalize.Result{
				Text:      c.Text,
				Embedding: c.Embedding,
				Metadata: map[string]interface{}{
					"source_file":         c.SourceFile,
					"chunk_index":         c.ChunkIndex,
					"normalization_error": err.Error(),
				},
			}
		}
		out = append(out, result)
	}
	if rejected > 0 {
		log.Info().Int("rejected", rejected).Msg("normalization: dropped invalid chunks")
	}
	bb.NormalizedChunks = out
	return nil
}
