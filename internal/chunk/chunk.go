// Package chunk implements the four chunking strategies: fixed, recursive,
// semantic, and llm_guided. Exactly one strategy is active per run.
package chunk

import (
	"context"
	"fmt"

	"ragpipe/internal/config"
)

// Strategy splits one document's text into an ordered slice of chunk texts.
type Strategy interface {
	Name() string
	Split(ctx context.Context, text string) ([]string, error)
}

// Embedder is the subset of the embedding stage's client the semantic
// strategy needs: sentence vectors to compare via cosine similarity.
// Bound here rather than imported directly from internal/embed to avoid a
// package cycle (internal/embed may in turn want chunk boundaries for
// tests); internal/pipeline wires the embedding provider's
// *providers.Client in.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New resolves the configured strategy into a Strategy implementation. The
// embedder is used only by "semantic" and the provider only by
// "llm_guided"; when the one a strategy uses is nil, New returns the
// recursive strategy instead.
func New(cfg config.ChunkingConfig, provider LLMCaller, embedder Embedder) (Strategy, error) {
	switch cfg.Strategy {
	case "", "fixed":
		return NewFixed(cfg), nil
	case "recursive":
		return NewRecursive(cfg), nil
	case "semantic":
		if embedder == nil {
			return NewRecursive(cfg), nil
		}
		return NewSemantic(cfg, embedder), nil
	case "llm_guided":
		if provider == nil {
			return NewRecursive(cfg), nil
		}
		return NewLLMGuided(cfg, provider), nil
	default:
		return nil, fmt.Errorf("chunk: unknown strategy %q", cfg.Strategy)
	}
}

// LLMCaller is the subset of internal/providers.Client the llm_guided
// strategy needs.
type LLMCaller interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Validate drops chunks outside [minSize, maxSize] (when either bound is
// positive) and empty chunks, returning the survivors and a rejection
// count for logging.
func Validate(chunks []string, minSize, maxSize int) ([]string, int) {
	out := make([]string, 0, len(chunks))
	rejected := 0
	for _, c := range chunks {
		if len(c) == 0 {
			rejected++
			continue
		}
		if minSize > 0 && len(c) < minSize {
			rejected++
			continue
		}
		if maxSize > 0 && len(c) > maxSize {
			rejected++
			continue
		}
		out = append(out, c)
	}
	return out, rejected
}
