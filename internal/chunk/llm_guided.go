package chunk

import (
	"context"
	"sort"
	"strings"

	"ragpipe/internal/config"
)

const llmBoundaryCallBudget = 8000

// llmGuidedStrategy coarsely splits oversize documents with Fixed, then
// asks an LLM for boundary offsets within each coarse chunk. Falls back to
// Recursive on an empty/unusable reply or when the prompt template is
// missing.
type llmGuidedStrategy struct {
	provider       LLMCaller
	promptTemplate string
	coarse         *fixedStrategy
	fallback       *recursiveStrategy
}

func NewLLMGuided(cfg config.ChunkingConfig, provider LLMCaller) *llmGuidedStrategy {
	coarseCfg := cfg
	coarseCfg.FixedSize = llmBoundaryCallBudget
	coarseCfg.FixedOverlap = 0

	return &llmGuidedStrategy{
		provider:       provider,
		promptTemplate: cfg.LLM.Prompts["chunk_boundary_analysis"],
		coarse:         NewFixed(coarseCfg),
		fallback:       NewRecursive(cfg),
	}
}

func (l *llmGuidedStrategy) Name() string { return "llm_guided" }

func (l *llmGuidedStrategy) Split(ctx context.Context, text string) ([]string, error) {
	if l.promptTemplate == "" {
		return l.fallback.Split(ctx, text)
	}
	if len(text) <= llmBoundaryCallBudget {
		return l.analyzeChunk(ctx, text), nil
	}

	coarse, _ := l.coarse.Split(ctx, text)
	var out []string
	for _, c := range coarse {
		out = append(out, l.analyzeChunk(ctx, c)...)
	}
	return out, nil
}

func (l *llmGuidedStrategy) analyzeChunk(ctx context.Context, text string) []string {
	limited := text
	if len(limited) > 4000 {
		limited = limited[:4000]
	}
	prompt := strings.ReplaceAll(l.promptTemplate, "{text}", limited)

	reply, err := l.provider.Chat(ctx, "", prompt)
	if err != nil || reply == "" {
		chunks, _ := l.fallback.Split(ctx, text)
		return chunks
	}

	boundaries := ParseLLMBoundaries(reply)
	if len(boundaries) == 0 {
		chunks, _ := l.fallback.Split(ctx, text)
		return chunks
	}

	sort.Ints(boundaries)
	var chunks []string
	prev := 0
	for _, pos := range boundaries {
		if pos > 0 && pos < len(text) {
			chunks = append(chunks, text[prev:pos])
			prev = pos
		}
	}
	if prev < len(text) {
		chunks = append(chunks, text[prev:])
	}

	out := chunks[:0]
	for _, c := range chunks {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}
