package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/config"
)

func TestRecursiveSplitRespectsMaxSize(t *testing.T) {
	text := strings.Repeat("word ", 600) // ~3000 chars
	r := NewRecursive(config.ChunkingConfig{RecursiveMaxSize: 500, RecursiveSeparators: []string{"\n\n", " ", ""}})

	chunks, err := r.Split(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 600) // allows separator carry slack
	}
}

func TestRecursiveSplitEmptyInput(t *testing.T) {
	r := NewRecursive(config.ChunkingConfig{})
	chunks, err := r.Split(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func TestSemanticSplitSingleSentenceFallsBackToRecursive(t *testing.T) {
	s := NewSemantic(config.ChunkingConfig{}, stubEmbedder{})
	chunks, err := s.Split(context.Background(), "Just one sentence here without punctuation")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}
