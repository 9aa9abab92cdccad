package chunk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/config"
)

// topicEmbedder maps every sentence mentioning "beta" to a vector orthogonal
// to all others, so topic shifts produce a sharp similarity drop.
type topicEmbedder struct{}

func (topicEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(strings.ToLower(t), "beta") {
			out[i] = []float32{0, 1}
		} else {
			out[i] = []float32{1, 0}
		}
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model unavailable")
}

func semanticCfg(minSize int) config.ChunkingConfig {
	cfg := config.ChunkingConfig{Strategy: "semantic", SemanticThreshold: 0.5}
	cfg.Validation.MinChunkSize = minSize
	cfg.Validation.MaxChunkSize = 1500
	return cfg
}

func TestSemanticSplitsOnSimilarityDrop(t *testing.T) {
	s := NewSemantic(semanticCfg(10), topicEmbedder{})

	chunks, err := s.Split(context.Background(), "Alpha topic one. Alpha topic two. Beta topic starts.")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha topic one. Alpha topic two.", chunks[0])
	assert.Equal(t, "Beta topic starts.", chunks[1])
}

func TestSemanticKeepsSimilarSentencesTogether(t *testing.T) {
	s := NewSemantic(semanticCfg(10), topicEmbedder{})

	chunks, err := s.Split(context.Background(), "Alpha one. Alpha two. Alpha three.")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestSemanticRespectsMinSizeBeforeBoundary(t *testing.T) {
	// A min size larger than the whole text means the similarity drop alone
	// can never open a new chunk.
	s := NewSemantic(semanticCfg(10_000), topicEmbedder{})

	chunks, err := s.Split(context.Background(), "Alpha one. Beta two. Alpha three.")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestSemanticFallsBackWhenEmbedderFails(t *testing.T) {
	s := NewSemantic(semanticCfg(10), failingEmbedder{})

	chunks, err := s.Split(context.Background(), "First sentence. Second sentence. Third sentence.")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestNewReturnsRecursiveWhenSemanticHasNoEmbedder(t *testing.T) {
	strategy, err := New(semanticCfg(10), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "recursive", strategy.Name())
}
