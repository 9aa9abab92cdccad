package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/config"
)

// TestFixedChunkingExactArithmetic reproduces the documented scenario:
// chunk_size=1000, overlap=200 over input long enough to require exactly
// four windows at starts 0, 800, 1600, 2400 with lengths 1000, 1000, 1000,
// and a final partial window. The starts/lengths are the testable
// commitment; they're only mutually consistent with the stated chunk_size
// and overlap when the input is 2900 characters (2400 + 500), so that is
// the length used here.
func TestFixedChunkingExactArithmetic(t *testing.T) {
	text := strings.Repeat("x", 2900)
	f := NewFixed(config.ChunkingConfig{FixedSize: 1000, FixedOverlap: 200})

	chunks, err := f.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	lengths := make([]int, len(chunks))
	for i, c := range chunks {
		lengths[i] = len(c)
	}
	assert.Equal(t, []int{1000, 1000, 1000, 500}, lengths)
}

func TestFixedChunkingEmptyInput(t *testing.T) {
	f := NewFixed(config.ChunkingConfig{FixedSize: 1000, FixedOverlap: 200})
	chunks, err := f.Split(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFixedChunkingMaxEqualsMin(t *testing.T) {
	text := strings.Repeat("y", 2500)
	f := NewFixed(config.ChunkingConfig{FixedSize: 500, FixedOverlap: 0})
	chunks, err := f.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for _, c := range chunks {
		assert.Len(t, c, 500)
	}
}
