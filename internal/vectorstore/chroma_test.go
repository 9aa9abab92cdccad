package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMetadataForChromaConvertsSlicesToCSV(t *testing.T) {
	out := cleanMetadataForChroma(map[string]interface{}{
		"regulatory_tags": []string{"RGPD", "ISO27001"},
		"sensitivity":     "secret",
		"chunk_index":     3,
	})
	assert.Equal(t, "RGPD, ISO27001", out["regulatory_tags"])
	assert.Equal(t, "secret", out["sensitivity"])
	assert.Equal(t, 3, out["chunk_index"])
}

func TestCleanMetadataForChromaStringifiesOtherTypes(t *testing.T) {
	out := cleanMetadataForChroma(map[string]interface{}{
		"nested": map[string]string{"a": "b"},
	})
	assert.IsType(t, "", out["nested"])
}

func TestChunkIDPrefersRecordID(t *testing.T) {
	c := NewChromaStore("http://localhost:8000")
	id := c.chunkID(Record{ID: "explicit-id", Text: "hello"})
	assert.Equal(t, "explicit-id", id)
}

func TestChunkIDFallsBackToContentHash(t *testing.T) {
	c := NewChromaStore("http://localhost:8000")
	id := c.chunkID(Record{Text: "hello world"})
	assert.NotEmpty(t, id)
}

func TestChunkIDDisambiguatesCollisions(t *testing.T) {
	c := NewChromaStore("http://localhost:8000")
	first := c.chunkID(Record{ID: "dup", Text: "a"})
	second := c.chunkID(Record{ID: "dup", Text: "b"})
	assert.NotEqual(t, first, second)
}
