package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUpsertAndGet(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.Open(context.Background(), "docs", 3, MetricCosine))

	report, err := ms.Upsert(context.Background(), []Record{
		{ID: "a", Text: "hello", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"source_file": "f1.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Report{StoredCount: 1}, report)
	assert.Equal(t, 1, ms.Count())

	rec, ok := ms.Get("a")
	require.True(t, ok)
	assert.Equal(t, "hello", rec.Text)
}

func TestMemoryStoreDeleteBySource(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.Open(context.Background(), "docs", 3, MetricCosine))

	_, err := ms.Upsert(context.Background(), []Record{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"source_file": "f1.pdf"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Metadata: map[string]interface{}{"source_file": "f1.pdf"}},
		{ID: "c", Vector: []float32{0, 0, 1}, Metadata: map[string]interface{}{"source_file": "f2.pdf"}},
	})
	require.NoError(t, err)

	deleted, err := ms.DeleteBySource(context.Background(), "f1.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 1, ms.Count())

	_, ok := ms.Get("c")
	assert.True(t, ok)
}

func TestMemoryStoreSimilaritySearchRanksByCosine(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.Open(context.Background(), "docs", 2, MetricCosine))

	_, err := ms.Upsert(context.Background(), []Record{
		{ID: "close", Vector: []float32{1, 0.01}},
		{ID: "far", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)

	results := ms.SimilaritySearch([]float32{1, 0}, 1, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].ID)
}

func TestMemoryStoreSimilaritySearchAppliesFilter(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.Open(context.Background(), "docs", 2, MetricCosine))

	_, err := ms.Upsert(context.Background(), []Record{
		{ID: "a", Vector: []float32{1, 0}, Metadata: map[string]interface{}{"sensitivity": "secret"}},
		{ID: "b", Vector: []float32{1, 0}, Metadata: map[string]interface{}{"sensitivity": "public"}},
	})
	require.NoError(t, err)

	results := ms.SimilaritySearch([]float32{1, 0}, 10, map[string]interface{}{"sensitivity": "public"})
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
}

func TestCosineZeroVectorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}
