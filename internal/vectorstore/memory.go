package vectorstore

import (
	"context"
	"math"
	"sync"
)

// MemoryStore is an in-process map-backed VectorStore, used by tests and by
// any run where no external backend is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	collection string
	dimension  int
	metric     Metric
	records    map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Open(_ context.Context, collection string, dim int, metric Metric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = collection
	m.dimension = dim
	m.metric = metricOrDefault(metric)
	return nil
}

func (m *MemoryStore) Upsert(_ context.Context, batch []Record) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range batch {
		cp := r
		cp.Vector = append([]float32(nil), r.Vector...)
		m.records[r.ID] = cp
	}
	return Report{StoredCount: len(batch)}, nil
}

func (m *MemoryStore) DeleteBySource(_ context.Context, fileName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for id, r := range m.records {
		if sourceFileOf(r) == fileName {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of records currently stored, for test assertions.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Get returns the record stored under id, for test assertions.
func (m *MemoryStore) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// SimilaritySearch ranks stored records by cosine similarity to vector,
// returning the top k matching filter (exact-match on metadata keys).
func (m *MemoryStore) SimilaritySearch(vector []float32, k int, filter map[string]interface{}) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 {
		k = 10
	}

	type scored struct {
		rec   Record
		score float64
	}
	var candidates []scored
	for _, r := range m.records {
		if !matchesFilter(r.Metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{rec: r, score: cosine(vector, r.Vector)})
	}

	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j-1].score < candidates[j].score; j-- {
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Record, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out
}

func matchesFilter(md map[string]interface{}, filter map[string]interface{}) bool {
	if len(filter) == 0 {
		return true
	}
	for k, v := range filter {
		if md[k] != v {
			return false
		}
	}
	return true
}

func vecNorm(a []float32) float64 {
	var s float64
	for _, x := range a {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a, b []float32) float64 {
	an, bn := vecNorm(a), vecNorm(b)
	if an == 0 || bn == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
