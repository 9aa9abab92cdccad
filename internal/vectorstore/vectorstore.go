// Package vectorstore persists normalized chunks into a similarity-search
// backend. Every backend implements the same Open/DeleteBySource/Upsert
// contract so the pipeline can swap providers without touching stage code.
package vectorstore

import (
	"context"
	"fmt"
)

// Metric is a vector distance/similarity function.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
	MetricIP     Metric = "ip"
)

// Record is one chunk ready for upsert: its vector, source text, and the
// whitelisted metadata map produced by internal/normalize.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]interface{}
}

// Report summarizes the result of an Upsert call.
type Report struct {
	StoredCount int
	FailedCount int
}

// VectorStore is the backend-agnostic contract every provider satisfies.
type VectorStore interface {
	// Open prepares collection to receive dim-dimensional vectors compared
	// with metric, creating it if the backend requires explicit creation.
	Open(ctx context.Context, collection string, dim int, metric Metric) error

	// DeleteBySource removes every record whose metadata["source_file"]
	// equals fileName, returning the number of records removed.
	DeleteBySource(ctx context.Context, fileName string) (int, error)

	// Upsert writes batch, returning per-batch success/failure counts.
	Upsert(ctx context.Context, batch []Record) (Report, error)
}

// sourceFileOf reads the source_file metadata key, matching the field name
// internal/normalize writes.
func sourceFileOf(r Record) string {
	if v, ok := r.Metadata["source_file"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func metricOrDefault(m Metric) Metric {
	if m == "" {
		return MetricCosine
	}
	return m
}

// ErrNotOpen is returned by operations called before Open succeeds.
var ErrNotOpen = fmt.Errorf("vectorstore: backend not opened")
