package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ragpipe/internal/config"
	"ragpipe/internal/normalize"
	"ragpipe/internal/vectorstore"
)

// StorageStage upserts normalized chunks into the configured vector
// backend. When delete-by-source is enabled, every unique source file
// present in the incoming batch has its prior records deleted first, so
// re-ingesting a file never accumulates duplicates.
type StorageStage struct {
	cfg   config.VectorStoreConfig
	store vectorstore.VectorStore
}

func NewStorageStage(ctx context.Context, cfg config.VectorStoreConfig) (*StorageStage, error) {
	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage stage: %w", err)
	}
	return &StorageStage{cfg: cfg, store: store}, nil
}

func (s *StorageStage) Name() string { return "storage" }

func (s *StorageStage) ValidateConfig() error {
	if s.cfg.Collection == "" {
		return fmt.Errorf("storage: vector_store.collection must be set")
	}
	return nil
}

func (s *StorageStage) metric() vectorstore.Metric {
	switch s.cfg.DistanceMetric {
	case "l2":
		return vectorstore.MetricL2
	case "ip":
		return vectorstore.MetricIP
	default:
		return vectorstore.MetricCosine
	}
}

func (s *StorageStage) Execute(ctx context.Context, bb *Blackboard) error {
	chunks := bb.NormalizedChunks
	if len(chunks) == 0 {
		log.Warn().Str("stage", s.Name()).Msg("no normalized chunks; writing empty storage_result")
		bb.StorageResult = &StorageResult{
			Provider:             s.cfg.Backend,
			CollectionIdentifier: s.cfg.Collection,
			DistanceMetric:       string(s.metric()),
		}
		return nil
	}

	dim := len(chunks[0].Embedding)
	if err := s.store.Open(ctx, s.cfg.Collection, dim, s.metric()); err != nil {
		return fmt.Errorf("storage: opening collection: %w", err)
	}

	deleted := 0
	if s.cfg.DeleteBySource {
		seen := make(map[string]bool)
		for _, c := range chunks {
			name, _ := c.Metadata["source_file"].(string)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			n, err := s.store.DeleteBySource(ctx, name)
			if err != nil {
				log.Warn().Str("source_file", name).Err(err).Msg("storage: delete-by-source failed")
				continue
			}
			deleted += n
		}
	}

	records := make([]vectorstore.Record, len(chunks))
	seenIDs := make(map[string]bool, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			ID:       uniqueID(c, seenIDs),
			Text:     c.Text,
			Vector:   c.Embedding,
			Metadata: c.Metadata,
		}
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	result := &StorageResult{
		Provider:             s.cfg.Backend,
		CollectionIdentifier: s.cfg.Collection,
		DistanceMetric:       string(s.metric()),
		DeletedCount:         deleted,
	}
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		report, err := s.store.Upsert(ctx, records[start:end])
		if err != nil {
			log.Error().Int("batch_start", start).Err(err).Msg("storage: batch upsert failed")
			result.FailedCount += end - start
			continue
		}
		result.StoredCount += report.StoredCount
		result.FailedCount += report.FailedCount
	}

	bb.StorageResult = result
	return nil
}

// uniqueID derives a record ID from content_hash when present, else mints
// a fresh UUID; a collision within the batch is disambiguated with a
// random suffix.
func uniqueID(c normalize.Result, seen map[string]bool) string {
	id, _ := c.Metadata["content_hash"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	if seen[id] {
		id = id + "_" + uuid.New().String()[:8]
	}
	seen[id] = true
	return id
}
