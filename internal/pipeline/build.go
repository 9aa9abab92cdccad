package pipeline

import (
	"context"
	"fmt"

	"ragpipe/internal/artifacts"
	"ragpipe/internal/config"
	"ragpipe/internal/lifecycle"
	"ragpipe/internal/providers"
)

// Stage names gating construction via config.PipelineConfig.EnabledStages.
const (
	StageExtraction = "extraction"
	StageChunking   = "chunking"
	StageEnrichment = "enrichment"
	StageAudit      = "audit"
	StageEmbedding  = "embedding"
	StageNormalize  = "normalization"
	StageStorage    = "storage"
	StageLifecycle  = "lifecycle"
)

// Built bundles the constructed engine with the handles cmd/ragpipe needs
// after a run completes (extraction metrics, the lifecycle manager for the
// --watch loop's own bookkeeping).
type Built struct {
	Engine     *Engine
	Extraction *ExtractionStage
	Lifecycle  *lifecycle.Manager
}

// Build resolves the provider registry and artifact store, constructs
// every enabled stage in declared order, and returns a ready-to-validate
// Engine. Construction itself never touches the network; provider clients
// are lazy wrappers resolved at call time.
func Build(ctx context.Context, cfg *config.Config) (*Built, error) {
	registry, err := providers.NewRegistryFromConfig(cfg.Infrastructure.Providers)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building provider registry: %w", err)
	}

	artifactStore, err := artifacts.New(ctx, cfg.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building artifact store: %w", err)
	}

	lifecycleMgr, err := lifecycle.New(cfg.Lifecycle)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building lifecycle manager: %w", err)
	}

	var stages []Stage
	var extractionStage *ExtractionStage

	if cfg.Pipeline.StageEnabled(StageExtraction) {
		extractionStage, err = NewExtractionStage(cfg.Extraction, cfg.Pipeline, lifecycleMgr, artifactStore)
		if err != nil {
			return nil, err
		}
		stages = append(stages, extractionStage)
	}

	if cfg.Pipeline.StageEnabled(StageChunking) {
		chunkingStage, err := NewChunkingStage(cfg.Chunking, cfg.Embedding, registry)
		if err != nil {
			return nil, err
		}
		stages = append(stages, chunkingStage)
	}

	if cfg.Pipeline.StageEnabled(StageEnrichment) {
		enrichmentStage, err := NewEnrichmentStage(cfg.Enrichment, registry)
		if err != nil {
			return nil, err
		}
		stages = append(stages, enrichmentStage)
	}

	if cfg.Pipeline.StageEnabled(StageAudit) {
		auditStage, err := NewAuditStage(cfg.Audit, registry)
		if err != nil {
			return nil, err
		}
		stages = append(stages, auditStage)
	}

	if cfg.Pipeline.StageEnabled(StageEmbedding) {
		embeddingStage, err := NewEmbeddingStage(cfg.Embedding, registry)
		if err != nil {
			return nil, err
		}
		stages = append(stages, embeddingStage)
	}

	if cfg.Pipeline.StageEnabled(StageNormalize) {
		stages = append(stages, NewNormalizeStage(cfg.Normalize))
	}

	if cfg.Pipeline.StageEnabled(StageStorage) {
		storageStage, err := NewStorageStage(ctx, cfg.VectorStore)
		if err != nil {
			return nil, err
		}
		stages = append(stages, storageStage)
	}

	if cfg.Pipeline.StageEnabled(StageLifecycle) {
		stages = append(stages, NewLifecycleStage(lifecycleMgr))
	}

	return &Built{
		Engine:     NewEngine(stages...),
		Extraction: extractionStage,
		Lifecycle:  lifecycleMgr,
	}, nil
}
