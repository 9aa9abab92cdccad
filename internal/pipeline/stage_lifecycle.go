package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/lifecycle"
)

// LifecycleStage moves every source file that made it all the way through
// the run into the processed tree. It runs last: a file only reaches here
// once extraction, chunking, enrichment, audit, embedding, normalization,
// and storage have all completed without a stage-fatal error. Per-file
// extraction failures are handled earlier, directly by ExtractionStage,
// since they never produce a Document to carry this far.
type LifecycleStage struct {
	mgr *lifecycle.Manager
}

func NewLifecycleStage(mgr *lifecycle.Manager) *LifecycleStage {
	return &LifecycleStage{mgr: mgr}
}

func (s *LifecycleStage) Name() string { return "lifecycle" }

func (s *LifecycleStage) ValidateConfig() error {
	return nil
}

func (s *LifecycleStage) Execute(ctx context.Context, bb *Blackboard) error {
	if s.mgr == nil {
		return nil
	}
	for _, doc := range bb.ExtractedDocuments {
		base := s.mgr.BaseWatchPath(doc.FilePath)
		dest := s.mgr.MoveToProcessed(doc.FilePath, base)
		if dest != "" {
			log.Debug().Str("file", doc.FilePath).Str("dest", dest).Msg("lifecycle: moved to processed")
		}
	}
	return nil
}
