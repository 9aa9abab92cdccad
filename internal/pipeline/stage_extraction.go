package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/artifacts"
	"ragpipe/internal/config"
	"ragpipe/internal/extract"
	"ragpipe/internal/lifecycle"
)

// ExtractionStage runs the configured fallback chain over every monitored
// file, in parallel up to MaxWorkers, and promotes each validated result
// into a Document. A file whose whole chain fails is a per-item
// recoverable error: it is logged, tallied, and (when lifecycle management
// is enabled) moved straight to the errors tree without aborting the run.
type ExtractionStage struct {
	maxWorkers int
	mgr        *extract.Manager
	lifecycle  *lifecycle.Manager
	artifacts  *artifacts.Store
	summary    *extract.SessionSummary

	mu sync.Mutex
}

func NewExtractionStage(cfg config.ExtractionConfig, pipelineCfg config.PipelineConfig, lc *lifecycle.Manager, art *artifacts.Store) (*ExtractionStage, error) {
	mgr, err := extract.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("extraction stage: %w", err)
	}
	workers := pipelineCfg.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	return &ExtractionStage{
		maxWorkers: workers,
		mgr:        mgr,
		lifecycle:  lc,
		artifacts:  art,
		summary:    extract.NewSessionSummary(),
	}, nil
}

func (s *ExtractionStage) Name() string { return "extraction" }

func (s *ExtractionStage) ValidateConfig() error {
	if s.mgr == nil {
		return fmt.Errorf("extraction: fallback manager not initialized")
	}
	if len(s.mgr.AvailableExtractors()) == 0 {
		return fmt.Errorf("extraction: no extractors available in configured chain")
	}
	return nil
}

func (s *ExtractionStage) Execute(ctx context.Context, bb *Blackboard) error {
	files := bb.MonitoredFiles
	if len(files) == 0 {
		log.Warn().Str("stage", s.Name()).Msg("no monitored files; writing empty extracted_documents")
		bb.ExtractedDocuments = nil
		return nil
	}

	docs := make([]Document, len(files))
	ok := make([]bool, len(files))

	err := runParallel(ctx, len(files), s.maxWorkers, func(_ context.Context, i int) error {
		path := files[i]
		result, extractorName, extractErr := s.mgr.ExtractWithFallback(path)
		if extractErr != nil {
			s.recordFailure(path, extractErr)
			return nil
		}
		cleaned := extract.CleanText(result.Text)
		doc := Document{
			FilePath:         path,
			Text:             cleaned,
			OriginalLength:   len(result.Text),
			CleanedLength:    len(cleaned),
			ExtractionMethod: extractorName,
			ConfidenceScore:  result.ConfidenceScore,
			Metadata:         result.Metadata,
		}
		docs[i] = doc
		ok[i] = true
		s.recordSuccess(extractorName)
		return nil
	})
	if err != nil {
		return fmt.Errorf("extraction: %w", err)
	}

	out := make([]Document, 0, len(docs))
	for i, present := range ok {
		if present {
			out = append(out, docs[i])
		}
	}
	bb.ExtractedDocuments = out

	if s.artifacts != nil && s.artifacts.Enabled() {
		stamp := time.Now().UTC().Format("20060102T150405Z")
		if err := s.artifacts.SaveJSON(ctx, fmt.Sprintf("extracted/%s.json", stamp), out); err != nil {
			log.Warn().Err(err).Msg("extraction: failed to persist extracted_documents snapshot")
		}
		if err := s.artifacts.SaveJSON(ctx, fmt.Sprintf("metrics/%s.json", stamp), s.summary); err != nil {
			log.Warn().Err(err).Msg("extraction: failed to persist session summary")
		}
	}
	return nil
}

func (s *ExtractionStage) recordSuccess(extractorName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.RecordSuccess(extractorName)
}

func (s *ExtractionStage) recordFailure(path string, err error) {
	s.mu.Lock()
	s.summary.RecordFailure(path, err.Error())
	s.mu.Unlock()

	log.Error().Str("file", path).Err(err).Msg("extraction: all extractors failed")
	if s.lifecycle == nil {
		return
	}
	base := s.lifecycle.BaseWatchPath(path)
	s.lifecycle.MoveToErrors(path, base, err.Error())
}

// Summary exposes the accumulated session summary for cmd/ragpipe to log or
// persist after the run completes.
func (s *ExtractionStage) Summary() *extract.SessionSummary {
	return s.summary
}
