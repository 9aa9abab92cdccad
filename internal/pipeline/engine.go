package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// StageError carries the stage-fatal error class: which stage failed and
// why, so cmd/ragpipe can report "stage=<name> error=<message>" and map it
// to a non-zero exit without string matching.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage=%s error=%s", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageStatus records one stage's outcome within a single run, for the
// engine's per-stage status log.
type StageStatus struct {
	Name     string
	Duration time.Duration
	Skipped  bool
	Err      error
}

// Engine owns an ordered list of enabled stages and runs them sequentially
// against one shared blackboard. Disabled stages are never constructed, so
// Engine never sees them; there is nothing to skip at run time.
type Engine struct {
	stages []Stage
}

// NewEngine builds an engine from already-constructed, enabled stages in
// declared order.
func NewEngine(stages ...Stage) *Engine {
	return &Engine{stages: stages}
}

// Validate calls ValidateConfig on every stage, in order, stopping at the
// first failure. The caller (cmd/ragpipe) treats a non-nil return as fatal
// at startup, before any data is processed.
func (e *Engine) Validate() error {
	for _, s := range e.stages {
		if err := s.ValidateConfig(); err != nil {
			return fmt.Errorf("pipeline: stage %q config invalid: %w", s.Name(), err)
		}
	}
	return nil
}

// Run executes every stage in order against bb. A stage that returns an
// error aborts the run immediately; Run wraps the error with the offending
// stage's name and returns the per-stage statuses gathered up to and
// including the failing stage, so the caller can log what did complete.
//
// Run also honors ctx cancellation between stages. A stage already in
// flight is not interrupted, but no further stage starts.
func (e *Engine) Run(ctx context.Context, bb *Blackboard) ([]StageStatus, error) {
	statuses := make([]StageStatus, 0, len(e.stages))
	for _, s := range e.stages {
		select {
		case <-ctx.Done():
			return statuses, ctx.Err()
		default:
		}

		start := time.Now()
		err := s.Execute(ctx, bb)
		status := StageStatus{Name: s.Name(), Duration: time.Since(start), Err: err}
		statuses = append(statuses, status)

		if err != nil {
			log.Error().Str("stage", s.Name()).Err(err).Dur("elapsed", status.Duration).Msg("stage failed")
			return statuses, &StageError{Stage: s.Name(), Err: err}
		}
		log.Info().Str("stage", s.Name()).Dur("elapsed", status.Duration).Msg("stage completed")
	}
	return statuses, nil
}
