package pipeline

import "context"

// Stage is the capability set every pipeline step implements:
// validate its own configuration once at construction, then execute
// against the shared blackboard on every run. Execute is the only
// mutation point: a stage reads zero or more prior fields and writes
// exactly one field of its own.
type Stage interface {
	// Name identifies the stage in logs and in a stage-fatal error's
	// wrapping message.
	Name() string

	// ValidateConfig reports a configuration error for this stage. The
	// engine calls it once per stage at construction time, before any
	// data is processed; a non-nil return is fatal at startup.
	ValidateConfig() error

	// Execute runs the stage against bb. A non-nil return aborts the run
	// (stage fatal); a stage that has nothing to do for its input should
	// write an empty result for its output field and return nil rather
	// than erroring.
	Execute(ctx context.Context, bb *Blackboard) error
}
