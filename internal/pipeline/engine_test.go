package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStage is a minimal Stage for exercising Engine without any real
// package wiring.
type fakeStage struct {
	name        string
	validateErr error
	execErr     error
	ran         bool
	exec        func(bb *Blackboard)
}

func (s *fakeStage) Name() string          { return s.name }
func (s *fakeStage) ValidateConfig() error { return s.validateErr }
func (s *fakeStage) Execute(_ context.Context, bb *Blackboard) error {
	s.ran = true
	if s.exec != nil {
		s.exec(bb)
	}
	return s.execErr
}

func TestEngineValidateStopsAtFirstInvalidStage(t *testing.T) {
	ok := &fakeStage{name: "a"}
	bad := &fakeStage{name: "b", validateErr: errors.New("bad config")}
	never := &fakeStage{name: "c"}

	e := NewEngine(ok, bad, never)
	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "bad config")
}

func TestEngineValidatePassesWhenEveryStageIsValid(t *testing.T) {
	e := NewEngine(&fakeStage{name: "a"}, &fakeStage{name: "b"})
	assert.NoError(t, e.Validate())
}

func TestEngineRunExecutesStagesInOrder(t *testing.T) {
	var order []string
	a := &fakeStage{name: "a", exec: func(bb *Blackboard) { order = append(order, "a"); bb.MonitoredFiles = append(bb.MonitoredFiles, "a") }}
	b := &fakeStage{name: "b", exec: func(bb *Blackboard) { order = append(order, "b") }}

	e := NewEngine(a, b)
	bb := &Blackboard{}
	statuses, err := e.Run(context.Background(), bb)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	require.Len(t, statuses, 2)
	assert.Equal(t, "a", statuses[0].Name)
	assert.Equal(t, "b", statuses[1].Name)
	assert.True(t, a.ran)
	assert.True(t, b.ran)
}

func TestEngineRunStopsAtFirstFailingStage(t *testing.T) {
	a := &fakeStage{name: "extraction"}
	failing := &fakeStage{name: "chunking", execErr: errors.New("split failed")}
	never := &fakeStage{name: "enrichment"}

	e := NewEngine(a, failing, never)
	statuses, err := e.Run(context.Background(), &Blackboard{})

	require.Error(t, err)
	assert.Equal(t, "stage=chunking error=split failed", err.Error())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "chunking", stageErr.Stage)

	require.Len(t, statuses, 2)
	assert.Error(t, statuses[1].Err)
	assert.False(t, never.ran)
}

func TestEngineRunHonorsContextCancellationBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeStage{name: "a", exec: func(*Blackboard) { cancel() }}
	b := &fakeStage{name: "b"}

	e := NewEngine(a, b)
	_, err := e.Run(ctx, &Blackboard{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, b.ran)
}

func TestStageErrorUnwrapsToUnderlyingError(t *testing.T) {
	underlying := errors.New("boom")
	se := &StageError{Stage: "storage", Err: underlying}
	assert.ErrorIs(t, se, underlying)
}

func TestEngineRunRecordsDurationPerStage(t *testing.T) {
	slow := &fakeStage{name: "slow", exec: func(*Blackboard) { time.Sleep(time.Millisecond) }}
	e := NewEngine(slow)
	statuses, err := e.Run(context.Background(), &Blackboard{})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.GreaterOrEqual(t, statuses[0].Duration, time.Duration(0))
}
