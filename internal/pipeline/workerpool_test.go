package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallelVisitsEveryIndex(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)

	err := runParallel(context.Background(), 10, 3, func(_ context.Context, i int) error {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, seen, 10)
}

func TestRunParallelRespectsLimit(t *testing.T) {
	var inFlight int32
	var maxSeen int32

	err := runParallel(context.Background(), 20, 4, func(_ context.Context, _ int) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxSeen)
			if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
		return nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, int(maxSeen), 4)
}

func TestRunParallelPropagatesFirstError(t *testing.T) {
	boom := errors.New("item 3 failed")
	err := runParallel(context.Background(), 5, 5, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunParallelZeroItemsIsNoop(t *testing.T) {
	called := false
	err := runParallel(context.Background(), 0, 4, func(_ context.Context, _ int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}
