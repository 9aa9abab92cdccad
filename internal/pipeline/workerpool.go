package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runParallel invokes fn for every index in [0, n) using a worker pool of
// at most limit concurrent goroutines, collecting one result per index.
// Per-file fallback chains remain sequential inside fn; only the fan-out
// across files is concurrent.
//
// fn must not return an error for a routine per-item failure. It should
// record the failure into its own result slot and return nil, the same
// way extractors report failure through Result.Success rather than an
// error. A non-nil return here is reserved for a genuinely fatal condition
// (e.g. context cancellation) and aborts remaining work.
func runParallel(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
