package runner

import (
	"context"

	"swissknife/internal/tools"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// RunBatch runs requests on a bounded worker pool. Results keep the order of
// reqs; an unknown tool only fails its own entry. The returned error is the
// cancellation of ctx, if any run observed it.
func (r *Runner) RunBatch(ctx context.Context, reqs []Request, concurrency int) ([]RunResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]RunResult, len(reqs))
	errs := make([]error, len(reqs))

	p := pool.New().WithMaxGoroutines(concurrency)
	for i, req := range reqs {
		p.Go(func() {
			jobCtx, cancel := context.WithCancelCause(ctx)
			defer cancel(nil)
			results[i], errs[i] = r.Run(jobCtx, req)
		})
	}
	p.Wait()

	var cancelled error
	failed := 0
	for i, err := range errs {
		if err == nil {
			if results[i].Status != StatusSuccess {
				failed++
			}
			continue
		}
		failed++
		if tools.IsCancelled(err) && cancelled == nil {
			cancelled = err
		}
	}
	r.logger.Info("batch finished", zap.Int("jobs", len(reqs)), zap.Int("failed", failed))
	return results, cancelled
}
