package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one job, keyed by the job's position.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// RunBounded calls work for each job with at most limit calls in flight and
// hands every outcome to yield in completion order. yield runs on the calling
// goroutine only, so it may mutate caller state without locking.
//
// The first failing job stops new jobs from starting and cancels the context
// seen by the ones still running. Its error is returned. Failed jobs are not retried.
func RunBounded[J, R any](ctx context.Context, jobs []J, limit int, work func(context.Context, J) (R, error), yield func(Outcome[R])) error {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	outcomes := make(chan Outcome[R], len(jobs))
	var runErr error
	go func() {
		launched := 0
		for i, job := range jobs {
			if gctx.Err() != nil {
				break
			}
			launched++
			g.Go(func() error {
				// g.Go may have blocked on the limit while a sibling failed
				if err := gctx.Err(); err != nil {
					outcomes <- Outcome[R]{Index: i, Err: err}
					return err
				}
				v, err := work(gctx, job)
				// the outcome is queued before the error cancels siblings
				outcomes <- Outcome[R]{Index: i, Value: v, Err: err}
				return err
			})
		}
		runErr = g.Wait()
		if runErr == nil && launched < len(jobs) {
			runErr = ctx.Err()
		}
		close(outcomes)
	}()

	for o := range outcomes {
		if yield != nil {
			yield(o)
		}
	}
	return runErr
}
