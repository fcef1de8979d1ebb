package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Conflicts int32
	NotFounds int32
	Expired   int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.NotFounds + r.Expired
}

// RunConcurrent executes fn in parallel goroutines and collects results.
// Errors are categorized from either store sentinels or domain codes: an
// already-used token counts as a conflict.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, notFounds, expired atomic.Int32

	// Start everyone at once so the calls actually overlap.
	start := make(chan struct{})
	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			switch err := fn(idx); {
			case err == nil:
				successes.Add(1)
			case isConflict(err):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			case errors.Is(err, sentinel.ErrExpired) || dErrors.HasCode(err, dErrors.CodeTokenExpired):
				expired.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Expired:   expired.Load(),
	}
}

func isConflict(err error) bool {
	return errors.Is(err, sentinel.ErrConflict) ||
		errors.Is(err, sentinel.ErrAlreadyUsed) ||
		dErrors.HasCode(err, dErrors.CodeConflict) ||
		dErrors.HasCode(err, dErrors.CodeTokenAlreadyUsed)
}

// RunConcurrentCtx executes fn in parallel goroutines with context support.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}
