package reconcile

import (
	"context"
	"sync"
	"time"
)

// Defaults used by the pipelines
const (
	DefaultScanBatchSize = 10
	DefaultScanDelay     = 200 * time.Millisecond
	DefaultRemovalDelay  = 300 * time.Millisecond
)

// RunBatches processes items in contiguous batches of at most size elements.
// Items within a batch run concurrently; their results are recombined in input
// order. Between batches the runner waits for delay (never after the last
// batch). The per-item operation must capture its own failures in R; the
// runner only fails on context cancellation, which is checked between batches.
// afterBatch, if non-nil, is invoked after each batch settles with the total
// number of items processed so far.
func RunBatches[T, R any](ctx context.Context, items []T, size int, delay time.Duration, op func(context.Context, T) R, afterBatch func(processed int)) ([]R, error) {
	if size <= 0 {
		size = 1
	}

	results := make([]R, len(items))
	processed := 0

	for start := 0; start < len(items); start += size {
		if start > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = op(ctx, items[i])
			}(i)
		}
		wg.Wait()

		processed += end - start
		if afterBatch != nil {
			afterBatch(processed)
		}
	}

	return results, nil
}
