package worker

import (
	"context"
	"sync"
)

// Map runs fn over indices [0, n) using up to the given number of workers and
// returns results indexed by input position. Output is identical regardless
// of worker count or scheduling: result i is always fn(i), and no worker
// shares state with another.
func Map[T any](ctx context.Context, workers, n int, fn func(i int) T) []T {
	results := make([]T, n)
	if n == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				return results
			}
			results[i] = fn(i)
		}
		return results
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-jobs:
					if !ok {
						return
					}
					results[i] = fn(i)
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
