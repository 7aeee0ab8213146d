package dynamo

import (
	"runtime"
	"sync"
)

// DefaultMinChunk is the smallest index range worth handing to its own goroutine.
const DefaultMinChunk = 256

// Workers resolves a configured worker count; zero or negative means GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ParallelFor executes fn over [0, n) split into contiguous chunks and
// returns only after every chunk has finished. Each chunk spans at least
// minChunk indices, so small n runs inline on the caller's goroutine.
func ParallelFor(n, minChunk, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	minChunk = max(minChunk, 1)
	workers = max(min(workers, n/minChunk), 1)
	if workers == 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(lo, hi)
		}()
	}
	wg.Wait()
}
