// Package parallel runs index loops on a bounded number of goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Workers returns the default number of goroutines: one per logical core.
func Workers() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// ForEach executes body(i) for i in [0, length) with at most limit
// goroutines running at once.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// For splits [0, length) into at most limit contiguous chunks and runs
// body(start, end) for each on its own goroutine. It returns once every
// chunk has finished. Small loops run inline.
func For(length, limit int, body func(start, end int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	chunks := min(limit, length)
	if chunks == 1 {
		body(0, length)
		return
	}

	size := (length + chunks - 1) / chunks
	ForEach(chunks, chunks, func(c int) {
		start := c * size
		end := min(start+size, length)
		if start < end {
			body(start, end)
		}
	})
}
