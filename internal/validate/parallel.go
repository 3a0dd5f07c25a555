package validate

import "sync"

// parallelFor splits [0, n) into at most workers contiguous chunks and runs
// fn on each in its own goroutine. The first error by chunk order is returned.
func parallelFor(n, workers int, fn func(start, end int) error) error {
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return fn(0, n)
	}

	chunkSize := (n + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(idx, s, e int) {
			defer wg.Done()
			errs[idx] = fn(s, e)
		}(w, start, end)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
