package dispatch

import (
	"context"
	"errors"
	"sync"
)

// RunPhase submits every job to pool and blocks until all submitted jobs have returned.
// No output of a phase may be read before RunPhase returns. Errors of all jobs are
// joined; a failed submission stops further submissions but still waits for the jobs
// already queued.
func RunPhase(ctx context.Context, pool Submitter, jobs []Job) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, job := range jobs {
		job := job
		wg.Add(1)
		err := pool.SubmitCtx(ctx, func(ctx context.Context) error {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(err)
				return err
			}
			if err := job(ctx); err != nil {
				record(err)
				return err
			}
			return nil
		})
		if err != nil {
			wg.Done()
			record(err)
			break
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Range is the half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns End - Start.
func (r Range) Len() int { return r.End - r.Start }

// Ranges cuts [0, n) into at most parts contiguous, non-empty, disjoint ranges of nearly
// equal size.
func Ranges(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := n / parts
	rem := n % parts
	ranges := make([]Range, 0, parts)
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	return ranges
}

// Chunk cuts [0, n) into contiguous ranges of size elements, the last one possibly
// shorter.
func Chunk(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	var ranges []Range
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}
