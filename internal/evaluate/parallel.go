package evaluate

import (
	"runtime"
	"sync"

	"github.com/inodb/genome-mapping/internal/compare"
	"github.com/inodb/genome-mapping/internal/hits"
)

// WorkItem holds a hit waiting to be compared.
type WorkItem struct {
	Seq int
	Hit *hits.Hit
}

// WorkResult holds the comparisons produced for a single hit, together
// with every feature the hit overlapped.
type WorkResult struct {
	Seq         int
	Hit         *hits.Hit
	Overlaps    []*featureEntry
	Comparisons []*compare.Comparison
	Err         error
}

// ParallelCompare compares work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (e *Evaluator) ParallelCompare(items <-chan WorkItem, workers int, opts CompareOptions) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- e.compareHit(item.Seq, item.Hit, opts)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results wait in a pending map until their turn.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
