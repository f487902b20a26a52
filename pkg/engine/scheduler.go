package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ParallelScheduler evaluates the nodes of one graph level on a bounded
// worker pool. Nodes of a level never read each other's outputs, so they
// can run concurrently; levels themselves must run in order.
type ParallelScheduler struct {
	// maxParallel is the maximum number of concurrent workers
	maxParallel int

	// observer is notified after every evaluation. With more than one
	// worker it is called concurrently.
	observer ComputeObserver
}

// NewParallelScheduler creates a scheduler running at most maxParallel
// evaluations at once. Values below 1 mean sequential evaluation.
func NewParallelScheduler(maxParallel int, observer ComputeObserver) *ParallelScheduler {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &ParallelScheduler{
		maxParallel: maxParallel,
		observer:    observer,
	}
}

// levelResult is the outcome of one node evaluation.
type levelResult struct {
	ran bool
	err error
}

// RunLevel computes the stale nodes among ids. It returns the IDs that
// computed successfully, in ids order, and the first failure in ids order.
// Nodes already in flight when ctx is cancelled finish; the rest are
// skipped.
func (s *ParallelScheduler) RunLevel(ctx context.Context, nodes map[string]Computable, ids []string) ([]string, error) {
	stale := make([]string, 0, len(ids))
	for _, id := range ids {
		if nodes[id].Status().NeedsCompute() {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	results := make([]levelResult, len(stale))

	workerCount := s.maxParallel
	if len(stale) < workerCount {
		workerCount = len(stale)
	}

	if workerCount == 1 {
		for i, id := range stale {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.execute(nodes[id], id)
			if results[i].err != nil {
				break
			}
		}
		return collect(stale, results, ctx.Err())
	}

	// Create work queue
	workQueue := make(chan int, len(stale))
	for i := range stale {
		workQueue <- i
	}
	close(workQueue)

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workQueue {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results[i] = s.execute(nodes[stale[i]], stale[i])
			}
		}()
	}
	wg.Wait()

	return collect(stale, results, ctx.Err())
}

func (s *ParallelScheduler) execute(node Computable, id string) levelResult {
	start := time.Now()
	err := node.Compute()
	if s.observer != nil {
		s.observer(id, time.Since(start), err)
	}
	return levelResult{ran: true, err: err}
}

func collect(ids []string, results []levelResult, ctxErr error) ([]string, error) {
	computed := make([]string, 0, len(ids))
	var firstErr error
	for i, r := range results {
		if !r.ran {
			continue
		}
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to compute %s: %w", ids[i], r.err)
			}
			continue
		}
		computed = append(computed, ids[i])
	}
	if firstErr == nil {
		firstErr = ctxErr
	}
	return computed, firstErr
}
