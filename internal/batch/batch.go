// Package batch runs many overlap queries against one built tree.
package batch

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/itree/internal/itree"
)

// Request is one query to run.
type Request struct {
	Seq   int
	Start uint64
	End   uint64
}

// Result holds the hits for a single request.
type Result[T any] struct {
	Seq   int
	Start uint64
	End   uint64
	Hits  []itree.Hit[T]
	Err   error
}

// Runner queries an immutable tree from a pool of workers.
type Runner[T any] struct {
	tree      *itree.Tree[T]
	inclusive bool
	logger    *zap.Logger
}

// NewRunner creates a runner over a fully built tree. The tree must not be
// modified while the runner is in use.
func NewRunner[T any](tree *itree.Tree[T], inclusive bool) *Runner[T] {
	return &Runner[T]{
		tree:      tree,
		inclusive: inclusive,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (r *Runner[T]) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Query runs a single request.
func (r *Runner[T]) Query(req Request) ([]itree.Hit[T], error) {
	if req.Start > req.End {
		return nil, fmt.Errorf("query %d: start %d after end %d", req.Seq, req.Start, req.End)
	}
	return r.tree.Query(req.Start, req.End, r.inclusive), nil
}

// Run answers requests using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (r *Runner[T]) Run(requests <-chan Request, workers int) <-chan Result[T] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan Result[T], 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for iter := 0; iter < workers; iter++ {
		go func() {
			defer wg.Done()
			for req := range requests {
				hits, err := r.Query(req)
				results <- Result[T]{
					Seq:   req.Seq,
					Start: req.Start,
					End:   req.End,
					Hits:  hits,
					Err:   err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// RunAll answers every request and calls fn with the results in sequence
// order. Failed requests are logged and skipped.
func (r *Runner[T]) RunAll(requests []Request, workers int, fn func(Result[T]) error) error {
	ch := make(chan Request, len(requests))
	for i, req := range requests {
		req.Seq = i
		ch <- req
	}
	close(ch)

	return OrderedCollect(r.Run(ch, workers), func(res Result[T]) error {
		if res.Err != nil {
			r.logger.Warn("query failed",
				zap.Int("seq", res.Seq),
				zap.Uint64("start", res.Start),
				zap.Uint64("end", res.End),
				zap.Error(res.Err))
			return nil
		}
		return fn(res)
	})
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect[T any](results <-chan Result[T], fn func(Result[T]) error) error {
	pending := make(map[int]Result[T])
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
