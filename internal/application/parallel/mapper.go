// Package parallel fans work out over a bounded pool of goroutines and
// collects one result slot per input item.
package parallel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when Map is called with a non-positive pool size.
const DefaultWorkers = 20

// ErrPanic wraps a value recovered from a panicking worker function.
var ErrPanic = errors.New("worker panicked")

// Result is the outcome for the item submitted at Index. Value is the zero
// value whenever Err is set.
type Result[O any] struct {
	Index int
	Value O
	Err   error
}

// OK reports whether the worker function succeeded for this item.
func (r Result[O]) OK() bool { return r.Err == nil }

// Map runs fn for every item using at most workers goroutines and returns
// results such that results[i] belongs to items[i], whatever order the
// tasks finished in.
//
// A failing or panicking fn only affects its own slot. Tasks get a context
// detached from the caller's cancellation: once dispatched, every item runs
// to completion or to its own failure.
func Map[I, O any](ctx context.Context, items []I, workers int, fn func(context.Context, I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = call(taskCtx, i, item, fn)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func call[I, O any](ctx context.Context, index int, item I, fn func(context.Context, I) (O, error)) (res Result[O]) {
	res.Index = index
	defer func() {
		if r := recover(); r != nil {
			var zero O
			res.Value = zero
			res.Err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	value, err := fn(ctx, item)
	if err != nil {
		res.Err = err
		return res
	}
	res.Value = value
	return res
}

// Values returns the successful values in input order, skipping failed slots.
func Values[O any](results []Result[O]) []O {
	out := make([]O, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Value)
		}
	}
	return out
}
