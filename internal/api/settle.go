package api

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Settled is the outcome of one branch of a fan-out.
type Settled[T any] struct {
	Value T
	Err   error
}

// OK reports whether the branch succeeded.
func (s Settled[T]) OK() bool {
	return s.Err == nil
}

// SettleAll runs every task and waits for all of them, in the manner of an
// all-settled join: a failing branch never cancels its siblings. Results keep
// the order of tasks. limit <= 0 runs all tasks at once.
func SettleAll[T any](ctx context.Context, limit int, tasks ...func(context.Context) (T, error)) []Settled[T] {
	results := make([]Settled[T], len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			value, err := task(ctx)
			results[i] = Settled[T]{Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed counts the branches that returned an error.
func Failed[T any](results []Settled[T]) int {
	count := 0
	for _, result := range results {
		if result.Err != nil {
			count++
		}
	}
	return count
}
