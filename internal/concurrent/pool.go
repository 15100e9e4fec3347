// Package concurrent provides a bounded parallel task runner used by
// the batch parse and validate APIs.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run executes fn for every index in [0, n) with at most limit tasks in
// flight. A limit of zero or less means unbounded. The first error
// cancels the remaining tasks and is returned.
func Run(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(ctx, i)
		})
	}

	return g.Wait()
}
