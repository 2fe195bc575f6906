package plumbline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forEach calls fn for every index in [0, n). With WithParallel enabled the
// calls run on a pool of runtime.NumCPU() workers; otherwise they run in
// order on the calling goroutine. fn reports per-item failures through its
// own result slot, so only cancellation is returned here. Cancellation is
// checked between items, never inside one.
func (e *Engine) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if !e.useParallel || n < 2 {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(runtime.NumCPU(), n)))
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			return nil
		})
	}
	return g.Wait()
}
