// internal/worker/pool.go
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs tasks on at most size goroutines. The first task error cancels
// the pool context and is returned by Wait.
type Pool struct {
	group *errgroup.Group
	ctx   context.Context
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)
	return &Pool{group: g, ctx: gctx}
}

// Context is cancelled once any task fails or the parent is done
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Submit blocks until a worker is free, then runs task on it
func (p *Pool) Submit(task func(ctx context.Context) error) {
	p.group.Go(func() error {
		return task(p.ctx)
	})
}

// Wait waits for all tasks to complete
func (p *Pool) Wait() error {
	return p.group.Wait()
}
