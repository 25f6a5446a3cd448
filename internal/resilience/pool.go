// Package resilience bounds and guards expensive or unreliable work: password
// hashing and publishes to the message bus.
package resilience

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool caps how many CPU-bound jobs, such as bcrypt comparisons, run at once.
// A burst of logins queues behind the pool instead of starving request
// handling of CPU.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool running at most limit jobs at a time. A limit below
// one selects GOMAXPROCS.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run waits for a slot and runs fn in it. It returns ctx.Err() if ctx ends
// while waiting. A nil Pool runs fn directly.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
