package background

import (
	"context"
	"sync"
	"time"

	"github.com/brandforge-app/brandforge/internal/logger"
)

// Runner executes best-effort work after a response has been sent, while
// keeping every spawned task on a WaitGroup so shutdown (and tests) can wait
// for completion instead of racing a detached goroutine.
type Runner struct {
	wg      sync.WaitGroup
	log     *logger.Logger
	timeout time.Duration
}

func NewRunner(log *logger.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{log: log.With("component", "background"), timeout: timeout}
}

// Go runs fn on its own goroutine with a fresh context, detached from the
// request that spawned it. Errors are logged, never returned; callers that
// got here already received a successful response.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.log.Error("background task failed", "task", name, "error", err)
		}
	}()
}

// Drain blocks until all in-flight tasks finish or ctx expires.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
