package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ojcast/ojcast/internal/forecast"
	"github.com/ojcast/ojcast/internal/logging"
)

// ErrClosed is returned by Map once the pool has been closed.
var ErrClosed = errors.New("pool is closed")

// Pool bounds how many fitting tasks run at once and pins the model menu
// for a run. Creation validates every required model against the registry,
// so a misconfigured run fails before any data is touched.
type Pool struct {
	workers  int
	required []string
	logger   *logging.Logger

	mu     sync.Mutex
	closed bool
}

// New returns a pool that runs at most workers tasks at a time.
// Every name in required must be a registered model.
func New(workers int, required []string) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("pool workers must be >= 1, got %d", workers)
	}
	for _, name := range required {
		if _, err := forecast.GetFitter(name); err != nil {
			return nil, fmt.Errorf("required model not available: %w", err)
		}
	}

	p := &Pool{
		workers:  workers,
		required: append([]string(nil), required...),
		logger:   logging.Global(),
	}
	p.logger.Debug("Worker pool created",
		"workers", workers,
		"models", fmt.Sprintf("%v", p.required))
	return p, nil
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Required returns a copy of the model names the pool was created with.
func (p *Pool) Required() []string {
	return append([]string(nil), p.required...)
}

// Map runs task(0) .. task(n-1) with at most workers in flight and waits
// for all of them. The first error cancels the group's context and is
// returned; tasks that have not started yet observe the cancellation and
// never run. Callers write results into index-addressed slices, so output
// order matches input order regardless of scheduling.
func (p *Pool) Map(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if n <= 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}
	return g.Wait()
}

// Close marks the pool closed. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.logger.Debug("Worker pool closed", "workers", p.workers)
}
