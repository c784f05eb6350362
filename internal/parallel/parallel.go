// Package parallel provides the thread pool handed to operators at setup and
// used to spread microkernel work across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	NumWorkers   int // Number of worker goroutines to use.
	MinChunkSize int // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		NumWorkers:   runtime.NumCPU(),
		MinChunkSize: 4, // Items are whole output rows, not single elements.
	}
}

// Pool is a bounded set of workers. A nil *Pool runs everything on the
// calling goroutine.
type Pool struct {
	cfg Config
}

// New creates a Pool. Non-positive fields fall back to DefaultConfig.
func New(cfg Config) *Pool {
	def := DefaultConfig()
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = def.MinChunkSize
	}
	return &Pool{cfg: cfg}
}

// Workers returns the pool width.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.cfg.NumWorkers
}

// For executes f(i) for i in [0, n) and returns the first error.
// Falls back to sequential execution if the pool is nil, has one worker, or n
// is too small to split.
func (p *Pool) For(n int, f func(i int) error) error {
	if p == nil || p.cfg.NumWorkers <= 1 || n < 2*p.cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.NumWorkers)
	chunkSize := max((n+p.cfg.NumWorkers-1)/p.cfg.NumWorkers, p.cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := f(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// For2D executes f(a, b) over the [0, outer) x [0, inner) grid.
// Common for batch*rows iteration in pooling kernels.
func (p *Pool) For2D(outer, inner int, f func(a, b int) error) error {
	if inner <= 0 {
		return nil
	}
	return p.For(outer*inner, func(k int) error {
		return f(k/inner, k%inner)
	})
}
