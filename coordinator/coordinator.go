// Package coordinator shares one rangepool.Pool between many goroutines.
//
// rangepool.Pool has no internal locking by design. A Coordinator owns the pool,
// serializes every call on it and its workers behind one mutex, and optionally caps
// how many workers are held at once. Goroutines obtain a Lease, process the indices
// it reports, and release it when done or when giving up.
package coordinator

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ygrebnov/errorc"
	"golang.org/x/sync/semaphore"

	"github.com/ygrebnov/rangepool"
)

var ErrLeaseReleased = errors.New(rangepool.Namespace + ": lease already released")

// Coordinator hands out leases on a pool's workers. Methods are safe for concurrent use.
type Coordinator struct {
	mu   sync.Mutex
	pool *rangepool.Pool

	// nil when capacity is unlimited
	slots *semaphore.Weighted

	logger *log.Logger
	format rangepool.Format
}

// New wraps p. The caller must not use p directly afterwards.
func New(p *rangepool.Pool, opts ...Option) (*Coordinator, error) {
	if p == nil {
		return nil, errorc.With(rangepool.ErrInvalidConfig, errorc.String("pool", "pool is nil"))
	}

	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return newCoordinator(p, o), nil
}

// NewFromConfig creates a pool of cfg.Length and a coordinator around it.
func NewFromConfig(cfg Config, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o, err := buildOptions(append(cfg.options(), opts...))
	if err != nil {
		return nil, err
	}

	p, err := rangepool.New(cfg.Length, o.PoolOptions...)
	if err != nil {
		return nil, err
	}
	return newCoordinator(p, o), nil
}

func buildOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return options{}, err
		}
	}
	return o, nil
}

func newCoordinator(p *rangepool.Pool, o options) *Coordinator {
	c := &Coordinator{
		pool:   p,
		logger: o.Logger,
		format: o.SnapshotFormat,
	}
	if o.Capacity > 0 {
		c.slots = semaphore.NewWeighted(int64(o.Capacity))
	}
	return c
}

// Acquire waits for free capacity and leases a worker from the pool.
// It returns rangepool.ErrPoolExhausted when there is nothing left to hand out,
// and ctx.Err() if ctx ends while waiting.
func (c *Coordinator) Acquire(ctx context.Context) (*Lease, error) {
	if c.slots != nil {
		if err := c.slots.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	w, err := c.pool.CreateWorker()
	if err != nil {
		c.mu.Unlock()
		c.releaseSlot()
		c.logger.Debug("acquire refused", "err", err)
		return nil, err
	}
	start, current, limit := w.Start(), w.Current(), w.Limit()
	c.mu.Unlock()

	c.logger.Debug("lease acquired", "start", start, "current", current, "limit", limit)
	return &Lease{c: c, w: w}, nil
}

func (c *Coordinator) releaseSlot() {
	if c.slots != nil {
		c.slots.Release(1)
	}
}

// Remaining returns the number of unprocessed indices in the pool.
func (c *Coordinator) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Remaining()
}

// CompletedSteps returns the number of processed indices in the pool.
func (c *Coordinator) CompletedSteps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.CompletedSteps()
}

func (c *Coordinator) HasCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.HasCompleted()
}

// Snapshot returns a consistent snapshot of the pool.
func (c *Coordinator) Snapshot() rangepool.PoolSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Serialize()
}

// WriteSnapshot encodes a consistent snapshot of the pool to w in the configured format.
func (c *Coordinator) WriteSnapshot(w io.Writer) error {
	return rangepool.EncodeSnapshot(w, c.Snapshot(), c.format)
}

// Lease is one goroutine's hold on a pool worker.
// A Lease must not be shared between goroutines.
type Lease struct {
	c        *Coordinator
	w        *rangepool.Worker
	released bool
}

// Next returns the next chunk [from, to) of at most n indices in the leased range.
// from == to means the range is fully processed or the lease was released. The
// limit may shrink when another goroutine acquires a lease, so Advance can still
// report rangepool.ErrRangeExceeded; call Next again in that case.
func (l *Lease) Next(n int) (from, to int) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	from = l.w.Current()
	if l.released {
		return from, from
	}
	return from, from + min(max(n, 0), l.w.Remaining())
}

// Advance reports steps processed indices.
// The worker may be leased to someone else once released, so a released lease
// returns ErrLeaseReleased.
func (l *Lease) Advance(steps int) error {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	if l.released {
		return ErrLeaseReleased
	}
	return l.w.Advance(steps)
}

// Range returns the leased worker's bounds and cursor.
func (l *Lease) Range() (start, current, limit int) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	return l.w.Start(), l.w.Current(), l.w.Limit()
}

// Done reports whether the leased range is fully processed.
func (l *Lease) Done() bool {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	return l.w.HasCompleted()
}

// Release disposes the leased worker and frees its capacity slot.
// Unfinished indices go back to the pool for the next Acquire. Calling Release
// more than once has no effect.
func (l *Lease) Release() {
	l.c.mu.Lock()
	if l.released {
		l.c.mu.Unlock()
		return
	}
	l.released = true
	l.w.Dispose()
	start, current, limit := l.w.Start(), l.w.Current(), l.w.Limit()
	l.c.mu.Unlock()

	l.c.releaseSlot()
	l.c.logger.Debug("lease released", "start", start, "current", current, "limit", limit)
}
