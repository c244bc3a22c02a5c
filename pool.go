package rangepool

import (
	"strconv"

	"github.com/ygrebnov/errorc"
)

// Pool partitions the index range [0, Length()) among workers that join over time.
//
// The sub-ranges of all workers always tile [0, Length()) exactly. Workers are never
// removed: a fully processed worker stays in the pool as progress history, and a
// disposed worker with unfinished range is handed out again by the next CreateWorker.
//
// Pool has no internal locking. CreateWorker and every mutating Worker method read
// and write state shared across the whole pool, so all calls on a pool and its
// workers must come from a single goroutine or be guarded by one external lock.
// The coordinator package provides such a guard.
type Pool struct {
	// noCopy prevents accidental copying of the pool; handles point into it.
	//go:nocopy
	nc noCopy

	length  int
	workers []*Worker
	instr   *instruments
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
// It works with the "-copylocks" analyzer via the presence of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a pool over [0, length).
func New(length int, opts ...Option) (*Pool, error) {
	if length < 0 {
		return nil, errorc.With(ErrInvalidArgument, errorc.String("length", "must be at least zero, got "+strconv.Itoa(length)))
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Pool{length: length, instr: newInstruments(cfg.Metrics)}, nil
}

// CreateWorker grants the caller a worker, in order of preference:
//   - the earliest disposed worker that still has unfinished range, reactivated as is;
//   - a worker spanning the whole range, if the pool has no workers yet;
//   - the tail of the unfinished range of the active worker with the most remaining
//     indices (earliest created on ties). That worker keeps the leading half of its
//     remaining indices, rounded away from zero, and the new worker takes the rest.
//
// It returns ErrPoolExhausted when no unprocessed index remains, or when the only
// unfinished ranges belong to active workers with a single index left.
func (p *Pool) CreateWorker() (*Worker, error) {
	if p.Remaining() == 0 {
		p.instr.exhausted.Add(1)
		return nil, ErrPoolExhausted
	}

	for _, w := range p.workers {
		if !w.active && w.current < w.limit {
			w.SetActive(true)
			p.instr.reused.Add(1)
			return w, nil
		}
	}

	if len(p.workers) == 0 {
		return p.add(0, p.length)
	}

	busiest := p.busiest()
	if busiest == nil || busiest.Remaining() < 2 {
		p.instr.exhausted.Add(1)
		return nil, errorc.With(ErrPoolExhausted, errorc.String("split", "no active worker has a splittable range"))
	}

	// (r+1)/2 is r/2 rounded half away from zero for r >= 0.
	keep := (busiest.Remaining() + 1) / 2
	start := busiest.current + keep

	w, err := p.add(start, busiest.limit)
	if err != nil {
		return nil, err
	}
	busiest.limit = start
	p.instr.splitSize.Record(float64(w.limit - w.start))

	return w, nil
}

// busiest returns the earliest created active worker with the most remaining indices,
// or nil if no active worker has any.
func (p *Pool) busiest() *Worker {
	var best *Worker
	for _, w := range p.workers {
		if !w.active || w.Remaining() == 0 {
			continue
		}
		if best == nil || w.Remaining() > best.Remaining() {
			best = w
		}
	}
	return best
}

func (p *Pool) add(start, limit int) (*Worker, error) {
	w, err := NewWorker(start, limit)
	if err != nil {
		return nil, err
	}
	w.instr = p.instr
	w.SetActive(true)

	p.workers = append(p.workers, w)
	p.instr.created.Add(1)
	return w, nil
}

// Length returns the size of the partitioned range.
func (p *Pool) Length() int { return p.length }

// CompletedSteps returns the number of processed indices across all workers,
// whether active, disposed or finished.
func (p *Pool) CompletedSteps() int {
	completed := 0
	for _, w := range p.workers {
		completed += w.Completed()
	}
	return completed
}

// Remaining returns the number of indices not processed yet.
func (p *Pool) Remaining() int { return p.length - p.CompletedSteps() }

func (p *Pool) HasCompleted() bool { return p.Remaining() == 0 }

// CompletionPercentage returns the processed share of the pool as an integer percent.
// An empty pool reports 0.
func (p *Pool) CompletionPercentage() int { return percentage(p.CompletedSteps(), p.length) }

// ActiveWorkers returns the number of workers currently marked active.
func (p *Pool) ActiveWorkers() int {
	n := 0
	for _, w := range p.workers {
		if w.active {
			n++
		}
	}
	return n
}

// Workers returns the pool's worker handles in creation order.
// The slice is a copy; the handles are not.
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}
