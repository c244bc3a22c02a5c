package rangepool

import (
	"math"
	"strconv"

	"github.com/ygrebnov/errorc"
)

// Worker tracks progress through one contiguous sub-range [start, limit) of a Pool.
// Handles returned by Pool.CreateWorker point at the pool's own records: a disposed
// worker that gets reused comes back through every handle issued for it.
//
// Worker is not safe for concurrent use. Calls must be serialized together with
// the owning Pool's calls.
type Worker struct {
	active  bool
	start   int
	current int
	limit   int

	// nil for standalone workers.
	instr *instruments
}

// NewWorker creates an inactive worker covering [start, limit).
func NewWorker(start, limit int) (*Worker, error) {
	if start < 0 {
		return nil, errorc.With(ErrInvalidArgument, errorc.String("start", "must be at least zero, got "+strconv.Itoa(start)))
	}
	if limit <= start {
		return nil, errorc.With(
			ErrInvalidArgument,
			errorc.String("limit", "must be greater than start "+strconv.Itoa(start)+", got "+strconv.Itoa(limit)),
		)
	}

	return &Worker{start: start, current: start, limit: limit}, nil
}

// Advance moves the cursor forward by steps.
// On error the cursor is left unchanged.
func (w *Worker) Advance(steps int) error {
	if steps <= 0 {
		return errorc.With(ErrInvalidArgument, errorc.String("steps", "must be more than zero, got "+strconv.Itoa(steps)))
	}
	if steps > w.Remaining() {
		return errorc.With(
			ErrRangeExceeded,
			errorc.String("steps", strconv.Itoa(steps)+" exceeds remaining "+strconv.Itoa(w.Remaining())),
		)
	}

	w.current += steps
	if w.instr != nil {
		w.instr.steps.Add(int64(steps))
	}
	return nil
}

// Dispose gives up the worker. Its unfinished range becomes available for reuse
// and its completed steps still count towards the pool.
func (w *Worker) Dispose() { w.SetActive(false) }

// SetActive sets the active flag.
func (w *Worker) SetActive(active bool) {
	if w.active == active {
		return
	}
	w.active = active

	if w.instr == nil {
		return
	}
	if active {
		w.instr.active.Add(1)
	} else {
		w.instr.active.Add(-1)
	}
}

func (w *Worker) Active() bool { return w.active }

func (w *Worker) Start() int { return w.start }

func (w *Worker) Current() int { return w.current }

func (w *Worker) Limit() int { return w.limit }

// Remaining returns the number of unprocessed indices in the worker's range.
func (w *Worker) Remaining() int { return w.limit - w.current }

// Completed returns the number of indices the worker has processed.
func (w *Worker) Completed() int { return w.current - w.start }

func (w *Worker) HasCompleted() bool { return w.Remaining() == 0 }

// CompletionPercentage returns the processed share of the range, rounded to an integer percent.
// It returns 0 for a worker without a valid range.
func (w *Worker) CompletionPercentage() int {
	return percentage(w.Completed(), w.limit-w.start)
}

// Snapshot returns the worker's state.
func (w *Worker) Snapshot() WorkerSnapshot {
	return WorkerSnapshot{
		Active:  w.active,
		Start:   w.start,
		Limit:   w.limit,
		Current: w.current,
	}
}

// RestoreWorker rebuilds a standalone worker from a snapshot.
func RestoreWorker(s WorkerSnapshot) (*Worker, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	return &Worker{
		active:  s.Active,
		start:   s.Start,
		current: s.Current,
		limit:   s.Limit,
	}, nil
}

func percentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
