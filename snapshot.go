package rangepool

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ygrebnov/errorc"
)

// PoolSnapshot is the serializable state of a Pool. Workers are in creation order.
type PoolSnapshot struct {
	Length  int              `json:"length" yaml:"length"`
	Workers []WorkerSnapshot `json:"workers" yaml:"workers"`
}

// WorkerSnapshot is the serializable state of a Worker.
type WorkerSnapshot struct {
	Active  bool `json:"active" yaml:"active"`
	Start   int  `json:"start" yaml:"start"`
	Limit   int  `json:"limit" yaml:"limit"`
	Current int  `json:"current" yaml:"current"`
}

func (s WorkerSnapshot) validate() error {
	switch {
	case s.Start < 0:
		return errorc.With(ErrInvalidSnapshot, errorc.String("start", fmt.Sprintf("must be at least zero, got %d", s.Start)))
	case s.Limit <= s.Start:
		return errorc.With(ErrInvalidSnapshot, errorc.String("limit", fmt.Sprintf("%d is not greater than start %d", s.Limit, s.Start)))
	case s.Current < s.Start || s.Current > s.Limit:
		return errorc.With(
			ErrInvalidSnapshot,
			errorc.String("current", fmt.Sprintf("%d is outside [%d, %d]", s.Current, s.Start, s.Limit)),
		)
	}
	return nil
}

// Validate checks that every worker is well formed and that the workers,
// ordered by start, tile [0, Length) with no gaps and no overlaps.
func (s PoolSnapshot) Validate() error {
	if s.Length < 0 {
		return errorc.With(ErrInvalidSnapshot, errorc.String("length", fmt.Sprintf("must be at least zero, got %d", s.Length)))
	}

	for i, w := range s.Workers {
		if err := w.validate(); err != nil {
			return fmt.Errorf("worker %d: %w", i, err)
		}
	}

	if len(s.Workers) == 0 {
		return nil
	}

	sorted := slices.Clone(s.Workers)
	slices.SortFunc(sorted, func(a, b WorkerSnapshot) int { return cmp.Compare(a.Start, b.Start) })

	next := 0
	for _, w := range sorted {
		if w.Start != next {
			return errorc.With(
				ErrInvalidSnapshot,
				errorc.String("workers", fmt.Sprintf("range [%d, %d) does not continue at %d", w.Start, w.Limit, next)),
			)
		}
		next = w.Limit
	}
	if next != s.Length {
		return errorc.With(
			ErrInvalidSnapshot,
			errorc.String("workers", fmt.Sprintf("ranges end at %d, want length %d", next, s.Length)),
		)
	}
	return nil
}

// Serialize returns a snapshot of the pool.
func (p *Pool) Serialize() PoolSnapshot {
	s := PoolSnapshot{Length: p.length, Workers: make([]WorkerSnapshot, len(p.workers))}
	for i, w := range p.workers {
		s.Workers[i] = w.Snapshot()
	}
	return s
}

// Restore rebuilds a pool from a snapshot produced by Serialize.
// The restored pool has the same length and the same workers in the same order.
func Restore(s PoolSnapshot, opts ...Option) (*Pool, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	p, err := New(s.Length, opts...)
	if err != nil {
		return nil, err
	}

	p.workers = make([]*Worker, len(s.Workers))
	for i, ws := range s.Workers {
		w := &Worker{start: ws.Start, current: ws.Current, limit: ws.Limit, instr: p.instr}
		w.SetActive(ws.Active)
		p.workers[i] = w
	}
	return p, nil
}
