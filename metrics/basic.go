package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider keeps instrument values in memory.
// Instruments are created on first use and shared by name afterwards.
type BasicProvider struct {
	mu         sync.Mutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicUpDownCounter
	histograms map[string]*BasicHistogram
	configs    map[string]InstrumentConfig
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicUpDownCounter),
		histograms: make(map[string]*BasicHistogram),
		configs:    make(map[string]InstrumentConfig),
	}
}

func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.CounterValue(name, opts...)
}

func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.UpDownCounterValue(name, opts...)
}

func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return p.HistogramValue(name, opts...)
}

// CounterValue is Counter returning the concrete type, for reading snapshots.
func (p *BasicProvider) CounterValue(name string, opts ...InstrumentOption) *BasicCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lookup(p, p.counters, name, opts, func() *BasicCounter { return &BasicCounter{} })
}

// UpDownCounterValue is UpDownCounter returning the concrete type.
func (p *BasicProvider) UpDownCounterValue(name string, opts ...InstrumentOption) *BasicUpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lookup(p, p.updowns, name, opts, func() *BasicUpDownCounter { return &BasicUpDownCounter{} })
}

// HistogramValue is Histogram returning the concrete type.
func (p *BasicProvider) HistogramValue(name string, opts ...InstrumentOption) *BasicHistogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lookup(p, p.histograms, name, opts, func() *BasicHistogram { return &BasicHistogram{} })
}

// Config returns the metadata an instrument was first registered with.
func (p *BasicProvider) Config(name string) (InstrumentConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[name]
	return cfg, ok
}

// lookup must be called with p.mu held.
func lookup[T any](p *BasicProvider, m map[string]*T, name string, opts []InstrumentOption, create func() *T) *T {
	if v, ok := m[name]; ok {
		return v
	}
	v := create()
	m[name] = v
	p.configs[name] = buildConfig(opts)
	return v
}

// BasicCounter is a concurrency-safe monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Snapshot returns the current value.
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a concurrency-safe up/down counter.
type BasicUpDownCounter struct {
	val atomic.Int64
}

func (u *BasicUpDownCounter) Add(n int64) { u.val.Add(n) }

// Snapshot returns the current value.
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram aggregates count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu   sync.Mutex
	snap HistSnapshot
}

// HistSnapshot is a copy of a BasicHistogram's aggregates.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

// Mean returns Sum/Count, or 0 when nothing was recorded.
func (s HistSnapshot) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.snap.Count == 0 || v < h.snap.Min {
		h.snap.Min = v
	}
	if h.snap.Count == 0 || v > h.snap.Max {
		h.snap.Max = v
	}
	h.snap.Count++
	h.snap.Sum += v
}

// Snapshot returns the aggregates recorded so far.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}
