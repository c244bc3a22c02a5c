package rangepool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/rangepool/metrics"
)

// buildPool produces a pool with a mix of active, disposed and finished workers.
func buildPool(t *testing.T) *Pool {
	t.Helper()

	p, err := New(50)
	require.NoError(t, err)

	a, err := p.CreateWorker()
	require.NoError(t, err)
	require.NoError(t, a.Advance(5))
	b, err := p.CreateWorker()
	require.NoError(t, err)
	require.NoError(t, b.Advance(5))
	c, err := p.CreateWorker()
	require.NoError(t, err)
	require.NoError(t, c.Advance(c.Remaining()))
	b.Dispose()

	return p
}

func TestPool_SerializeRestore(t *testing.T) {
	p := buildPool(t)

	s := p.Serialize()
	require.Equal(t, PoolSnapshot{
		Length: 50,
		Workers: []WorkerSnapshot{
			{Active: true, Start: 0, Limit: 17, Current: 5},
			{Active: false, Start: 28, Limit: 50, Current: 33},
			{Active: true, Start: 17, Limit: 28, Current: 28},
		},
	}, s)

	clone, err := Restore(s)
	require.NoError(t, err)
	require.Equal(t, p.Length(), clone.Length())
	require.Equal(t, p.CompletedSteps(), clone.CompletedSteps())
	require.Equal(t, p.HasCompleted(), clone.HasCompleted())
	require.Equal(t, s, clone.Serialize())
	requireTiled(t, clone)

	// The clone behaves like the source pool: the disposed worker is reused first.
	w, err := clone.CreateWorker()
	require.NoError(t, err)
	require.Same(t, clone.Workers()[1], w)
}

func TestPool_SerializeIsDetached(t *testing.T) {
	p := buildPool(t)

	s := p.Serialize()
	s.Workers[0].Current = 0

	require.Equal(t, 5, p.Workers()[0].Current())
}

func TestRestore_EmptyPool(t *testing.T) {
	p, err := New(10)
	require.NoError(t, err)

	clone, err := Restore(p.Serialize())
	require.NoError(t, err)
	require.Equal(t, 10, clone.Length())
	require.Empty(t, clone.Workers())
}

func TestRestore_Metrics(t *testing.T) {
	provider := metrics.NewBasicProvider()

	clone, err := Restore(buildPool(t).Serialize(), WithMetrics(provider))
	require.NoError(t, err)
	require.Equal(t, int64(2), provider.UpDownCounterValue(MetricWorkersActive).Snapshot())

	_, err = clone.CreateWorker()
	require.NoError(t, err)
	require.Equal(t, int64(3), provider.UpDownCounterValue(MetricWorkersActive).Snapshot())
	require.Equal(t, int64(1), provider.CounterValue(MetricWorkersReused).Snapshot())
}

func TestPoolSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       PoolSnapshot
		wantErr bool
	}{
		{name: "empty", s: PoolSnapshot{Length: 0}},
		{name: "no workers yet", s: PoolSnapshot{Length: 7}},
		{
			name: "unordered but tiled",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 6, Limit: 10, Current: 6},
				{Start: 0, Limit: 6, Current: 3},
			}},
		},
		{name: "negative length", s: PoolSnapshot{Length: -1}, wantErr: true},
		{
			name: "gap",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 0, Limit: 4, Current: 0},
				{Start: 5, Limit: 10, Current: 5},
			}},
			wantErr: true,
		},
		{
			name: "overlap",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 0, Limit: 6, Current: 0},
				{Start: 5, Limit: 10, Current: 5},
			}},
			wantErr: true,
		},
		{
			name: "short of length",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 0, Limit: 9, Current: 0},
			}},
			wantErr: true,
		},
		{
			name: "past length",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 0, Limit: 11, Current: 0},
			}},
			wantErr: true,
		},
		{
			name: "not starting at zero",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 1, Limit: 10, Current: 1},
			}},
			wantErr: true,
		},
		{
			name: "cursor out of range",
			s: PoolSnapshot{Length: 10, Workers: []WorkerSnapshot{
				{Start: 0, Limit: 10, Current: 11},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if !tt.wantErr {
				require.NoError(t, err)

				p, err := Restore(tt.s)
				require.NoError(t, err)
				require.Len(t, p.Workers(), len(tt.s.Workers))
				return
			}

			require.ErrorIs(t, err, ErrInvalidSnapshot)
			_, err = Restore(tt.s)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}
