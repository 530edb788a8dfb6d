package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/sla-monitor/internal/metrics"
	"github.com/godilite/sla-monitor/internal/service/mocks"
)

func TestNewRefresher(t *testing.T) {
	assert.Panics(t, func() { NewRefresher(nil, zap.NewNop()) })

	r := NewRefresher(&mocks.MockMetricsComputer{}, nil, WithInterval(0), WithTargets([]int64{1}))
	assert.Equal(t, DefaultRefreshInterval, r.interval)
	assert.Equal(t, []int64{1}, r.targets)
}

func TestRefresher_SnapshotNotReady(t *testing.T) {
	r := NewRefresher(&mocks.MockMetricsComputer{}, zap.NewNop())

	_, err := r.Snapshot()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRefresher_RefreshNow(t *testing.T) {
	var updates int
	computer := &mocks.MockMetricsComputer{
		ComputeMetricsFunc: func(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
			assert.Equal(t, []int64{4}, targets)
			assert.NoError(t, ctx.Err())
			return metrics.DashboardMetrics{TotalNew: 3}, nil
		},
	}
	r := NewRefresher(computer, zap.NewNop(),
		WithTargets([]int64{4}),
		WithUpdateHook(func(metrics.DashboardMetrics) { updates++ }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := r.RefreshNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalNew)
	assert.Equal(t, 1, updates)

	snap, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, m, snap)
}

func TestRefresher_FailedCycleKeepsPreviousSnapshot(t *testing.T) {
	var fail atomic.Bool
	computer := &mocks.MockMetricsComputer{
		ComputeMetricsFunc: func(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
			if fail.Load() {
				return metrics.DashboardMetrics{}, ErrTransportUnavailable
			}
			return metrics.DashboardMetrics{TotalOpen: 8}, nil
		},
	}
	r := NewRefresher(computer, zap.NewNop())

	_, err := r.RefreshNow(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	_, err = r.RefreshNow(context.Background())
	assert.ErrorIs(t, err, ErrTransportUnavailable)

	snap, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 8, snap.TotalOpen)
}

func TestRefresher_PeriodicGuardAndLastWriterWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	var calls atomic.Int32

	computer := &mocks.MockMetricsComputer{
		ComputeMetricsFunc: func(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
			n := calls.Add(1)
			started <- struct{}{}
			if n == 1 {
				<-release
			}
			return metrics.DashboardMetrics{TotalNew: int(n)}, nil
		},
	}
	r := NewRefresher(computer, zap.NewNop())
	ctx := context.Background()

	require.True(t, r.trigger(ctx))
	<-started

	assert.False(t, r.trigger(ctx), "a second periodic cycle must not start while one is loading")

	// An explicit refresh is not blocked by the guard.
	m, err := r.RefreshNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalNew)

	close(release)
	r.inflight.Wait()

	snap, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalNew, "the periodic cycle finished last and wins")
	assert.Equal(t, int32(2), calls.Load())

	assert.True(t, r.trigger(ctx), "guard is released after the cycle")
	<-started
	r.inflight.Wait()
}

func TestRefresher_Run(t *testing.T) {
	var calls atomic.Int32
	computer := &mocks.MockMetricsComputer{
		ComputeMetricsFunc: func(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
			calls.Add(1)
			return metrics.DashboardMetrics{}, nil
		},
	}
	r := NewRefresher(computer, zap.NewNop(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err := r.Snapshot()
	assert.False(t, errors.Is(err, ErrNotReady))
}
