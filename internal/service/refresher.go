package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/sla-monitor/internal/metrics"
)

const DefaultRefreshInterval = 60 * time.Second

// MetricsComputer produces a full snapshot for the given target groups.
type MetricsComputer interface {
	ComputeMetrics(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error)
}

type RefresherOption func(*Refresher)

// WithTargets restricts every refresh to the given groups.
func WithTargets(ids []int64) RefresherOption {
	return func(r *Refresher) { r.targets = ids }
}

func WithInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithUpdateHook is called after every snapshot replacement.
func WithUpdateHook(fn func(metrics.DashboardMetrics)) RefresherOption {
	return func(r *Refresher) { r.onUpdate = fn }
}

// Refresher keeps the current snapshot up to date. Periodic cycles never
// overlap each other; an explicit RefreshNow may overlap a periodic cycle,
// and whichever finishes last replaces the snapshot.
type Refresher struct {
	computer MetricsComputer
	targets  []int64
	interval time.Duration
	onUpdate func(metrics.DashboardMetrics)
	logger   *zap.Logger

	loading  atomic.Bool
	snapshot atomic.Pointer[metrics.DashboardMetrics]
	inflight sync.WaitGroup
}

func NewRefresher(computer MetricsComputer, logger *zap.Logger, opts ...RefresherOption) *Refresher {
	if computer == nil {
		panic("nil MetricsComputer provided to NewRefresher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{
		computer: computer,
		interval: DefaultRefreshInterval,
		logger:   logger.Named("refresher"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run triggers a cycle immediately and then every interval until ctx is done.
// It waits for an in-flight periodic cycle before returning.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			r.inflight.Wait()
			r.logger.Info("refresher stopped")
			return nil
		case <-ticker.C:
			r.trigger(ctx)
		}
	}
}

// trigger starts a periodic cycle unless one is already loading.
func (r *Refresher) trigger(ctx context.Context) bool {
	if !r.loading.CompareAndSwap(false, true) {
		r.logger.Debug("refresh skipped, previous cycle still loading")
		return false
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer r.loading.Store(false)
		_, _ = r.cycle(ctx)
	}()
	return true
}

// RefreshNow runs a cycle on behalf of a user. It ignores the loading guard
// and is not cancelled when ctx is.
func (r *Refresher) RefreshNow(ctx context.Context) (metrics.DashboardMetrics, error) {
	return r.cycle(context.WithoutCancel(ctx))
}

func (r *Refresher) cycle(ctx context.Context) (metrics.DashboardMetrics, error) {
	m, err := r.computer.ComputeMetrics(ctx, r.targets)
	if err != nil {
		r.logger.Error("refresh failed", zap.Error(err))
		return metrics.DashboardMetrics{}, err
	}

	r.snapshot.Store(&m)
	if r.onUpdate != nil {
		r.onUpdate(m)
	}
	return m, nil
}

// Snapshot returns the latest completed snapshot. Callers must treat it as
// read-only.
func (r *Refresher) Snapshot() (metrics.DashboardMetrics, error) {
	p := r.snapshot.Load()
	if p == nil {
		return metrics.DashboardMetrics{}, ErrNotReady
	}
	return *p, nil
}
