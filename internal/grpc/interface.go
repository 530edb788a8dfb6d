package grpc

import (
	"context"
	"time"

	"github.com/godilite/sla-monitor/internal/metrics"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// DashboardComputer runs a full fetch and fold for a set of target groups.
type DashboardComputer interface {
	ComputeMetrics(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error)
}

// SnapshotSource exposes the periodically refreshed snapshot.
type SnapshotSource interface {
	Snapshot() (metrics.DashboardMetrics, error)
	RefreshNow(ctx context.Context) (metrics.DashboardMetrics, error)
}
