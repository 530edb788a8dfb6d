package mocks

import (
	"context"
	"errors"

	"github.com/godilite/sla-monitor/internal/metrics"
)

// MockDashboardComputer is a function-based mock of the DashboardComputer interface.
type MockDashboardComputer struct {
	ComputeMetricsFunc func(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error)
}

func (m *MockDashboardComputer) ComputeMetrics(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
	if m.ComputeMetricsFunc != nil {
		return m.ComputeMetricsFunc(ctx, targets)
	}
	return metrics.DashboardMetrics{}, errors.New("ComputeMetricsFunc not implemented")
}

// MockSnapshotSource is a function-based mock of the SnapshotSource interface.
type MockSnapshotSource struct {
	SnapshotFunc   func() (metrics.DashboardMetrics, error)
	RefreshNowFunc func(ctx context.Context) (metrics.DashboardMetrics, error)
}

func (m *MockSnapshotSource) Snapshot() (metrics.DashboardMetrics, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc()
	}
	return metrics.DashboardMetrics{}, errors.New("SnapshotFunc not implemented")
}

func (m *MockSnapshotSource) RefreshNow(ctx context.Context) (metrics.DashboardMetrics, error) {
	if m.RefreshNowFunc != nil {
		return m.RefreshNowFunc(ctx)
	}
	return metrics.DashboardMetrics{}, errors.New("RefreshNowFunc not implemented")
}
