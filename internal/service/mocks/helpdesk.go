package mocks

import (
	"context"
	"errors"

	"github.com/godilite/sla-monitor/internal/helpdesk"
	"github.com/godilite/sla-monitor/internal/metrics"
)

// MockHelpdeskSource is a func-field implementation of the ticket search and
// group listing collaborators.
type MockHelpdeskSource struct {
	SearchTicketsFunc func(ctx context.Context, q helpdesk.Query, pageSize int, cursor string) (helpdesk.Page, error)
	ListGroupsFunc    func(ctx context.Context, pageSize int) ([]metrics.Group, error)
}

// SearchTickets implements the TicketSearcher interface
func (m *MockHelpdeskSource) SearchTickets(ctx context.Context, q helpdesk.Query, pageSize int, cursor string) (helpdesk.Page, error) {
	if m.SearchTicketsFunc != nil {
		return m.SearchTicketsFunc(ctx, q, pageSize, cursor)
	}
	return helpdesk.Page{}, errors.New("SearchTicketsFunc not implemented")
}

// ListGroups implements the GroupLister interface
func (m *MockHelpdeskSource) ListGroups(ctx context.Context, pageSize int) ([]metrics.Group, error) {
	if m.ListGroupsFunc != nil {
		return m.ListGroupsFunc(ctx, pageSize)
	}
	return nil, errors.New("ListGroupsFunc not implemented")
}

// MockAgentStatusReader implements the AgentStatusReader interface
type MockAgentStatusReader struct {
	AgentStatusFunc func(ctx context.Context) (metrics.AgentSummary, error)
}

func (m *MockAgentStatusReader) AgentStatus(ctx context.Context) (metrics.AgentSummary, error) {
	if m.AgentStatusFunc != nil {
		return m.AgentStatusFunc(ctx)
	}
	return metrics.AgentSummary{}, errors.New("AgentStatusFunc not implemented")
}

// MockMetricsComputer implements the MetricsComputer interface
type MockMetricsComputer struct {
	ComputeMetricsFunc func(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error)
}

func (m *MockMetricsComputer) ComputeMetrics(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
	if m.ComputeMetricsFunc != nil {
		return m.ComputeMetricsFunc(ctx, targets)
	}
	return metrics.DashboardMetrics{}, errors.New("ComputeMetricsFunc not implemented")
}
