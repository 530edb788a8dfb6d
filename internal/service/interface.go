package service

import (
	"context"

	"github.com/godilite/sla-monitor/internal/helpdesk"
	"github.com/godilite/sla-monitor/internal/metrics"
)

// TicketSearcher returns one cursor page of tickets per call.
type TicketSearcher interface {
	SearchTickets(ctx context.Context, q helpdesk.Query, pageSize int, cursor string) (helpdesk.Page, error)
}

// GroupLister returns the helpdesk's groups, at most pageSize of them.
type GroupLister interface {
	ListGroups(ctx context.Context, pageSize int) ([]metrics.Group, error)
}

// AgentStatusReader reports agent availability. It is optional.
type AgentStatusReader interface {
	AgentStatus(ctx context.Context) (metrics.AgentSummary, error)
}

// HelpdeskSource is implemented by both the HTTP client and the SQLite mirror.
type HelpdeskSource interface {
	TicketSearcher
	GroupLister
}
