package helpdesk

import (
	"time"

	"github.com/godilite/sla-monitor/internal/metrics"
)

type apiTicket struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	AssigneeID *int64    `json:"assignee_id"`
	GroupID    *int64    `json:"group_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Via        struct {
		Channel string `json:"channel"`
	} `json:"via"`
}

func (t apiTicket) toDomain() metrics.Ticket {
	return metrics.Ticket{
		ID:         t.ID,
		Status:     metrics.Status(t.Status),
		AssigneeID: t.AssigneeID,
		GroupID:    t.GroupID,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		Channel:    t.Via.Channel,
	}
}

type cursorMeta struct {
	HasMore     bool   `json:"has_more"`
	AfterCursor string `json:"after_cursor"`
}

type searchResponse struct {
	Results []apiTicket `json:"results"`
	Meta    cursorMeta  `json:"meta"`
}

type groupsResponse struct {
	Groups []metrics.Group `json:"groups"`
	Meta   cursorMeta      `json:"meta"`
}

type agentAvailability struct {
	AgentID int64  `json:"agent_id"`
	Status  string `json:"status"`
}

type availabilityResponse struct {
	AgentAvailabilities []agentAvailability `json:"agent_availabilities"`
}
