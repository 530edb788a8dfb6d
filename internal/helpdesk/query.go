package helpdesk

import (
	"strconv"
	"strings"

	"github.com/godilite/sla-monitor/internal/metrics"
)

// Query filters the tickets returned by a ticket source.
type Query struct {
	Statuses []metrics.Status
	GroupIDs []int64
}

// WorkingSetQuery selects the tickets that feed the dashboard.
func WorkingSetQuery(groupIDs []int64) Query {
	return Query{
		Statuses: []metrics.Status{metrics.StatusNew, metrics.StatusOpen, metrics.StatusPending},
		GroupIDs: groupIDs,
	}
}

// String renders the query in helpdesk search syntax, e.g.
// "type:ticket status:new status:open group:5".
func (q Query) String() string {
	parts := []string{"type:ticket"}
	for _, s := range q.Statuses {
		parts = append(parts, "status:"+string(s))
	}
	for _, g := range q.GroupIDs {
		parts = append(parts, "group:"+strconv.FormatInt(g, 10))
	}
	return strings.Join(parts, " ")
}

// Page is one cursor page of search results. An empty NextCursor means the
// result set is exhausted.
type Page struct {
	Tickets    []metrics.Ticket
	NextCursor string
}
