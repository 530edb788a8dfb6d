package metrics

import "time"

// Status is the lifecycle state reported by the helpdesk for a ticket.
type Status string

const (
	StatusNew     Status = "new"
	StatusOpen    Status = "open"
	StatusPending Status = "pending"
	StatusHold    Status = "hold"
	StatusSolved  Status = "solved"
	StatusClosed  Status = "closed"
)

// NoGroup is the id used for tickets that are not routed to any group.
const NoGroup int64 = 0

// Ticket is a support ticket as fetched for a single refresh cycle.
type Ticket struct {
	ID         int64     `json:"id"`
	Status     Status    `json:"status"`
	AssigneeID *int64    `json:"assignee_id,omitempty"`
	GroupID    *int64    `json:"group_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Channel    string    `json:"channel"`
}

// GroupKey returns the group id the ticket is routed to, or NoGroup.
func (t Ticket) GroupKey() int64 {
	if t.GroupID == nil {
		return NoGroup
	}
	return *t.GroupID
}

func (t Ticket) Assigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != 0
}

// Group is a work queue tickets are routed into.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LatencyRecord attributes a longest-latency value to the ticket that first
// reached it. Seq is the ticket's position in the fold and breaks ties when
// records from different groups are merged.
type LatencyRecord struct {
	Minutes  int   `json:"minutes"`
	TicketID int64 `json:"ticket_id"`
	Seq      int   `json:"seq"`
}

// beats reports whether r should replace cur as the longest record.
func (r LatencyRecord) beats(cur LatencyRecord) bool {
	if r.Minutes != cur.Minutes {
		return r.Minutes > cur.Minutes
	}
	return r.TicketID != 0 && cur.TicketID != 0 && r.Seq < cur.Seq
}

// GroupMetric is the per-group accumulator produced by one aggregation pass.
type GroupMetric struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`

	LongestEmailWait int `json:"longest_email_wait"`
	LongestMsgWait   int `json:"longest_msg_wait"`
	LongestEmailAHT  int `json:"longest_email_aht"`
	LongestMsgAHT    int `json:"longest_msg_aht"`

	NewEmailCount  int `json:"new_email_count"`
	NewMsgCount    int `json:"new_msg_count"`
	OpenEmailCount int `json:"open_email_count"`
	OpenMsgCount   int `json:"open_msg_count"`
	PendingCount   int `json:"pending_count"`

	WaitBreachCount   int `json:"wait_breach_count"`
	HandleBreachCount int `json:"handle_breach_count"`
	TotalBreachCount  int `json:"total_breach_count"`

	LongestWait   LatencyRecord `json:"longest_wait"`
	LongestHandle LatencyRecord `json:"longest_handle"`
}

// MaxWait is the longest wait across both channel classes.
func (g GroupMetric) MaxWait() int {
	return max(g.LongestEmailWait, g.LongestMsgWait)
}

// MaxHandle is the longest handle time across both channel classes.
func (g GroupMetric) MaxHandle() int {
	return max(g.LongestEmailAHT, g.LongestMsgAHT)
}

// AgentSummary counts agents by availability. It stays zero when the
// agent-status source is unavailable.
type AgentSummary struct {
	Online  int `json:"online"`
	Away    int `json:"away"`
	Offline int `json:"offline"`
}

// DashboardMetrics is the point-in-time snapshot served to the UI.
type DashboardMetrics struct {
	LongestWait   LatencyRecord `json:"longest_wait"`
	LongestHandle LatencyRecord `json:"longest_handle"`

	TotalNew            int `json:"total_new"`
	TotalOpen           int `json:"total_open"`
	BreachedWaitCount   int `json:"breached_wait_count"`
	BreachedHandleCount int `json:"breached_handle_count"`

	Groups []GroupMetric `json:"groups"`

	IsCapped    bool         `json:"is_capped"`
	IsPartial   bool         `json:"is_partial"`
	Agents      AgentSummary `json:"agents"`
	GeneratedAt time.Time    `json:"generated_at"`
}
