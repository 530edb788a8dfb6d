// Package v1 defines the slamonitor.v1.Dashboard gRPC service. Messages are
// plain structs carried by the JSON codec in pkg/grpc/codec.
package v1

import "time"

type DashboardRequest struct {
	SelectedGroupIds []int64 `json:"selected_group_ids,omitempty"`
	SortColumn       string  `json:"sort_column,omitempty"`
	SortDirection    string  `json:"sort_direction,omitempty"`
}

func (x *DashboardRequest) GetSelectedGroupIds() []int64 {
	if x != nil {
		return x.SelectedGroupIds
	}
	return nil
}

func (x *DashboardRequest) GetSortColumn() string {
	if x != nil {
		return x.SortColumn
	}
	return ""
}

func (x *DashboardRequest) GetSortDirection() string {
	if x != nil {
		return x.SortDirection
	}
	return ""
}

type ComputeMetricsRequest struct {
	TargetGroupIds []int64 `json:"target_group_ids,omitempty"`
}

func (x *ComputeMetricsRequest) GetTargetGroupIds() []int64 {
	if x != nil {
		return x.TargetGroupIds
	}
	return nil
}

type RefreshRequest struct{}

type LatencyRecord struct {
	Minutes  int32 `json:"minutes"`
	TicketId int64 `json:"ticket_id,omitempty"`
}

type GroupMetric struct {
	GroupId           int64  `json:"group_id"`
	GroupName         string `json:"group_name"`
	LongestEmailWait  int32  `json:"longest_email_wait"`
	LongestMsgWait    int32  `json:"longest_msg_wait"`
	LongestEmailAht   int32  `json:"longest_email_aht"`
	LongestMsgAht     int32  `json:"longest_msg_aht"`
	NewEmailCount     int32  `json:"new_email_count"`
	NewMsgCount       int32  `json:"new_msg_count"`
	OpenEmailCount    int32  `json:"open_email_count"`
	OpenMsgCount      int32  `json:"open_msg_count"`
	PendingCount      int32  `json:"pending_count"`
	WaitBreachCount   int32  `json:"wait_breach_count"`
	HandleBreachCount int32  `json:"handle_breach_count"`
	TotalBreachCount  int32  `json:"total_breach_count"`
}

type AgentSummary struct {
	Online  int32 `json:"online"`
	Away    int32 `json:"away"`
	Offline int32 `json:"offline"`
}

type DashboardResponse struct {
	LongestWait         *LatencyRecord `json:"longest_wait"`
	LongestHandle       *LatencyRecord `json:"longest_handle"`
	TotalNew            int32          `json:"total_new"`
	TotalOpen           int32          `json:"total_open"`
	BreachedWaitCount   int32          `json:"breached_wait_count"`
	BreachedHandleCount int32          `json:"breached_handle_count"`
	Groups              []*GroupMetric `json:"groups"`
	IsCapped            bool           `json:"is_capped"`
	IsPartial           bool           `json:"is_partial"`
	Agents              *AgentSummary  `json:"agents"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

func (x *DashboardResponse) GetGroups() []*GroupMetric {
	if x != nil {
		return x.Groups
	}
	return nil
}
