package grpc

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/godilite/sla-monitor/api/v1"
	"github.com/godilite/sla-monitor/internal/metrics"
	"github.com/godilite/sla-monitor/internal/service"
)

const (
	defaultCacheDuration = time.Minute
	defaultGRPCTimeout   = 45 * time.Second
)

type CacheKeyType string

const cacheKeyDashboard CacheKeyType = "grpc:dashboard_metrics"

type GRPCHandlers struct {
	pb.UnimplementedDashboardServer
	computer  DashboardComputer
	snapshots SnapshotSource
	sorter    *metrics.Sorter
	cache     Cacher
	logger    *zap.Logger
	sfGroup   singleflight.Group
	cacheTTL  time.Duration
}

// NewGRPCHandlers initializes the gRPC handlers. cache may be nil.
func NewGRPCHandlers(computer DashboardComputer, snapshots SnapshotSource, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if computer == nil {
		panic("nil DashboardComputer provided to NewGRPCHandlers")
	}
	if snapshots == nil {
		panic("nil SnapshotSource provided to NewGRPCHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		computer:  computer,
		snapshots: snapshots,
		sorter:    metrics.NewSorter(language.English),
		cache:     cache,
		logger:    logger.Named("grpc-handler"),
		cacheTTL:  ttl,
	}
}

// normalizeKey sorts and de-duplicates ids so equivalent target sets share a
// cache entry.
func normalizeKey(prefix CacheKeyType, ids []int64) string {
	if len(ids) == 0 {
		return string(prefix) + ":all"
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return string(prefix) + ":" + strings.Join(parts, ",")
}

func sortConfigFrom(req *pb.DashboardRequest) *metrics.SortConfig {
	col := req.GetSortColumn()
	if col == "" {
		return nil
	}
	return &metrics.SortConfig{
		Column:    col,
		Direction: metrics.ParseSortDirection(req.GetSortDirection()),
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrNotReady):
		s.logger.Info("snapshot not ready", zap.String("op", op))
		return status.Error(codes.Unavailable, "dashboard is still loading")
	case errors.Is(err, service.ErrTransportUnavailable):
		s.logger.Error("helpdesk transport unavailable", zap.String("op", op))
		return status.Error(codes.Unavailable, "helpdesk is not configured")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

// GetDashboard serves the latest snapshot narrowed to the selected groups and
// ordered for display.
func (s *GRPCHandlers) GetDashboard(ctx context.Context, req *pb.DashboardRequest) (*pb.DashboardResponse, error) {
	snapshot, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, s.handleError(ctx, "GetDashboard", err)
	}

	view := metrics.Project(snapshot, req.GetSelectedGroupIds())
	view.Groups = s.sorter.Sort(view.Groups, sortConfigFrom(req))

	return toProto(view), nil
}

// ComputeMetrics runs an on-demand fold for the requested targets, served
// through the read-through cache.
func (s *GRPCHandlers) ComputeMetrics(ctx context.Context, req *pb.ComputeMetricsRequest) (*pb.DashboardResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	targets := req.GetTargetGroupIds()
	for _, id := range targets {
		if id <= 0 {
			return nil, status.Errorf(codes.InvalidArgument, "invalid target group id %d", id)
		}
	}
	cacheKey := normalizeKey(cacheKeyDashboard, targets)

	m, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (metrics.DashboardMetrics, error) {
		return s.computer.ComputeMetrics(fetchCtx, targets)
	}, func(m metrics.DashboardMetrics) bool {
		return !m.IsPartial
	})
	if err != nil {
		return nil, s.handleError(ctx, "ComputeMetrics", err)
	}

	return toProto(m), nil
}

// Refresh recomputes the snapshot immediately and drops every cached
// ComputeMetrics result, whatever its targets.
func (s *GRPCHandlers) Refresh(ctx context.Context, _ *pb.RefreshRequest) (*pb.DashboardResponse, error) {
	m, err := s.snapshots.RefreshNow(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "Refresh", err)
	}

	if s.cache != nil {
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSetTimeout)
		defer cancel()
		if err := s.cache.DeletePrefix(delCtx, string(cacheKeyDashboard)+":"); err != nil {
			s.logger.Warn("cache invalidation failed", zap.Error(err))
		}
	}

	return toProto(m), nil
}

func toProto(m metrics.DashboardMetrics) *pb.DashboardResponse {
	groups := make([]*pb.GroupMetric, len(m.Groups))
	for i, g := range m.Groups {
		groups[i] = &pb.GroupMetric{
			GroupId:           g.GroupID,
			GroupName:         g.GroupName,
			LongestEmailWait:  int32(g.LongestEmailWait),
			LongestMsgWait:    int32(g.LongestMsgWait),
			LongestEmailAht:   int32(g.LongestEmailAHT),
			LongestMsgAht:     int32(g.LongestMsgAHT),
			NewEmailCount:     int32(g.NewEmailCount),
			NewMsgCount:       int32(g.NewMsgCount),
			OpenEmailCount:    int32(g.OpenEmailCount),
			OpenMsgCount:      int32(g.OpenMsgCount),
			PendingCount:      int32(g.PendingCount),
			WaitBreachCount:   int32(g.WaitBreachCount),
			HandleBreachCount: int32(g.HandleBreachCount),
			TotalBreachCount:  int32(g.TotalBreachCount),
		}
	}

	return &pb.DashboardResponse{
		LongestWait:         &pb.LatencyRecord{Minutes: int32(m.LongestWait.Minutes), TicketId: m.LongestWait.TicketID},
		LongestHandle:       &pb.LatencyRecord{Minutes: int32(m.LongestHandle.Minutes), TicketId: m.LongestHandle.TicketID},
		TotalNew:            int32(m.TotalNew),
		TotalOpen:           int32(m.TotalOpen),
		BreachedWaitCount:   int32(m.BreachedWaitCount),
		BreachedHandleCount: int32(m.BreachedHandleCount),
		Groups:              groups,
		IsCapped:            m.IsCapped,
		IsPartial:           m.IsPartial,
		Agents: &pb.AgentSummary{
			Online:  int32(m.Agents.Online),
			Away:    int32(m.Agents.Away),
			Offline: int32(m.Agents.Offline),
		},
		GeneratedAt: m.GeneratedAt,
	}
}
