package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/sla-monitor/internal/helpdesk"
	"github.com/godilite/sla-monitor/internal/metrics"
)

var (
	ErrTransportUnavailable = errors.New("helpdesk transport unavailable")
	ErrNotReady             = errors.New("dashboard snapshot not ready")
)

// DashboardConfig tunes pagination and breach detection.
type DashboardConfig struct {
	PageSize      int
	MaxPages      int
	GroupPageSize int
	Thresholds    metrics.Thresholds
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		PageSize:      DefaultPageSize,
		MaxPages:      DefaultMaxPages,
		GroupPageSize: defaultGroupPageSize,
		Thresholds:    metrics.DefaultThresholds(),
	}
}

// DashboardService builds DashboardMetrics snapshots from a helpdesk source.
type DashboardService struct {
	source     HelpdeskSource
	agents     AgentStatusReader
	registry   *GroupRegistry
	fetcher    *TicketFetcher
	aggregator *metrics.Aggregator
	now        func() time.Time
	logger     *zap.Logger
}

// NewDashboardService creates a DashboardService. A nil source is allowed;
// ComputeMetrics then reports ErrTransportUnavailable. agents may be nil.
func NewDashboardService(source HelpdeskSource, agents AgentStatusReader, cfg DashboardConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	logger = logger.Named("dashboard")

	s := &DashboardService{
		source:     source,
		agents:     agents,
		aggregator: metrics.NewAggregator(cfg.Thresholds),
		now:        time.Now,
		logger:     logger,
	}
	if source != nil {
		s.registry = NewGroupRegistry(source, cfg.GroupPageSize, logger)
		s.fetcher = NewTicketFetcher(source, cfg.PageSize, cfg.MaxPages, logger)
	}
	return s
}

// ComputeMetrics runs one full refresh: seed groups, fetch the working set,
// fold it. Apart from ErrTransportUnavailable it always succeeds; the result
// may be capped or partial.
func (s *DashboardService) ComputeMetrics(ctx context.Context, targets []int64) (metrics.DashboardMetrics, error) {
	if s.source == nil {
		return metrics.DashboardMetrics{}, ErrTransportUnavailable
	}

	start := time.Now()

	seed := s.registry.Seed(ctx, targets)
	fetched := s.fetcher.Fetch(ctx, helpdesk.WorkingSetQuery(targets))

	out := s.aggregator.Aggregate(seed, fetched.Tickets, s.now())
	out.IsCapped = fetched.IsCapped
	out.IsPartial = fetched.IsPartial
	out.Agents = s.agentSummary(ctx)

	s.logger.Info("computed dashboard metrics",
		zap.Int("groups", len(out.Groups)),
		zap.Int("tickets", len(fetched.Tickets)),
		zap.Int("pages", fetched.Pages),
		zap.Bool("capped", out.IsCapped),
		zap.Bool("partial", out.IsPartial),
		zap.Int("wait_breaches", out.BreachedWaitCount),
		zap.Int("handle_breaches", out.BreachedHandleCount),
		zap.Duration("duration", time.Since(start)))

	return out, nil
}

func (s *DashboardService) agentSummary(ctx context.Context) metrics.AgentSummary {
	if s.agents == nil {
		return metrics.AgentSummary{}
	}
	sum, err := s.agents.AgentStatus(ctx)
	if err != nil {
		s.logger.Debug("agent status unavailable", zap.Error(err))
		return metrics.AgentSummary{}
	}
	return sum
}
