package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/godilite/sla-monitor/internal/metrics"
)

const defaultGroupPageSize = 100

// GroupRegistry loads the groups that seed each aggregation.
type GroupRegistry struct {
	lister   GroupLister
	pageSize int
	logger   *zap.Logger
}

func NewGroupRegistry(lister GroupLister, pageSize int, logger *zap.Logger) *GroupRegistry {
	if pageSize <= 0 {
		pageSize = defaultGroupPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupRegistry{
		lister:   lister,
		pageSize: pageSize,
		logger:   logger.Named("group-registry"),
	}
}

// Seed returns a zeroed accumulator per known group, restricted to targets
// when given. A listing failure yields an empty seed: every ticket then
// resolves to an unknown group and is dropped by the aggregation.
func (r *GroupRegistry) Seed(ctx context.Context, targets []int64) map[int64]metrics.GroupMetric {
	groups, err := r.lister.ListGroups(ctx, r.pageSize)
	if err != nil {
		r.logger.Warn("group listing failed, continuing with no groups", zap.Error(err))
		return map[int64]metrics.GroupMetric{}
	}

	seed := metrics.SeedGroups(groups, targets)
	r.logger.Debug("groups loaded",
		zap.Int("listed", len(groups)),
		zap.Int("seeded", len(seed)))
	return seed
}
