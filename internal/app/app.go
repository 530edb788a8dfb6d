package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "github.com/godilite/sla-monitor/api/v1"
	"github.com/godilite/sla-monitor/internal/config"
	handler "github.com/godilite/sla-monitor/internal/grpc"
	"github.com/godilite/sla-monitor/internal/helpdesk"
	"github.com/godilite/sla-monitor/internal/metrics"
	"github.com/godilite/sla-monitor/internal/repository"
	"github.com/godilite/sla-monitor/internal/service"
	"github.com/godilite/sla-monitor/pkg/cache"
	dbbuilder "github.com/godilite/sla-monitor/pkg/database"
	grpcsrv "github.com/godilite/sla-monitor/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	refresher  *service.Refresher
	grpcServer *grpcsrv.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	source, agents, err := a.helpdeskSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var cacher handler.Cacher
	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB),
		cache.WithPrefix("sla-monitor:"),
	)
	if err != nil {
		logger.Warn("cache unavailable, serving without it", zap.Error(err))
	} else {
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
		a.cache = cacheClient
		cacher = cacheClient
	}

	thresholds := metrics.Thresholds{
		WaitTimeBreach:    cfg.WaitTimeBreach,
		HandleTimeBreach:  cfg.HandleTimeBreach,
		MessagingChannels: cfg.MessagingChannels,
	}
	if len(thresholds.MessagingChannels) == 0 {
		thresholds.MessagingChannels = metrics.DefaultMessagingChannels
	}
	dashboard := service.NewDashboardService(source, agents, service.DashboardConfig{
		PageSize:      cfg.PageSize,
		MaxPages:      cfg.MaxPages,
		GroupPageSize: cfg.GroupPageSize,
		Thresholds:    thresholds,
	}, logger)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(cfg.GRPCLoggingEnabled),
	)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}
	a.grpcServer = grpcServer

	a.refresher = service.NewRefresher(dashboard, logger,
		service.WithTargets(cfg.TargetGroupIDs),
		service.WithInterval(cfg.RefreshInterval),
		service.WithUpdateHook(func(m metrics.DashboardMetrics) {
			grpcServer.SetServiceHealth(pb.Dashboard_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
		}),
	)

	grpcHandlers := handler.NewGRPCHandlers(dashboard, a.refresher, cacher, logger, cfg.CacheTTL)
	grpcServer.RegisterService(&pb.Dashboard_ServiceDesc, grpcHandlers)

	return a, nil
}

// helpdeskSource picks the ticket source. A missing API base URL is not
// fatal: the service runs and reports the transport as unavailable.
func (a *App) helpdeskSource(ctx context.Context, cfg *config.Config) (service.HelpdeskSource, service.AgentStatusReader, error) {
	switch cfg.TicketSource {
	case config.SourceSQLite:
		dbPool, err := dbbuilder.New(ctx,
			dbbuilder.WithDriver(cfg.DBDriver),
			dbbuilder.WithDataSource(cfg.DBPath),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("database init failed: %w", err)
		}
		a.dbPool = dbPool
		a.logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

		repo := repository.NewTicketRepository(dbPool, repository.WithLogger(a.logger))
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = dbPool.Close()
			return nil, nil, fmt.Errorf("database schema: %w", err)
		}
		return repo, nil, nil

	default:
		client, err := helpdesk.New(
			helpdesk.WithBaseURL(cfg.HelpdeskBaseURL),
			helpdesk.WithCredentials(cfg.HelpdeskEmail, cfg.HelpdeskAPIToken),
			helpdesk.WithTimeout(cfg.HelpdeskTimeout),
			helpdesk.WithRateLimit(cfg.HelpdeskRPS, 1),
			helpdesk.WithLogger(a.logger),
		)
		if errors.Is(err, helpdesk.ErrMissingBaseURL) {
			a.logger.Warn("HELPDESK_BASE_URL not set, dashboard will report transport unavailable")
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("helpdesk client init failed: %w", err)
		}
		a.logger.Info("Helpdesk client initialized", zap.String("base_url", cfg.HelpdeskBaseURL))
		return client, client, nil
	}
}

// Run serves gRPC and refreshes the snapshot until ctx is cancelled or the
// server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.grpcServer.Serve)
	g.Go(func() error {
		return a.refresher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("application shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown completed but deadline exceeded", zap.Error(err))
		}
		return nil
	})

	err := g.Wait()
	a.closeResources()
	if err != nil {
		return err
	}

	a.logger.Info("graceful shutdown completed successfully")
	return nil
}

func (a *App) closeResources() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
	}
}
