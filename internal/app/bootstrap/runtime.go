package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skygrow/skygrow/internal/adapters/bluesky"
	cacheadapter "github.com/skygrow/skygrow/internal/adapters/cache"
	eventadapter "github.com/skygrow/skygrow/internal/adapters/events"
	httpadapter "github.com/skygrow/skygrow/internal/adapters/http"
	"github.com/skygrow/skygrow/internal/adapters/postgres"
	"github.com/skygrow/skygrow/internal/application"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	sweep      *eventadapter.SweepWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping skygrow", "http_port", cfg.HTTPPort, "sweep_interval", cfg.SweepInterval.String())

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	locks := cacheadapter.NewRedisCampaignLockStore(redisClient, cfg.LockTTL)

	directory := bluesky.NewPublicClient(cfg.AppViewURL, cfg.HTTPTimeout, logger)
	refresher, err := bluesky.NewTokenClient(cfg.OAuthClientID, cfg.OAuthClientSecretJWK, cfg.HTTPTimeout, logger)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token client: %w", err)
	}
	repoWriter := bluesky.NewPDSClient(cfg.HTTPTimeout, repos.Sessions, refresher, logger)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			MaxFollowsPerDay:      cfg.MaxFollowsPerDay,
			MaxUnfollowsPerDay:    cfg.MaxUnfollowsPerDay,
			UnfollowDelayDays:     cfg.UnfollowDelayDays,
			MaxFollowAttempts:     cfg.MaxFollowAttempts,
			MaxUnfollowAttempts:   cfg.MaxUnfollowAttempts,
			InterRequestDelay:     cfg.InterRequestDelay,
			FollowBackBatchSize:   cfg.FollowBackBatchSize,
			FollowerPagesPerCheck: cfg.FollowerPagesPerCheck,
			FollowersPageSize:     cfg.FollowersPageSize,
			FollowListScanLimit:   cfg.FollowListScanLimit,
			SetupPageCap:          cfg.SetupPageCap,
		},
		Campaigns:  repos.Campaigns,
		Candidates: repos.Candidates,
		Sessions:   repos.Sessions,
		Executions: repos.Executions,
		Directory:  directory,
		Repo:       repoWriter,
		Locks:      locks,
		Metrics:    application.NewMetrics(prometheus.DefaultRegisterer),
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweep := eventadapter.NewSweepWorker(logger, svc, cfg.SweepInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		sweep:      sweep,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("sweep worker started", "interval", r.cfg.SweepInterval.String())
	err := r.sweep.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
