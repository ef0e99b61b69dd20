package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rating_engine/internal/compute"
	"rating_engine/internal/config"
	"rating_engine/internal/domain/service/lifecycle"
	"rating_engine/internal/infrastructure/persistence"
	"rating_engine/internal/server"
	"rating_engine/internal/transport/tasks"
	"rating_engine/internal/worker"
	"rating_engine/pkg/application/connectors"
	"rating_engine/pkg/application/modules"
	"rating_engine/pkg/contextx"
	"rating_engine/pkg/logx"
	"rating_engine/pkg/middlewarex"
)

const driftEventBuffer = 16

// Run wires the whole engine together and blocks until the context is
// cancelled or a module fails.
func Run(ctx context.Context) error { //nolint:funlen
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	log := contextx.LoggerFromContextOrDefault(ctx)

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.PingContext: %w", err)
	}

	rd := &connectors.Redis{
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		Address:            cfg.Redis.Address,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	redisClient := rd.Client(ctx)
	defer rd.Close(ctx)

	programRepo := persistence.NewProgramRepository(db)
	versionRepo := persistence.NewVersionRepository(db)
	stepRepo := persistence.NewStepRepository(db)
	testCaseRepo := persistence.NewTestCaseRepository(db)

	publishedCache := cache.New(cfg.Engine.PublishedCacheTTL, cfg.Engine.PublishedCacheCleanup)
	manager := lifecycle.NewManager(versionRepo, stepRepo, testCaseRepo, publishedCache)

	dispatcher := compute.NewDispatcher(prometheus.DefaultRegisterer)

	asynqClient := asynq.NewClientFromRedisClient(redisClient)
	enqueuer := tasks.NewEnqueuer(asynqClient, cfg.Asynq.Queue)
	taskHandler := tasks.NewHandler(dispatcher)

	srv := server.NewServer(
		server.NewProgramServer(programRepo, testCaseRepo, manager),
		server.NewCalcServer(dispatcher, enqueuer),
	)

	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.HTTP.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.HTTP.LogFieldMaxLen),
	)
	srv.RegisterRoutes(router)

	httpServer := &http.Server{ //nolint:exhaustruct
		Addr:    cfg.HTTP.ListenAddress,
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap.NewProduction: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	driftEvents := make(chan worker.DriftEvent, driftEventBuffer)
	driftMonitor := worker.NewDriftMonitor(versionRepo, manager, driftEvents).
		WithInterval(cfg.Engine.DriftScanInterval)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("dispatcher.Run: %w", err)
		}

		return nil
	})

	if err := driftMonitor.Start(ctx); err != nil {
		return fmt.Errorf("driftMonitor.Start: %w", err)
	}

	g.Go(func() error {
		for event := range driftEvents {
			log.Warn("published version drifted from its frozen hash",
				slog.String("program_id", event.ProgramID),
				slog.String("version_id", event.VersionID),
				slog.Int("version_number", event.VersionNumber),
				slog.String("expected_hash", event.ExpectedHash),
			)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		driftMonitor.Stop()
		close(driftEvents)

		if err := asynqClient.Close(); err != nil {
			log.Error("asynqClient.Close", logx.Error(err))
		}

		return nil
	})

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, httpServer)

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Probe.ListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{ListenAddress: cfg.Metrics.ListenAddress}.Run(ctx, g)

	modules.AsynqServer{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
		Concurrency:   cfg.Asynq.Concurrency,
		Logger:        zapLogger.Sugar(),
	}.Run(ctx, g,
		modules.AsynqQueues{cfg.Asynq.Queue: 1},
		modules.AsynqHandler{Pattern: tasks.TypeBatchRating, Handle: taskHandler.HandleBatchRating},
	)

	return g.Wait() //nolint:wrapcheck
}
