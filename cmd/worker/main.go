package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/clipshare/internal/api/handler"
	"github.com/hszk-dev/clipshare/internal/config"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/infrastructure/cache"
	"github.com/hszk-dev/clipshare/internal/infrastructure/postgres"
	"github.com/hszk-dev/clipshare/internal/infrastructure/queue"
	"github.com/hszk-dev/clipshare/internal/infrastructure/storage"
	"github.com/hszk-dev/clipshare/internal/transcoder"
	"github.com/hszk-dev/clipshare/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Worker.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	pgCfg := postgres.DefaultClientConfig(cfg.Database.DSN(), "clipshare-worker")
	pgCfg.MaxConns = cfg.Database.MaxConns
	pgCfg.MinConns = cfg.Database.MinConns
	pgClient, err := postgres.NewClient(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	if err := pgClient.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("database pool metrics disabled", slog.String("error", err.Error()))
	}

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()

	// The worker never caches responses itself; it only announces finished
	// videos to the API processes.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("infrastructure ready",
		slog.String("bucket", cfg.MinIO.Bucket),
		slog.String("invalidation_channel", cfg.Redis.InvalidationChannel),
	)

	processingSvc := usecase.NewProcessingService(
		postgres.NewVideoRepository(pgClient.Pool()),
		storageClient,
		transcoder.NewFFmpegProcessor(transcoder.DefaultFFmpegConfig()),
		cache.NewRedisBus(redisClient, cfg.Redis.InvalidationChannel, logger),
		usecase.ProcessingServiceConfig{
			TempDir:    cfg.Worker.TempDir,
			MaxRetries: cfg.Worker.MaxRetries,
			Variants:   transcoder.DefaultABRVariants(),
		},
	)

	var opsSrv *http.Server
	if cfg.Worker.MetricsPort > 0 {
		opsSrv = opsServer(cfg.Worker.MetricsPort, map[string]handler.Pinger{
			"postgres": pgClient,
			"storage":  storageClient,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		})
		go func() {
			if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var inFlight sync.WaitGroup
	errCh := make(chan error, 1)
	go func() {
		logger.Info("consuming process tasks", slog.Int("metrics_port", cfg.Worker.MetricsPort))
		err := queueClient.ConsumeProcessTasks(ctx, func(task repository.ProcessTask) error {
			inFlight.Add(1)
			defer inFlight.Done()
			return processTask(ctx, logger, processingSvc, task)
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	// Stop taking deliveries, then give running tasks until the deadline.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	if drained := wait(shutdownCtx, &inFlight); drained {
		logger.Info("all in-flight tasks completed")
	} else {
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	if opsSrv != nil {
		_ = opsSrv.Shutdown(shutdownCtx)
	}

	logger.Info("worker stopped")
	return nil
}

func processTask(ctx context.Context, logger *slog.Logger, svc usecase.ProcessingService, task repository.ProcessTask) error {
	log := logger.With(
		slog.String("video_id", task.VideoID.String()),
		slog.Int("retry_count", task.RetryCount),
	)
	start := time.Now()
	log.Info("processing task")

	if err := svc.ProcessTask(ctx, task); err != nil {
		log.Error("task processing failed", slog.String("error", err.Error()))
		return err
	}

	log.Info("task completed", slog.Duration("duration", time.Since(start)))
	return nil
}

// opsServer exposes liveness, readiness and Prometheus metrics. Queue and
// processing counters are only recorded in this process.
func opsServer(port int, deps map[string]handler.Pinger) *http.Server {
	r := chi.NewRouter()
	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(deps, 2*time.Second))
	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// wait reports whether wg finished before ctx expired.
func wait(ctx context.Context, wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
