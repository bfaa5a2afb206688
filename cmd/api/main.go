package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/clipshare/internal/api"
	"github.com/hszk-dev/clipshare/internal/api/handler"
	"github.com/hszk-dev/clipshare/internal/auth"
	"github.com/hszk-dev/clipshare/internal/config"
	"github.com/hszk-dev/clipshare/internal/infrastructure/cache"
	"github.com/hszk-dev/clipshare/internal/infrastructure/postgres"
	"github.com/hszk-dev/clipshare/internal/infrastructure/queue"
	"github.com/hszk-dev/clipshare/internal/infrastructure/ratelimit"
	"github.com/hszk-dev/clipshare/internal/infrastructure/storage"
	"github.com/hszk-dev/clipshare/internal/invalidation"
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

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.DSN(), cfg.Database.MigrationsDir); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	// Initialize infrastructure clients
	pgCfg := postgres.DefaultClientConfig(cfg.Database.DSN(), "clipshare-api")
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
	logger.Info("connected to PostgreSQL")

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
	logger.Info("connected to MinIO")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// Response cache and invalidation
	store := cache.NewStore(cache.StoreConfig{
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	store.Start()
	defer store.Stop()

	bus := cache.NewRedisBus(redisClient, cfg.Redis.InvalidationChannel, logger)
	dispatcher, err := invalidation.NewDispatcher(invalidation.DefaultTable(), store, bus, logger)
	if err != nil {
		return err
	}

	go bus.Listen(ctx, func(e invalidation.Event) {
		if _, err := dispatcher.Apply(e); err != nil {
			logger.Error("failed to apply remote invalidation",
				slog.String("kind", string(e.Kind)),
				slog.String("error", err.Error()),
			)
		}
	})

	// Repositories and services
	userRepo := postgres.NewUserRepository(pgClient.Pool())
	videoRepo := postgres.NewVideoRepository(pgClient.Pool())
	likeRepo := postgres.NewLikeRepository(pgClient.Pool())
	commentRepo := postgres.NewCommentRepository(pgClient.Pool())
	followRepo := postgres.NewFollowRepository(pgClient.Pool())

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	videoCfg := usecase.DefaultVideoServiceConfig()
	videoCfg.UploadURLExpiry = cfg.Server.UploadURLExpiry

	services := api.Services{
		Auth:    usecase.NewAuthService(userRepo, hasher, tokens, dispatcher),
		Video:   usecase.NewVideoService(videoRepo, storageClient, queueClient, dispatcher, videoCfg),
		Like:    usecase.NewLikeService(likeRepo, videoRepo, dispatcher),
		Comment: usecase.NewCommentService(commentRepo, videoRepo, dispatcher),
		Follow:  usecase.NewFollowService(followRepo, userRepo, dispatcher),
		Search:  usecase.NewSearchService(userRepo, videoRepo),
	}

	var limiters api.Limiters
	if cfg.RateLimit.Enabled {
		limiters = api.Limiters{
			API:    ratelimit.NewRedisLimiter(redisClient, ratelimit.Rule{Name: "api", Max: cfg.RateLimit.APIMax, Window: cfg.RateLimit.APIWindow}),
			Auth:   ratelimit.NewRedisLimiter(redisClient, ratelimit.Rule{Name: "auth", Max: cfg.RateLimit.AuthMax, Window: cfg.RateLimit.AuthWindow}),
			Upload: ratelimit.NewRedisLimiter(redisClient, ratelimit.Rule{Name: "upload", Max: cfg.RateLimit.UploadMax, Window: cfg.RateLimit.UploadWindow}),
		}
	}

	r := api.NewRouter(api.Deps{
		Services:   services,
		Store:      store,
		Tokens:     tokens,
		Limiters:   limiters,
		Admin:      cacheAdmin{dispatcher: dispatcher, store: store},
		AdminToken: cfg.Auth.AdminToken,
		Ready: map[string]handler.Pinger{
			"postgres": pgClient,
			"storage":  storageClient,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
		Cache:      cfg.Cache,
		Pagination: cfg.Pagination,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// cacheAdmin flushes through the dispatcher so the flush reaches the bus, and
// counts entries on the store.
type cacheAdmin struct {
	dispatcher *invalidation.Dispatcher
	store      *cache.Store
}

func (a cacheAdmin) Flush(ctx context.Context) { a.dispatcher.Flush(ctx) }
func (a cacheAdmin) Len() int                  { return a.store.Len() }
