package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/config"
	"github.com/localsolutions/board-api/internal/infra/database"
	kafkainfra "github.com/localsolutions/board-api/internal/infra/kafka"
	"github.com/localsolutions/board-api/internal/infra/logger"
	redisinfra "github.com/localsolutions/board-api/internal/infra/redis"
	"github.com/localsolutions/board-api/internal/infra/security"
	"github.com/localsolutions/board-api/internal/infra/telemetry"
	postgresrepo "github.com/localsolutions/board-api/internal/repository/postgres"
	redisrepo "github.com/localsolutions/board-api/internal/repository/redis"
	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/transport/http/routes"
	"github.com/localsolutions/board-api/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	instanceID string
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	tracer     *telemetry.TracerProvider

	memoryStore *security.MemoryRevocationStore
	snapshots   port.RevocationSnapshotStore
	sweeper     *security.RevocationSweeper

	producer      *kafkainfra.Producer
	consumerGroup sarama.ConsumerGroup
	consumer      *kafkainfra.RevocationConsumer
	topics        []string
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{
		cfg:        cfg,
		logger:     log,
		instanceID: resolveInstanceID(cfg.App.InstanceID),
	}
	log = log.With(zap.String("instance_id", a.instanceID))
	a.logger = log

	if err := a.build(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *Application) build(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	if cfg.Telemetry.TracingEnabled {
		tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, a.instanceID, log)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		a.tracer = tp
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	a.pool = pool
	repos := postgresrepo.NewRepositories(pool)

	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
	}

	codec, err := security.NewTokenCodec(security.TokenCodecOptions{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.AccessTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return fmt.Errorf("configure argon2: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var revocations port.RevocationStore
	metricsOpts := telemetry.SessionMetricsOptions{Registerer: registry}
	switch cfg.Revocation.Backend {
	case config.RevocationBackendRedis:
		revocations = redisrepo.NewRevocationRepository(a.redis.Client(), cfg.Revocation.KeyPrefix)
	default:
		store := security.NewMemoryRevocationStore()
		a.memoryStore = store
		revocations = store
		metricsOpts.RevocationEntries = func() float64 { return float64(store.Len()) }
		if a.redis != nil {
			a.snapshots = redisrepo.NewRevocationSnapshotRepository(a.redis.Client(), cfg.Revocation.SnapshotKey, cfg.Revocation.SnapshotTTL)
		}
	}

	sessionMetrics, err := telemetry.NewSessionMetrics(metricsOpts)
	if err != nil {
		return fmt.Errorf("init session metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	a.sweeper = security.NewRevocationSweeper(revocations, security.SweeperOptions{
		Interval: cfg.Revocation.SweepInterval,
		Logger:   log,
		OnSweep:  sessionMetrics.ObserveSweep,
	})

	publisher, err := a.buildFanOut(sessionMetrics)
	if err != nil {
		return err
	}

	sessions := usecase.NewSessionService(codec, revocations, repos.Users, usecase.SessionOptions{
		InstanceID: a.instanceID,
		Publisher:  publisher,
		Metrics:    sessionMetrics,
		Logger:     log,
	})

	var throttle *middleware.LoginThrottle
	if a.redis != nil && cfg.RateLimit.LoginMaxAttempts > 0 {
		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		store := redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "board:rate-limit",
			TTL:       window * 2,
		})
		throttle = middleware.NewLoginThrottle(store, middleware.LoginThrottleOptions{
			Limit:  cfg.RateLimit.LoginMaxAttempts,
			Window: window,
			Logger: log,
		})
	}

	deps := routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		Classifier:     middleware.NewAccessClassifier(cfg.Access.PublicPaths),
		HTTPMetrics:    httpMetrics,
		AuthDecisions:  sessionMetrics,
		LoginThrottle:  throttle,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Tracing:        a.tracer != nil,
		Database:       pool,
		Services: routes.ServiceSet{
			Auth:     usecase.NewAuthService(repos.Users, hasher, sessions, log),
			Sessions: sessions,
			Posts:    usecase.NewPostService(repos.Posts),
			Comments: usecase.NewCommentService(repos.Posts, repos.Comments),
			Admin:    usecase.NewAdminService(repos.Users, repos.Posts, repos.Comments, log),
			Users:    usecase.NewUserService(repos.Users),
			Likes:    usecase.NewLikeService(repos.Posts, repos.Likes),
		},
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.engine = routes.Register(deps)
	return nil
}

// buildFanOut wires the revocation publisher and, for the in-memory backend,
// the consumer that applies peer revocations.
func (a *Application) buildFanOut(lag kafkainfra.LagObserver) (port.RevocationPublisher, error) {
	cfg, log := a.cfg, a.logger
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub revocation publisher")
		return kafkainfra.NewStubPublisher(log), nil
	}

	clientID := fmt.Sprintf("%s-%s", cfg.App.Name, a.instanceID)
	producer, err := kafkainfra.NewProducer(cfg.Kafka, clientID, log)
	if err != nil {
		return nil, fmt.Errorf("init kafka producer: %w", err)
	}
	a.producer = producer
	publisher := kafkainfra.NewRevocationPublisher(producer, cfg.Revocation.Topic, cfg.App, log)

	// A shared Redis backend is already consistent across instances.
	if a.memoryStore == nil {
		return publisher, nil
	}

	groupID := kafkainfra.InstanceGroupID(cfg.Revocation.ConsumerGroup, a.instanceID)
	group, err := kafkainfra.NewConsumerGroup(cfg.Kafka, groupID, clientID, log)
	if err != nil {
		return nil, fmt.Errorf("init kafka consumer group: %w", err)
	}
	a.consumerGroup = group
	a.consumer = kafkainfra.NewRevocationConsumer(a.memoryStore, lag, log, kafkainfra.RevocationConsumerOptions{
		Origin:      a.instanceID,
		MaxEventLag: cfg.Revocation.MaxEventLag,
	})
	a.topics = []string{publisher.Topic()}
	return publisher, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.close()

	a.restoreSnapshot(ctx)

	runCtx, cancel := context.WithCancel(ctx)

	a.sweeper.Start(runCtx)
	defer a.sweeper.Stop()

	var wg sync.WaitGroup
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Run(runCtx, a.consumerGroup, a.topics); err != nil {
				a.logger.Error("revocation consumer stopped", zap.Error(err))
			}
		}()
	}
	defer wg.Wait()
	defer cancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting board API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("revocation_backend", a.cfg.Revocation.Backend),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		a.saveSnapshot(shutdownCtx)
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// restoreSnapshot loads the previous process's revocations before the listener opens.
func (a *Application) restoreSnapshot(ctx context.Context) {
	if a.memoryStore == nil || a.snapshots == nil {
		return
	}
	snapshot, err := a.snapshots.LoadLatestSnapshot(ctx)
	if err != nil {
		a.logger.Warn("load revocation snapshot failed", zap.Error(err))
		return
	}
	if snapshot == nil {
		return
	}
	if err := a.memoryStore.RestoreSnapshot(ctx, *snapshot); err != nil {
		a.logger.Warn("restore revocation snapshot failed", zap.Error(err))
		return
	}
	a.logger.Info("revocation snapshot restored",
		zap.Int("entries", a.memoryStore.Len()),
		zap.Time("generated_at", snapshot.GeneratedAt),
	)
}

func (a *Application) saveSnapshot(ctx context.Context) {
	if a.memoryStore == nil || a.snapshots == nil {
		return
	}
	snapshot, err := a.memoryStore.Snapshot(ctx)
	if err != nil {
		a.logger.Warn("build revocation snapshot failed", zap.Error(err))
		return
	}
	if err := a.snapshots.SaveSnapshot(ctx, *snapshot); err != nil {
		a.logger.Warn("save revocation snapshot failed", zap.Error(err))
		return
	}
	a.logger.Info("revocation snapshot saved", zap.Int("entries", a.memoryStore.Len()))
}

func (a *Application) close() {
	if a.consumerGroup != nil {
		if err := a.consumerGroup.Close(); err != nil {
			a.logger.Warn("close kafka consumer group", zap.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("shutdown tracer", zap.Error(err))
		}
	}
}

func resolveInstanceID(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}
