package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/infra/config"
	"github.com/luiso2/sleep-admin-service/internal/infra/database"
	kafkainfra "github.com/luiso2/sleep-admin-service/internal/infra/kafka"
	"github.com/luiso2/sleep-admin-service/internal/infra/logger"
	redisinfra "github.com/luiso2/sleep-admin-service/internal/infra/redis"
	postgresrepo "github.com/luiso2/sleep-admin-service/internal/repository/postgres"
	redisrepo "github.com/luiso2/sleep-admin-service/internal/repository/redis"
	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/transport/http/routes"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// Application owns the process-level resources and the HTTP engine.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	recorder *usecase.ActivityRecorder
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	decisionTTL := cfg.Redis.DecisionTTL
	if decisionTTL <= 0 {
		decisionTTL = time.Minute
	}
	decisionCache := redisrepo.NewDecisionCache(redisClient.Client(), cfg.Redis.DecisionPrefix, decisionTTL)

	intakeLimiter := redisrepo.NewIntakeLimiter(redisClient.Client(), cfg.Redis.IntakeKeyPrefix)

	resolver := usecase.NewPermissionResolver(repos.Overrides, repos.Rules, domain.DefaultFallbackPolicy(), log).
		WithDecisionCache(decisionCache).
		WithRegistry(domain.Registry())

	menuGate := usecase.NewMenuGate(resolver)

	recorder := usecase.NewActivityRecorder(repos.ActivityLogs, eventPublisher, log, usecase.RecorderOptions{
		QueueSize: cfg.Audit.QueueSize,
	})

	activityService := usecase.NewActivityQueryService(repos.ActivityLogs)

	webhookTracker := usecase.NewWebhookTracker(repos.Webhooks, repos.WebhookConfigs, eventPublisher, log, cfg.Webhooks.DefaultMaxAttempts)

	roleAdmin := usecase.NewRoleAdminService(repos.Roles, repos.Rules, repos.Overrides, resolver, recorder, log).
		WithDecisionCache(decisionCache)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		log.Warn("failed to init http metrics", zap.Error(err))
	}

	engine := routes.Register(routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		IntakeLimiter: intakeLimiter,
		Metrics:       metrics,
		Database:      pool,
		Cache:         redisClient,
		Services: routes.ServiceSet{
			Resolver: resolver,
			Menu:     menuGate,
			Activity: activityService,
			Recorder: recorder,
			Webhooks: webhookTracker,
			Roles:    roleAdmin,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		recorder: recorder,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully and drains the audit queue.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting admin API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		a.drainAudit()
		return nil
	case err := <-serverErrCh:
		a.drainAudit()
		return err
	}
}

func (a *Application) drainAudit() {
	if a.recorder == nil {
		return
	}

	drainTimeout := a.cfg.Audit.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = 5 * time.Second
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := a.recorder.Close(drainCtx); err != nil {
		a.logger.Warn("audit queue not fully drained", zap.Error(err))
	}
}
