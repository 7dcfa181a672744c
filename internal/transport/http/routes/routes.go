package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/infra/config"
	"github.com/luiso2/sleep-admin-service/internal/transport/http/handlers"
	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Resolver *usecase.PermissionResolver
	Menu     *usecase.MenuGate
	Activity *usecase.ActivityQueryService
	Recorder *usecase.ActivityRecorder
	Webhooks *usecase.WebhookTracker
	Roles    *usecase.RoleAdminService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config        *config.AppConfig
	Logger        *zap.Logger
	Services      ServiceSet
	IntakeLimiter port.IntakeLimiter
	Metrics       *middleware.HTTPMetrics
	Database      DatabaseChecker
	Cache         CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	sessionMiddleware := middleware.RequireSession(deps.Config.Auth.JWTSecret)

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(sessionMiddleware)
	{
		permissionHandler := handlers.NewPermissionHandler(deps.Services.Resolver)
		permissionHandler.RegisterRoutes(api.Group("/permissions"))

		menuHandler := handlers.NewMenuHandler(deps.Services.Menu)
		menuHandler.RegisterRoutes(api.Group("/menu"))

		activityHandler := handlers.NewActivityHandler(deps.Services.Activity, deps.Services.Resolver)
		activityHandler.RegisterRoutes(api.Group("/activity"))

		webhookHandler := handlers.NewWebhookAdminHandler(deps.Services.Webhooks, deps.Services.Resolver, deps.Services.Recorder)
		webhookHandler.RegisterRoutes(api.Group("/webhooks"))

		roleHandler := handlers.NewRoleAdminHandler(deps.Services.Roles)
		roleHandler.RegisterRoutes(api.Group("/roles"))
		roleHandler.RegisterOverrideRoutes(api.Group("/overrides"))
	}

	hooks := r.Group("/hooks")
	if mws := buildIntakeMiddlewares(deps); len(mws) > 0 {
		hooks.Use(mws...)
	}
	intakeHandler := handlers.NewIntakeHandler(deps.Services.Webhooks, deps.Logger)
	intakeHandler.RegisterRoutes(hooks)

	return r
}

func buildIntakeMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.IntakeLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.Webhooks.IntakeRateLimit
	if limit <= 0 {
		return nil
	}

	window := deps.Config.Webhooks.IntakeRateWindow
	if window <= 0 {
		window = time.Minute
	}

	return []gin.HandlerFunc{middleware.IntakeRateLimit(deps.IntakeLimiter, limit, window, deps.Logger)}
}
