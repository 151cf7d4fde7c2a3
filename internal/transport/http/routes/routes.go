package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/infra/config"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/transport/http/handlers"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/transport/http/middleware"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Approvals   *usecase.ApprovalService
	Metrics     *middleware.HTTPMetrics
	Database    DatabaseChecker
	Cache       CacheChecker
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

	authMiddleware := middleware.RequireAuth(deps.Config.JWT)
	adminMiddleware := middleware.RequireRole(deps.Config.JWT.AdminRole)

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
	{
		cloudLibHandler := handlers.NewCloudLibraryHandler(deps.Approvals)

		cloudLib := api.Group("/cloudlibrary")
		cloudLib.Use(authMiddleware)

		cloudLib.POST("/pendingapprovals", adminMiddleware, cloudLibHandler.PendingApprovals)

		approveHandlers := append(buildApproveMiddlewares(deps), adminMiddleware, cloudLibHandler.Approve)
		cloudLib.POST("/approve", approveHandlers...)

		cancelHandlers := append(buildCancelMiddlewares(deps), cloudLibHandler.PublishCancel)
		cloudLib.POST("/publishcancel", cancelHandlers...)
	}

	return r
}

func buildApproveMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return buildRateLimitMiddlewares(deps, "cloudlibrary_approve_ip", deps.Config.RateLimit.ApproveMaxAttempts)
}

func buildCancelMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return buildRateLimitMiddlewares(deps, "cloudlibrary_cancel_ip", deps.Config.RateLimit.CancelMaxAttempts)
}

func buildRateLimitMiddlewares(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
