package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/infra/config"
	"github.com/localsolutions/board-api/internal/transport/http/handlers"
	"github.com/localsolutions/board-api/internal/transport/http/middleware"
	"github.com/localsolutions/board-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Sessions *usecase.SessionService
	Posts    *usecase.PostService
	Comments *usecase.CommentService
	Admin    *usecase.AdminService
	Users    *usecase.UserService
	Likes    *usecase.LikeService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config        *config.AppConfig
	Logger        *zap.Logger
	Services      ServiceSet
	Classifier    *middleware.AccessClassifier
	HTTPMetrics   *middleware.HTTPMetrics
	AuthDecisions middleware.DecisionObserver
	LoginThrottle *middleware.LoginThrottle
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Tracing        bool
	Database       DatabaseChecker
	Cache          CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware. The auth gate
// runs globally; health, metrics and the other allowlisted paths skip it.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	classifier := deps.Classifier
	if classifier == nil {
		classifier = middleware.NewAccessClassifier(deps.Config.Access.PublicPaths)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Tracing {
		r.Use(middleware.Tracing(middleware.TracingOptions{}))
	}
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())
	r.Use(middleware.CORS(deps.Config.Access.AllowedOrigins))
	if deps.Services.Sessions != nil {
		r.Use(middleware.Authenticate(classifier, deps.Services.Sessions, deps.AuthDecisions))
	}

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
	r.GET("/actuator/health", healthHandler.Status)
	r.GET("/error", healthHandler.Error)

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	api := r.Group("/api")

	if deps.Services.Auth != nil && deps.Services.Sessions != nil {
		var loginMiddlewares []gin.HandlerFunc
		if deps.LoginThrottle != nil {
			loginMiddlewares = append(loginMiddlewares, deps.LoginThrottle.Handler())
		}
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Sessions)
		authHandler.RegisterRoutes(api.Group("/auth"), loginMiddlewares...)
	}

	posts := api.Group("/posts")
	if deps.Services.Posts != nil && deps.Services.Comments != nil {
		handlers.NewPostHandler(deps.Services.Posts, deps.Services.Comments).RegisterRoutes(posts)
	}
	if deps.Services.Posts != nil && deps.Services.Likes != nil {
		handlers.NewLikeHandler(deps.Services.Likes, deps.Services.Posts).RegisterRoutes(posts)
	}

	if deps.Services.Users != nil && deps.Services.Admin != nil {
		handlers.NewUserHandler(deps.Services.Users, deps.Services.Admin).RegisterRoutes(api.Group("/users"))
	}

	if deps.Services.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.Use(middleware.RequireRole(domain.RoleAdmin))
		handlers.NewAdminHandler(deps.Services.Admin).RegisterRoutes(adminGroup)
	}

	return r
}
