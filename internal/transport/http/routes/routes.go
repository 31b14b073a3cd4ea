package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/handlers"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/middleware"
	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

// Deps bundles everything the router needs.
type Deps struct {
	Auth     *handlers.AuthHandler
	Password *handlers.PasswordHandler
	Users    *handlers.UserHandler
	Health   *handlers.HealthHandler

	Tokens      *security.TokenManager
	AuthService *usecase.AuthService
	CookieName  string

	AllowedOrigins []string
	Metrics        *middleware.HTTPMetrics
	Registry       *prometheus.Registry

	RateLimitStore middleware.RateLimitStore
	GeneralLimit   middleware.RateLimitRule
	AuthLimit      middleware.RateLimitRule
}

// Register wires the middleware chain and the API route groups.
func Register(router *gin.Engine, deps Deps) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(deps.AllowedOrigins))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Handler())
	}

	router.GET("/healthz", deps.Health.Live)
	router.GET("/readyz", deps.Health.Ready)
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			deps.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	if deps.RateLimitStore != nil {
		api.Use(middleware.RateLimit(deps.RateLimitStore, deps.GeneralLimit))
	}

	authRequired := middleware.Authenticate(deps.Tokens, deps.AuthService, deps.CookieName)

	strict := func(c *gin.Context) { c.Next() }
	if deps.RateLimitStore != nil {
		strict = middleware.RateLimit(deps.RateLimitStore, deps.AuthLimit)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", strict, deps.Auth.Login)
		auth.POST("/activate/:token", strict, deps.Auth.Activate)
		auth.GET("/status", deps.Auth.Status)

		auth.POST("/invite", authRequired, deps.Auth.Invite)
		auth.POST("/logout", authRequired, deps.Auth.Logout)
		auth.GET("/me", authRequired, deps.Auth.Me)
	}

	password := api.Group("/password")
	{
		password.POST("/request-reset", strict, deps.Password.RequestReset)
		password.GET("/validate-token/:token", deps.Password.ValidateToken)
		password.POST("/reset/:token", strict, deps.Password.Reset)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("", deps.Users.List)
		users.GET("/audit-logs", deps.Users.AuditLogs)
		users.GET("/system/stats", deps.Users.Stats)
		users.GET("/:id", deps.Users.Get)
		users.PATCH("/:id", deps.Users.Update)
		users.DELETE("/:id", deps.Users.Deactivate)
		users.PATCH("/:id/reactivate", deps.Users.Reactivate)
	}
}
