package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/core/port"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/database"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/kafka"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/mail"
	redisinfra "github.com/bastianbaeza/JackdawSoft/internal/infra/redis"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	pgrepo "github.com/bastianbaeza/JackdawSoft/internal/repository/postgres"
	redisrepo "github.com/bastianbaeza/JackdawSoft/internal/repository/redis"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/handlers"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/middleware"
	"github.com/bastianbaeza/JackdawSoft/internal/transport/http/routes"
	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

// App owns every long-lived resource and the HTTP server.
type App struct {
	cfg      *config.AppConfig
	server   *http.Server
	db       *pgxpool.Pool
	redis    *goredis.Client
	producer *kafka.Producer
}

// New connects the backing stores, assembles the services and builds the
// router. Redis and Kafka are optional: without them the service runs with
// rate limiting disabled and a no-op event publisher.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	db, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}

	var redisClient *goredis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.L().Warn("redis unavailable, rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var (
		producer  *kafka.Producer
		publisher port.EventPublisher = kafka.NewStubPublisher()
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			logger.L().Warn("kafka unavailable, events disabled", zap.Error(err))
		} else {
			publisher = kafka.NewEventPublisher(producer)
		}
	}

	userRepo := pgrepo.NewUserRepo(db)
	auditRepo := pgrepo.NewAuditRepo(db)

	hasher := security.NewHasher(cfg.Argon2)
	tokens := security.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL, cfg.App.Name)
	passwords := security.PolicyFromConfig(cfg.Security.Password)
	mailer := mail.NewSMTPMailer(cfg.SMTP, cfg.Security.ActivationTTL, cfg.Security.ResetTTL)

	auditSvc := usecase.NewAuditService(auditRepo)
	authSvc := usecase.NewAuthService(userRepo, hasher, tokens, auditSvc, publisher, cfg.Security)
	inviteSvc := usecase.NewInvitationService(userRepo, hasher, passwords, mailer, auditSvc, publisher, cfg.Security)
	resetSvc := usecase.NewPasswordResetService(userRepo, hasher, passwords, mailer, auditSvc, publisher, cfg.Security)
	userSvc := usecase.NewUserService(userRepo, hasher, passwords, auditSvc, publisher)

	if err := usecase.EnsureDefaultSuperadmin(ctx, userRepo, hasher, auditSvc, cfg.Bootstrap); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewHTTPMetrics(registry, "jackdaws")

	var limitStore middleware.RateLimitStore
	if redisClient != nil {
		limitStore = redisrepo.NewRateLimitStore(redisClient, cfg.App.Name)
	}

	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	routes.Register(router, routes.Deps{
		Auth: handlers.NewAuthHandler(
			authSvc, inviteSvc,
			cfg.Session.CookieName, cfg.Session.TTL,
			cfg.App.Env != "development", cfg.App.Name,
		),
		Password: handlers.NewPasswordHandler(resetSvc),
		Users:    handlers.NewUserHandler(userSvc, auditSvc),
		Health:   handlers.NewHealthHandler(db, redisClient),

		Tokens:      tokens,
		AuthService: authSvc,
		CookieName:  cfg.Session.CookieName,

		AllowedOrigins: cfg.App.AllowedOrigins,
		Metrics:        metrics,
		Registry:       registry,

		RateLimitStore: limitStore,
		GeneralLimit: middleware.RateLimitRule{
			Name:        "general",
			Window:      cfg.RateLimit.GeneralWindow,
			MaxRequests: cfg.RateLimit.GeneralMaxRequests,
		},
		AuthLimit: middleware.RateLimitRule{
			Name:        "auth",
			Window:      cfg.RateLimit.AuthWindow,
			MaxRequests: cfg.RateLimit.AuthMaxRequests,
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		db:       db,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.L().Warn("http shutdown", zap.Error(err))
	}

	a.close()
	return nil
}

func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.L().Warn("kafka close", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.L().Warn("redis close", zap.Error(err))
		}
	}
	a.db.Close()
}
