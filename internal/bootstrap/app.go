package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/auth"
	"expiry-backend/internal/documents"
	"expiry-backend/internal/listing"
	"expiry-backend/internal/services/health"
	sharedauth "expiry-backend/internal/shared/auth"
	"expiry-backend/internal/shared/config"
	"expiry-backend/internal/shared/server"
	"expiry-backend/internal/shared/server/middleware"
	"expiry-backend/internal/shared/storage/cache"
	"expiry-backend/internal/shared/storage/db"
	"expiry-backend/internal/shared/telemetry"
	"expiry-backend/internal/users"
	"expiry-backend/internal/views"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Cache  *cache.Client
	Signer *sharedauth.Signer

	UsersRepo     users.Repo
	DocumentsRepo documents.Repo
	Codes         auth.CodeStore
	Revocations   auth.Revocations
	Sender        auth.Sender

	UsersService     *users.Service
	DocumentsService *documents.Service
	AuthService      *auth.Service

	now func() time.Time
}

// Option overrides a dependency before services are built.
type Option func(*App)

// WithSMSSender replaces the configured SMS sender.
func WithSMSSender(sender auth.Sender) Option {
	return func(a *App) { a.Sender = sender }
}

// WithClock replaces time.Now for every service.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// Build connects storage, builds services and wires the router.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(app)
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	redisClient, err := buildCache(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Cache = redisClient

	if app.Sender == nil {
		app.Sender = buildSender(ctx, cfg)
	}

	if err := buildServices(app); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildCache(ctx context.Context, cfg config.Config) (*cache.Client, error) {
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_session_stores", map[string]any{"reason": "redis connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if client == nil {
		telemetry.Warn("bootstrap.memory_session_stores", map[string]any{"reason": "REDIS_URL empty"})
	}
	return client, nil
}

func buildSender(ctx context.Context, cfg config.Config) auth.Sender {
	if cfg.SMSProvider != "sns" {
		return auth.LogSender{}
	}
	sender, err := auth.NewSNSSender(ctx, cfg.AWSRegion, cfg.SMSSenderID)
	if err != nil {
		// Surface the setup problem on the first code request instead of at boot.
		telemetry.Error("bootstrap.sms_sender_unavailable", map[string]any{"error": err.Error()})
		return unavailableSender{err: err}
	}
	return sender
}

type unavailableSender struct {
	err error
}

func (s unavailableSender) Send(ctx context.Context, to, message string) error {
	return s.err
}

func buildServices(app *App) error {
	cfg := app.Config
	loc := cfg.Location()

	signer, err := sharedauth.NewSigner(cfg.JWTSecret, cfg.SessionTTL, app.now)
	if err != nil {
		return fmt.Errorf("session signer: %w", err)
	}
	app.Signer = signer

	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
	}
	if app.Cache != nil {
		app.Codes = auth.NewRedisCodeStore(app.Cache.Client)
		app.Revocations = auth.NewRedisRevocations(app.Cache.Client)
	} else {
		app.Codes = auth.NewMemoryCodeStore(app.now)
		app.Revocations = auth.NewMemoryRevocations(app.now)
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.UsersService.Now = app.now
	app.DocumentsService = documents.NewService(app.DocumentsRepo)
	app.DocumentsService.Now = app.now
	app.AuthService = &auth.Service{
		Codes:       app.Codes,
		Sender:      app.Sender,
		Users:       app.UsersService,
		Signer:      signer,
		Revocations: app.Revocations,
		CodeTTL:     cfg.OTPTTL,
		MaxAttempts: cfg.OTPMaxAttempts,
		Now:         app.now,
	}

	limiter := middleware.NewRateLimiter(app.now)
	authHandler := auth.NewHandler(app.AuthService, signer)
	authHandler.Limiter = limiter
	authHandler.PerNumber = middleware.PerMinute(cfg.OTPPerMinute)

	docHandler := documents.NewHandler(app.DocumentsService, loc)
	docHandler.Now = app.now
	viewHandler := views.NewHandler(app.DocumentsService, listing.New(cfg.Locale, loc), loc)
	viewHandler.Now = app.now

	healthSvc := health.NewService(nil, nil)
	if app.DB != nil {
		healthSvc.DB = app.DB
	}
	if app.Cache != nil {
		healthSvc.Cache = app.Cache
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Verifier:    signer,
		Revocations: app.Revocations,
		RateLimiter: limiter,
		Health:      healthSvc,
		Auth:        authHandler,
		Profile:     users.NewHandler(app.UsersService),
		Documents:   docHandler,
		Views:       viewHandler,
	})
	if app.Router == nil {
		return errors.New("failed to initialize router")
	}
	return nil
}
