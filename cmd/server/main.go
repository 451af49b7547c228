package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/unilak/community/internal/cache"
	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/database"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/handlers"
	"github.com/unilak/community/internal/logging"
	"github.com/unilak/community/internal/middleware"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/realtime"
	"github.com/unilak/community/internal/routes"
	"github.com/unilak/community/internal/services"
	"github.com/unilak/community/internal/store"
)

func main() {
	cfg := config.Load()

	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if n, err := database.PromoteModerators(database.DB, cfg.ModeratorEmails); err != nil {
		slog.Error("moderator bootstrap failed", "error", err)
	} else if n > 0 {
		slog.Info("moderators promoted", "count", n)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.LogLevel),
		pgLogHandler,
	)))

	retention := logging.NewRetention(database.DB, cfg.LogRetention, cfg.LogCleanupSpec)
	if err := retention.Start(); err != nil {
		slog.Error("log retention not scheduled", "spec", cfg.LogCleanupSpec, "error", err)
	}

	// Read-through cache; without Redis every read goes to the database.
	var readCache store.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			slog.Warn("cache disabled", "error", err)
		} else {
			defer rc.Close()
			readCache = rc
			slog.Info("cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.String())
		}
	}

	hub := realtime.NewHub()
	st := store.New(database.DB, hub, readCache).WithDependents(models.Dependents())

	// Services
	authService := services.NewAuthService(st, cfg)
	reviewService := services.NewReviewService(st, cfg.ReviewEditWindow)
	moderationService := services.NewModerationService(st)
	announcementService := services.NewAnnouncementService(st)
	threadService := services.NewThreadService(st)
	communityService := services.NewCommunityService(st)
	accountService := services.NewAccountService(st, announcementService)

	// Handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Account:      handlers.NewAccountHandler(accountService),
		Health:       handlers.NewHealthHandler(database.Ping, hub),
		Pages:        handlers.NewPagesHandler(),
		Review:       handlers.NewReviewHandler(reviewService),
		Moderation:   handlers.NewModerationHandler(moderationService),
		Announcement: handlers.NewAnnouncementHandler(announcementService),
		Thread:       handlers.NewThreadHandler(threadService),
		Community:    handlers.NewCommunityHandler(communityService),
		Realtime:     handlers.NewRealtimeHandler(st, threadService, cfg.RealtimeWriteLimit),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	retention.Stop()

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// customErrorHandler renders errors that escaped a handler, mostly fiber's
// own (unknown route, oversized body). 5xx details stay in the logs.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, message = fe.Code, fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		slog.Error("unhandled server error", "request_id", rid, "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}
