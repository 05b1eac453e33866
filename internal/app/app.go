package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"receipts-backend/internal/config"
	"receipts-backend/internal/db"
	"receipts-backend/internal/handlers"
	"receipts-backend/internal/services"
	"receipts-backend/internal/storage"
	"receipts-backend/internal/store"
	"receipts-backend/internal/store/memory"
	"receipts-backend/internal/store/postgres"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/exp/slog"
)

const shutdownTimeout = 10 * time.Second

// Container holds the wired components shared by the server and the CLI commands.
type Container struct {
	Config   *config.Config
	Store    store.Store
	Files    storage.Storage
	Users    *services.UserService
	Sessions *services.SessionService
	Photos   *services.PhotoService

	closeStore func()
}

// Build opens the store and file storage and wires the services on top.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	files, err := storage.New(ctx, cfg)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	hasher := services.NewBcryptHasher(cfg.Auth.BcryptCost)
	return &Container{
		Config:     cfg,
		Store:      st,
		Files:      files,
		Users:      services.NewUserService(st, st, files, hasher),
		Sessions:   services.NewSessionService(st, st, hasher, cfg.Session.TTL),
		Photos:     services.NewPhotoService(st, st, files),
		closeStore: closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("Using in-memory store, data will not survive a restart")
		return memory.New(), func() {}, nil
	case config.DriverPostgres:
		pool, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// Close releases the database pool.
func (c *Container) Close() {
	if c.closeStore != nil {
		c.closeStore()
	}
}

// NewServer builds the fiber app with middleware and every route mounted.
func NewServer(c *Container) *fiber.App {
	cfg := c.Config
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.HTTP.CORSOrigins, ","),
		AllowCredentials: true,
	}))

	app.Get("/health", func(ctx *fiber.Ctx) error {
		if err := c.Store.Ping(ctx.Context()); err != nil {
			slog.Error("Health check failed", "error", err)
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	handlers.Register(app.Group(cfg.HTTP.APIPrefix), handlers.Deps{
		Users:    c.Users,
		Sessions: c.Sessions,
		Photos:   c.Photos,
		Cookie:   handlers.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		Limiter:  handlers.NewLoginLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
	})

	return app
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	c, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	app := NewServer(c)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.HTTP.Port)
	}()
	slog.Info("Server started", "port", cfg.HTTP.Port, "prefix", cfg.HTTP.APIPrefix)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Gracefully shutting down...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("Listener returned after shutdown", "error", err)
	}
	slog.Info("Server shutdown complete")
	return nil
}

// ReconcileReport summarizes one maintenance run.
type ReconcileReport struct {
	Files           services.ReconcileResult
	ExpiredSessions int64
}

// Reconcile removes orphaned photo files and expired sessions.
func (c *Container) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	files, err := c.Photos.Reconcile(ctx, c.Config.Storage.ReconcileGrace)
	if err != nil {
		return report, err
	}
	report.Files = files

	purged, err := c.Sessions.PurgeExpired(ctx)
	if err != nil {
		return report, err
	}
	report.ExpiredSessions = purged
	return report, nil
}
