// Package app wires configuration, storage, services and the HTTP server
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/lumastore/auth/internal/auth/http"
	"github.com/lumastore/auth/internal/auth/mail"
	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/internal/auth/store/drivers/redisotp"
	"github.com/lumastore/auth/internal/auth/store/drivers/sqlite"
	"github.com/lumastore/auth/pkg/cryptox"
	"github.com/lumastore/auth/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application holds the wired service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codes store.VerificationCodes
	rdb   *redis.Client // nil unless RedisAddr is set

	credentialService   *service.CredentialService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Everything that can fail at startup fails
// here, before the server starts listening.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initStorage(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops the workers and closes storage.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initStorage() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied")

	// Verification codes live in Redis when configured; everything else
	// stays relational.
	app.codes = db.VerificationCodes()
	if app.cfg.RedisAddr != "" {
		app.rdb = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		if err := app.rdb.Ping(context.Background()).Err(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.codes = redisotp.New(app.rdb)
		app.logger.Info("verification codes stored in redis", "addr", app.cfg.RedisAddr)
	}

	return nil
}

func (app *Application) initServices() error {
	if err := service.EnsureDefaultRoles(context.Background(), app.db.Roles()); err != nil {
		return fmt.Errorf("failed to ensure default roles: %w", err)
	}

	var mailer mail.Mailer
	if app.cfg.SMTPHost != "" {
		mailer = &mail.SMTPMailer{
			Host:          app.cfg.SMTPHost,
			Port:          app.cfg.SMTPPort,
			User:          app.cfg.SMTPUser,
			Pass:          app.cfg.SMTPPass,
			From:          app.cfg.SMTPFrom,
			OTPTTLMinutes: int(app.cfg.OTPTTL.Minutes()),
		}
	} else {
		app.logger.Warn("SMTP_HOST not set, codes are written to the log")
		mailer = &mail.LogMailer{Logger: app.logger}
	}

	app.tokenService = service.NewTokenService(
		[]byte(app.cfg.AccessTokenSecret),
		[]byte(app.cfg.RefreshTokenSecret),
		app.cfg.AppName,
		app.db.RefreshTokens(),
		app.cfg.AccessTokenTTL,
		app.cfg.RefreshTokenTTL,
	)

	app.credentialService = &service.CredentialService{
		Store: app.db,
		OTP: &service.OTPService{
			Codes:        app.codes,
			Mailer:       mailer,
			Logger:       app.logger,
			TTL:          app.cfg.OTPTTL,
			SendInterval: app.cfg.OTPSendInterval,
		},
		TwoFactor: &service.TwoFactorService{Issuer: app.cfg.AppName},
		Tokens:    app.tokenService,
		Roles:     service.NewRoleCache(app.db.Roles()),
		Logger:    app.logger,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db, app.codes, app.logger, app.cfg.HousekeepingInterval)

	return nil
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.db, app.credentialService, app.tokenService, BuildVersion, app.logger)
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", app.cfg.Port),
		Handler:      app.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
