// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/tomtom215/roster/internal/api"
	"github.com/tomtom215/roster/internal/auth"
	"github.com/tomtom215/roster/internal/config"
	"github.com/tomtom215/roster/internal/database"
	"github.com/tomtom215/roster/internal/entity"
	"github.com/tomtom215/roster/internal/imaging"
	"github.com/tomtom215/roster/internal/logging"
	"github.com/tomtom215/roster/internal/objectstore"
	"github.com/tomtom215/roster/internal/supervisor"
	"github.com/tomtom215/roster/internal/supervisor/services"
	"github.com/tomtom215/roster/internal/validation"
)

// maintenanceInterval is how often login counters and error fingerprints
// are pruned.
const maintenanceInterval = 5 * time.Minute

func main() {
	defer func() {
		if r := recover(); r != nil {
			logging.Fatal().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Unrecovered panic")
		}
	}()

	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

//nolint:gocyclo // sequential wiring
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Addr()).
		Str("session_store", cfg.Session.Store).
		Str("object_store", cfg.ObjectStore.Provider).
		Msg("Starting Roster")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if err := db.Bootstrap(ctx, database.BootstrapAdmin{
		Username:   cfg.Admin.DefaultUsername,
		Password:   cfg.Admin.DefaultPassword,
		BcryptCost: cfg.Admin.BcryptCost,
	}); err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	logging.Info().Str("dialect", string(db.Dialect())).Msg("Database ready")

	// Sessions
	factory, err := auth.NewSessionStoreFactory(&cfg.Session, db)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	defer func() {
		if err := factory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	sessionStore := factory.CreateStore()

	// Object store
	backend, err := objectstore.New(ctx, &cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("create object store: %w", err)
	}
	store := objectstore.Guard(backend, objectstore.GuardConfig{
		UploadTimeout: cfg.ObjectStore.UploadTimeout,
		DeleteTimeout: cfg.ObjectStore.DeleteTimeout,
	})
	var media http.Handler
	if mem, ok := backend.(*objectstore.Memory); ok {
		media = mem
		logging.Warn().Msg("Using in-memory object store: images are lost on restart")
	}

	// Records
	maxFile := cfg.Upload.MaxFileSizeBytes()
	deps := entity.Deps{
		DB:    db,
		Store: store,
		Images: imaging.New(imaging.Config{
			MaxBytes:  maxFile,
			MaxPixels: cfg.Upload.MaxImagePixels,
		}),
		Files:            validation.NewFileValidator(cfg.Upload.AllowedTypes, maxFile),
		ListLimit:        cfg.API.ListLimit,
		ContactListLimit: cfg.API.ContactListLimit,
	}

	// Errors and auth
	tracker := logging.NewErrorTracker(logging.ErrorTrackerConfig{})
	errs := &api.ErrorWriter{
		IncludeStack:    cfg.IsDevelopment(),
		Tracker:         tracker,
		RateLimitWindow: cfg.RateLimit.Window(),
	}
	security := logging.NewSecurityLogger()

	limiter := auth.NewLoginLimiter(auth.LoginLimiterConfig{
		MaxFailures: cfg.RateLimit.AuthMaxAttempts,
		Window:      cfg.RateLimit.AuthWindow(),
		Disabled:    cfg.RateLimit.Disabled,
	})
	loginService, err := auth.NewService(auth.NewDatabaseAdminStore(db), auth.ServiceConfig{
		MinDuration: cfg.Admin.LoginMinDuration,
		BcryptCost:  cfg.Admin.BcryptCost,
		Limiter:     limiter,
		Security:    security,
	})
	if err != nil {
		return err
	}

	sessionCfg := auth.SessionManagerConfigFrom(cfg)
	sessionCfg.ErrorHandler = errs.Write
	sessionCfg.Security = security
	sessions, err := auth.NewSessionManager(sessionStore, sessionCfg)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}
	proxies, err := auth.NewTrustedProxies(cfg.Security.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		DB:       db,
		Players:  entity.NewPlayers(deps),
		Managers: entity.NewManagers(deps),
		Trophies: entity.NewTrophies(deps),
		Contacts: entity.NewContacts(deps),
		Sessions: sessions,
		Auth:     auth.NewHandlers(loginService, sessions, errs.Write),
		Origins: auth.NewOriginCheck(auth.OriginCheckConfig{
			TrustedOrigins: cfg.AllowedOrigins(),
			ErrorHandler:   errs.Write,
			Security:       security,
		}),
		Proxies:  proxies,
		Errors:   errs,
		Security: security,
		Media:    media,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Supervisor
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddMaintenanceService(services.NewPeriodicService("session-pruner", cfg.Session.PruneInterval,
		sessionStore.CleanupExpired))
	tree.AddMaintenanceService(services.NewPeriodicService("counter-pruner", maintenanceInterval,
		func(context.Context) (int, error) {
			return limiter.Prune() + tracker.Prune(), nil
		}))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		return supervisorResult(err)
	}

	err = supervisorResult(<-errCh)
	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, u := range unstopped {
			logging.Warn().Str("service", u.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	logging.Info().Msg("Roster stopped")
	return err
}

// supervisorResult treats cancellation as a clean stop.
func supervisorResult(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("supervisor: %w", err)
}
