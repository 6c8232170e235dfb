// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/tomtom215/orderdesk/docs" // Import generated swagger docs
	"github.com/tomtom215/orderdesk/internal/api"
	"github.com/tomtom215/orderdesk/internal/artifact"
	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/auth"
	"github.com/tomtom215/orderdesk/internal/authz"
	"github.com/tomtom215/orderdesk/internal/catalog"
	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/database"
	"github.com/tomtom215/orderdesk/internal/eventprocessor"
	"github.com/tomtom215/orderdesk/internal/identity"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/report"
	"github.com/tomtom215/orderdesk/internal/supervisor"
	"github.com/tomtom215/orderdesk/internal/supervisor/services"
	"github.com/tomtom215/orderdesk/internal/sweep"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("queue_backend", cfg.Reports.Queue.Backend).
		Str("artifact_backend", cfg.Reports.Artifacts.Backend).
		Msg("Starting Orderdesk with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	catalogStore := catalog.NewDuckDBStore(db.Conn())
	auditStore := audit.NewDuckDBStore(db.Conn())
	reportStore := report.NewDuckDBStore(db.Conn())
	if err := database.EnsureSchema(ctx, catalogStore, auditStore, reportStore); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create schema")
	}
	logging.Info().Msg("Database initialized successfully")

	if cfg.Database.SeedMockData {
		logging.Info().Msg("Mock data seeding enabled (SEED_MOCK_DATA=true)")
		if err := catalogStore.Load(ctx, catalog.NewSeedData(time.Now())); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	artifacts, err := artifact.NewFactory(cfg.Reports.Artifacts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open artifact store")
	}
	defer func() {
		if err := artifacts.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing artifact store")
		}
	}()

	// A nil directory leaves actor names unresolved.
	var directory identity.Directory
	if cfg.Identity.BaseURL != "" {
		directory = identity.NewClient(cfg.Identity, nil)
		logging.Info().Str("base_url", cfg.Identity.BaseURL).Msg("Identity directory enabled")
	} else {
		logging.Info().Msg("Identity directory disabled - actor names will not be resolved")
	}

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	defer enforcer.Close()

	auditWriter := audit.NewWriter(auditStore, cfg.Audit)
	if !cfg.Audit.Enabled {
		logging.Warn().Msg("Audit trail is DISABLED (AUDIT_ENABLED=false)")
	}

	queue, err := eventprocessor.NewQueue(cfg.Reports.Queue)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create report queue")
	}

	manager := report.NewManager(report.Deps{
		Store:       reportStore,
		Artifacts:   artifacts.CreateStore(),
		Sources:     report.Sources{Catalog: catalogStore, Audit: auditStore},
		Permissions: enforcer,
		Publisher:   queue.Jobs(),
		Directory:   directory,
		Recorder:    auditWriter,
	}, cfg.Reports)
	queue.Handle(manager)
	queue.OnReady(func(ctx context.Context) {
		if _, _, err := manager.Recover(ctx); err != nil {
			logging.Error().Err(err).Msg("Failed to recover stranded reports")
		}
	})

	resolver, err := auth.NewResolver(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}
	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Actors are taken from X-Actor-ID / X-Actor-Role headers.")
		logging.Warn().Msg("  Any client can act as any role, including admin.")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none outside local development!")
		logging.Warn().Msg("============================================================")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if slices.Contains(cfg.Security.CORSOrigins, "*") {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}

	handler := api.NewHandler(api.Deps{
		Reports: manager,
		Audit:   audit.NewQueryService(auditStore, directory, cfg.API.DefaultPageSize, cfg.API.MaxPageSize),
		Catalog: catalogStore,
		Checks: []api.ReadinessCheck{
			{Name: "database", Check: db.Ping},
			{Name: "report_queue", Check: func(context.Context) error {
				if !queue.IsRunning() {
					return errors.New("report queue is not running")
				}
				return nil
			}},
		},
	}, cfg.API)

	router := api.NewRouter(
		handler,
		api.NewChiMiddleware(api.NewChiMiddlewareConfig(&cfg.Security)),
		auth.NewMiddleware(resolver, api.WriteUnauthorized),
		authz.NewMiddleware(enforcer, api.WriteDenied),
		audit.NewInterceptor(auditWriter, cfg.Audit.MaxPayloadBytes),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)

	// Data layer: audit persistence
	tree.AddDataService(auditWriter)
	logging.Info().Msg("Audit writer added to supervisor tree")

	// Worker layer: report generation and the availability sweep
	tree.AddWorkerService(services.NewQueueService(queue, cfg.Reports.Queue.CloseTimeout))
	logging.Info().Str("backend", cfg.Reports.Queue.Backend).Msg("Report queue added to supervisor tree")

	tree.AddWorkerService(report.NewReaper(manager, 0))
	logging.Info().Dur("interval", manager.Timeout()).Msg("Report reaper added to supervisor tree")

	if cfg.Sweep.Enabled {
		sweeper, closeLease := newSweeper(cfg.Sweep, catalogStore, auditWriter)
		defer closeLease()
		tree.AddWorkerService(sweep.NewScheduler(sweeper, cfg.Sweep.Interval))
		logging.Info().
			Dur("interval", cfg.Sweep.Interval).
			Str("lock_backend", cfg.Sweep.LockBackend).
			Msg("Availability sweep added to supervisor tree")
	} else {
		logging.Info().Msg("Availability sweep disabled (SWEEP_ENABLED=false)")
	}

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", addr).Msg("HTTP server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newSweeper builds the availability sweeper. With the redis lock backend
// it also holds a lease so only one instance sweeps; the returned func
// closes the Redis client.
func newSweeper(cfg config.SweepConfig, store sweep.Store, recorder audit.Recorder) (*sweep.Sweeper, func()) {
	opts := []sweep.Option{sweep.WithRecorder(recorder)}
	closeFn := func() {}

	if cfg.LockBackend == "redis" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		opts = append(opts, sweep.WithLease(sweep.NewRedisLocker(rdb, cfg.LockKey, cfg.LockTTL)))
		closeFn = func() {
			if err := rdb.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing sweep lease client")
			}
		}
		logging.Info().Str("addr", cfg.RedisAddr).Str("key", cfg.LockKey).Msg("Sweep lease enabled (redis)")
	}

	return sweep.NewSweeper(store, cfg, opts...), closeFn
}
