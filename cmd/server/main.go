package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/explorer/internal/config"
	"github.com/JonMunkholm/explorer/internal/core"
	"github.com/JonMunkholm/explorer/internal/eventlog"
	"github.com/JonMunkholm/explorer/internal/logging"
	"github.com/JonMunkholm/explorer/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"event_store", cfg.Database.Enabled(),
		"event_file", cfg.Events.File,
	)

	var (
		recorders  eventlog.Multi
		serverOpts []web.Option
		store      *eventlog.PgRecorder
	)

	if cfg.Events.File != "" {
		file, err := eventlog.OpenFile(cfg.Events.File)
		if err != nil {
			slog.Error("failed to open event log", "path", cfg.Events.File, "error", err)
			os.Exit(1)
		}
		defer file.Close()
		recorders = append(recorders, file)
	}

	if cfg.Database.Enabled() {
		pool, err := connect(context.Background(), cfg.Database)
		if err != nil {
			slog.Error("failed to connect to event store", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = eventlog.NewPgRecorder(pool)
		if err := store.EnsureSchema(context.Background()); err != nil {
			slog.Error("failed to prepare event store", "error", err)
			os.Exit(1)
		}
		recorders = append(recorders, store)
		serverOpts = append(serverOpts, web.WithEventLister(store))
	}

	var recorder core.EventRecorder
	if len(recorders) > 0 {
		recorder = recorders
	}

	service, err := core.NewService(core.Options{
		LoadCacheSize:       cfg.Cache.LoadEntries,
		ExportCacheSize:     cfg.Cache.ExportEntries,
		MaxConcurrentParses: cfg.Upload.MaxConcurrent,
		ParseWait:           cfg.Upload.MaxWaitTime,
		MaxFileSize:         cfg.Upload.MaxFileSize,
		Selection: core.SelectionDefaults{
			Columns:      cfg.Explore.DefaultColumns,
			FilterValues: cfg.Explore.DefaultFilterValues,
			PreviewRows:  cfg.Explore.PreviewRows,
			MaxRows:      cfg.Explore.MaxPreviewRows,
		},
		DefaultBins: cfg.Explore.DefaultBins,
	}, recorder)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	slog.Info("demo datasets available", "demos", service.DemoNames())

	server := web.NewServer(service, cfg, serverOpts...)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if store != nil {
		go eventlog.StartPurgeScheduler(jobCtx, store, eventlog.RetentionConfig{
			RetentionDays: cfg.Events.RetentionDays,
			Interval:      cfg.Events.PurgeInterval,
		})
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight parses to complete (with timeout)
		if active := service.Limiter().Active(); active > 0 {
			slog.Info("waiting for parses to complete", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("parses did not complete in time", "error", err)
			} else {
				slog.Info("all parses completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// connect opens and pings the event store pool.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to event store", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to event store")
	}
	return pool, nil
}
