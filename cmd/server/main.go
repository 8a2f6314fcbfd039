// Package main runs the analytics HTTP service:
// - Read API and WebSocket upsert feed
// - Scheduled cache refresh (cron)
// - Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jediswap-analytics/internal/api"
	"jediswap-analytics/internal/app"
	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/observability"
	"jediswap-analytics/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("JEDI_CONFIG"), "Path to YAML config file")
	source := flag.String("source", "", "Snapshot source: graphql, sql, memory (overrides config)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	warm := flag.Bool("warm", true, "Run one refresh of the configured ids before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Source = *source
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(serve(cfg, *warm, logger))
}

// serve runs the service and returns the process exit code. Deferred
// cleanup in run completes before the logger is flushed.
func serve(cfg *config.Config, warm bool, logger *zap.Logger) int {
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, warm, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

func run(cfg *config.Config, warm bool, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stack, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build stack: %w", err)
	}
	defer stack.Close()

	srv, sched, err := start(ctx, cfg, stack, warm, logger)
	if err != nil {
		return err
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr), zap.String("source", cfg.Source))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// hijacked websocket connections are not tracked by Shutdown
	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	srv.Wait()
	return nil
}

// start builds the API server and then the refresh scheduler. The server
// registers its coordinator listeners on construction, so it must exist
// before any refresh runs.
func start(ctx context.Context, cfg *config.Config, stack *app.Stack, warm bool, logger *zap.Logger) (*api.Server, *scheduler.Scheduler, error) {
	periods := cfg.RefreshPeriods()

	opts := []api.Option{
		api.WithLogger(logger.Named("api")),
		api.WithAllowedOrigins(cfg.HTTP.AllowedOrigins),
		api.WithPeriods(periods),
		api.WithSearchOptions(cfg.Search.TokenAllowList, cfg.Search.Limit),
	}
	if stack.Searcher != nil {
		opts = append(opts, api.WithSearcher(stack.Searcher))
	}
	srv := api.NewServer(stack.Coordinators(), opts...)

	ids := app.DefaultIDs(cfg)
	var jobs []scheduler.Job
	for _, c := range stack.Coordinators() {
		jobs = append(jobs, scheduler.Job{Refresher: c, IDs: ids[c.Kind()]})
	}
	sched := scheduler.New(ctx, jobs,
		scheduler.WithPeriods(periods),
		scheduler.WithLogger(logger.Named("scheduler")),
	)
	if warm && sched.Jobs() > 0 {
		if err := sched.RunNow(); err != nil {
			// the API still serves; untracked ids become placeholders
			logger.Warn("initial refresh failed", zap.Error(err))
		}
	}
	if cfg.Refresh.Cron != "" && sched.Jobs() > 0 {
		if err := sched.Register(cfg.Refresh.Cron); err != nil {
			srv.Close()
			return nil, nil, fmt.Errorf("register refresh schedule: %w", err)
		}
		logger.Info("refresh scheduled", zap.String("cron", cfg.Refresh.Cron), zap.Int("jobs", sched.Jobs()))
	}
	sched.Start()
	return srv, sched, nil
}

// loadEnvFile loads environment variables from .env file.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
