package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"jediswap-analytics/internal/app"
	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/observability"
	"jediswap-analytics/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv("JEDI_CONFIG"), "Path to YAML config file")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory fixtures instead of the configured source")
	limit := flag.Int("limit", reporting.DefaultLimit, "Rows per table")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall fetch timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *useFixtures {
		cfg.Source = config.SourceMemory
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, observability.FormatConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stack, err := app.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building stack: %v\n", err)
		os.Exit(1)
	}
	defer stack.Close()

	ids := app.DefaultIDs(cfg)
	if len(ids[domain.KindToken]) == 0 && len(ids[domain.KindPool]) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no ids to report on; set refresh.tokens / refresh.pools")
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	periods := cfg.RefreshPeriods()
	for _, c := range stack.Coordinators() {
		if len(ids[c.Kind()]) == 0 {
			continue
		}
		if err := c.Ensure(ctx, ids[c.Kind()], periods); err != nil {
			// partial reports are still useful
			logger.Warn("ensure failed", zap.String("kind", c.Kind().String()), zap.Error(err))
		}
	}

	gen := reporting.NewGenerator(
		stack.Coordinator(domain.KindToken).Reader(),
		stack.Coordinator(domain.KindPool).Reader(),
		stack.Coordinator(domain.KindFactory).Reader(),
	).WithLimit(*limit)

	overview := gen.Generate()
	if err := reporting.WriteFiles(*outputDir, overview); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Overview report generated successfully:")
	for _, name := range []string{reporting.OverviewFile, reporting.TokensFile, reporting.PoolsFile} {
		fmt.Printf("  - %s\n", filepath.Join(*outputDir, name))
	}
}
