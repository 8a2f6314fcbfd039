package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jediswap-analytics/internal/app"
	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/observability"
)

type rootFlags struct {
	configPath string
	source     string
	logLevel   string
	jsonOut    bool
	timeout    time.Duration
}

var flags rootFlags

func rootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:           "dexinfo",
		Short:         "Inspect JediSwap analytics from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := c.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to YAML config file")
	pf.StringVar(&flags.source, "source", "", "snapshot source: graphql, sql, memory (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level")
	pf.BoolVar(&flags.jsonOut, "json", false, "print JSON instead of text")
	pf.DurationVar(&flags.timeout, "timeout", time.Minute, "overall command timeout")

	c.AddCommand(
		tokenCommand(),
		poolCommand(),
		globalCommand(),
		searchCommand(),
		migrateCommand(),
		seedCommand(),
	)
	return c
}

// loadConfig applies persistent flag overrides on top of the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.source != "" {
		cfg.Source = flags.source
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is what every lookup subcommand needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	stack  *app.Stack
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Log.Level, observability.FormatConsole)
	if err != nil {
		return nil, err
	}
	stack, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, stack: stack}, nil
}

func (s *session) Close() {
	s.stack.Close()
	_ = s.logger.Sync()
}

func commandContext(c *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), flags.timeout)
}
