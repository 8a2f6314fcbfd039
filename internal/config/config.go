package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/metrics"
)

// Fetcher sources.
const (
	SourceGraphQL = "graphql"
	SourceSQL     = "sql"
	SourceMemory  = "memory"
)

// DefaultGraphQLURL is the public JediSwap v2 indexer.
const DefaultGraphQLURL = "https://api.v2.jediswap.xyz/graphql"

// Config holds all application configuration.
type Config struct {
	Source string `yaml:"source"`

	GraphQL struct {
		URL         string        `yaml:"url"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxRetries  int           `yaml:"max_retries"`
		RateLimit   float64       `yaml:"rate_limit"` // requests per second, 0 disables
		RateBurst   int           `yaml:"rate_burst"`
		PageSize    int           `yaml:"page_size"`
		Concurrency int           `yaml:"concurrency"`
	} `yaml:"graphql"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	ClickHouse struct {
		DSN string `yaml:"dsn"`
	} `yaml:"clickhouse"`

	HTTP struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Cache struct {
		Trend             string `yaml:"trend"`
		DisableCoalescing bool   `yaml:"disable_coalescing"`
	} `yaml:"cache"`

	Search struct {
		TokenAllowList []string `yaml:"token_allow_list"`
		Limit          int      `yaml:"limit"`
	} `yaml:"search"`

	Refresh struct {
		Cron      string   `yaml:"cron"`
		Tokens    []string `yaml:"tokens"`
		Pools     []string `yaml:"pools"`
		Factories []string `yaml:"factories"`
		Periods   []string `yaml:"periods"`
	} `yaml:"refresh"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JEDI_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("JEDI_GRAPHQL_URL"); v != "" {
		c.GraphQL.URL = v
	}
	if v := os.Getenv("JEDI_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("JEDI_CLICKHOUSE_DSN"); v != "" {
		c.ClickHouse.DSN = v
	}
	if v := os.Getenv("JEDI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("JEDI_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("JEDI_REFRESH_CRON"); v != "" {
		c.Refresh.Cron = v
	}
	if v := os.Getenv("JEDI_REFRESH_TOKENS"); v != "" {
		c.Refresh.Tokens = splitList(v)
	}
	if v := os.Getenv("JEDI_REFRESH_POOLS"); v != "" {
		c.Refresh.Pools = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = SourceGraphQL
	}
	if c.GraphQL.URL == "" {
		c.GraphQL.URL = DefaultGraphQLURL
	}
	if c.GraphQL.Timeout == 0 {
		c.GraphQL.Timeout = 30 * time.Second
	}
	if c.GraphQL.PageSize == 0 {
		c.GraphQL.PageSize = 500
	}
	if c.GraphQL.Concurrency == 0 {
		c.GraphQL.Concurrency = 4
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Cache.Trend == "" {
		c.Cache.Trend = metrics.TrendCumulative
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = 20
	}
	if len(c.Refresh.Periods) == 0 {
		c.Refresh.Periods = domain.PeriodStrings(domain.DefaultPeriods)
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceGraphQL:
		if c.GraphQL.URL == "" {
			return fmt.Errorf("graphql.url is required")
		}
	case SourceSQL:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for source %q", SourceSQL)
		}
		if c.ClickHouse.DSN == "" {
			return fmt.Errorf("clickhouse.dsn is required for source %q", SourceSQL)
		}
	case SourceMemory:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	if c.GraphQL.Timeout < 0 {
		return fmt.Errorf("graphql.timeout must not be negative")
	}
	if c.GraphQL.MaxRetries < 0 {
		return fmt.Errorf("graphql.max_retries must not be negative")
	}
	if c.GraphQL.PageSize <= 0 {
		return fmt.Errorf("graphql.page_size must be positive")
	}
	if c.GraphQL.Concurrency <= 0 {
		return fmt.Errorf("graphql.concurrency must be positive")
	}
	if c.GraphQL.RateLimit < 0 {
		return fmt.Errorf("graphql.rate_limit must not be negative")
	}
	if _, err := metrics.TrendByName(c.Cache.Trend); err != nil {
		return fmt.Errorf("cache.trend: %w", err)
	}
	if _, err := domain.ParsePeriods(c.Refresh.Periods); err != nil {
		return fmt.Errorf("refresh.periods: %w", err)
	}
	return nil
}

// RefreshPeriods returns the parsed refresh periods. Call after Validate.
func (c *Config) RefreshPeriods() []domain.Period {
	periods, err := domain.ParsePeriods(c.Refresh.Periods)
	if err != nil {
		return domain.DefaultPeriods
	}
	return periods
}

// RefreshIDs returns the configured refresh ids per kind.
func (c *Config) RefreshIDs() map[domain.EntityKind][]string {
	return map[domain.EntityKind][]string{
		domain.KindToken:   c.Refresh.Tokens,
		domain.KindPool:    c.Refresh.Pools,
		domain.KindFactory: c.Refresh.Factories,
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
