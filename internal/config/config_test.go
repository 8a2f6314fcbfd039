package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jediswap-analytics/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, SourceGraphQL, cfg.Source)
	assert.Equal(t, DefaultGraphQLURL, cfg.GraphQL.URL)
	assert.Equal(t, 30*time.Second, cfg.GraphQL.Timeout)
	assert.Equal(t, 0, cfg.GraphQL.MaxRetries)
	assert.Equal(t, 500, cfg.GraphQL.PageSize)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "cumulative", cfg.Cache.Trend)
	assert.False(t, cfg.Cache.DisableCoalescing)
	assert.Equal(t, domain.DefaultPeriods, cfg.RefreshPeriods())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultGraphQLURL, cfg.GraphQL.URL)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
source: sql
graphql:
  timeout: 5s
  max_retries: 3
postgres:
  dsn: postgres://u:p@localhost:5432/jedi
clickhouse:
  dsn: clickhouse://localhost:9000/jedi
cache:
  trend: windowed
refresh:
  cron: "@every 1m"
  tokens: ["0x01", "0x02"]
  periods: [oneDay, one_week]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceSQL, cfg.Source)
	assert.Equal(t, 5*time.Second, cfg.GraphQL.Timeout)
	assert.Equal(t, 3, cfg.GraphQL.MaxRetries)
	assert.Equal(t, "windowed", cfg.Cache.Trend)
	assert.Equal(t, []string{"0x01", "0x02"}, cfg.RefreshIDs()[domain.KindToken])
	assert.Equal(t, []domain.Period{domain.PeriodOneDay, domain.PeriodOneWeek}, cfg.RefreshPeriods())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "graphql:\n  url: http://file.example/graphql\n")

	t.Setenv("JEDI_GRAPHQL_URL", "http://env.example/graphql")
	t.Setenv("JEDI_HTTP_ADDR", ":9999")
	t.Setenv("JEDI_LOG_LEVEL", "debug")
	t.Setenv("JEDI_REFRESH_POOLS", "0xa, 0xb,,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example/graphql", cfg.GraphQL.URL)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"0xa", "0xb"}, cfg.Refresh.Pools)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "source: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Source = "redis" }},
		{"sql without postgres", func(c *Config) { c.Source = SourceSQL; c.ClickHouse.DSN = "clickhouse://x/db" }},
		{"sql without clickhouse", func(c *Config) { c.Source = SourceSQL; c.Postgres.DSN = "postgres://x/db" }},
		{"negative retries", func(c *Config) { c.GraphQL.MaxRetries = -1 }},
		{"zero page size", func(c *Config) { c.GraphQL.PageSize = 0 }},
		{"unknown trend", func(c *Config) { c.Cache.Trend = "linear" }},
		{"bad period", func(c *Config) { c.Refresh.Periods = []string{"one_year"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_MemorySource(t *testing.T) {
	cfg := Default()
	cfg.Source = SourceMemory
	assert.NoError(t, cfg.Validate())
}
