// Package app wires configuration into fetchers, caches, and coordinators
// shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/coordinator"
	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/fixtures"
	"jediswap-analytics/internal/graphql"
	"jediswap-analytics/internal/metrics"
	"jediswap-analytics/internal/snapshot"
	chstore "jediswap-analytics/internal/storage/clickhouse"
	"jediswap-analytics/internal/storage/memory"
	pgstore "jediswap-analytics/internal/storage/postgres"
)

// Stack is one fully wired set of coordinators over a single fetcher.
type Stack struct {
	Fetcher snapshot.Fetcher
	// Searcher is set only for the graphql source.
	Searcher *snapshot.GraphQLFetcher

	coords  map[domain.EntityKind]*coordinator.Coordinator
	closers []func()
}

// Build creates the fetcher selected by cfg.Source and one coordinator per
// entity kind. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	trend, err := metrics.TrendByName(cfg.Cache.Trend)
	if err != nil {
		return nil, err
	}

	s := &Stack{coords: make(map[domain.EntityKind]*coordinator.Coordinator)}
	if err := s.buildFetcher(ctx, cfg, logger); err != nil {
		s.Close()
		return nil, err
	}

	joiner := metrics.NewJoiner(trend)
	for _, kind := range domain.Kinds {
		s.coords[kind] = coordinator.New(kind, memory.NewEntityCache(), s.Fetcher,
			coordinator.WithJoiner(joiner),
			coordinator.WithCoalescing(!cfg.Cache.DisableCoalescing),
			coordinator.WithLogger(logger.Named("coordinator")),
		)
	}
	return s, nil
}

func (s *Stack) buildFetcher(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Source {
	case config.SourceGraphQL:
		opts := []graphql.ClientOption{
			graphql.WithTimeout(cfg.GraphQL.Timeout),
			graphql.WithMaxRetries(cfg.GraphQL.MaxRetries),
			graphql.WithLogger(logger.Named("graphql")),
		}
		if cfg.GraphQL.RateLimit > 0 {
			opts = append(opts, graphql.WithRateLimit(cfg.GraphQL.RateLimit, cfg.GraphQL.RateBurst))
		}
		client := graphql.NewClient(cfg.GraphQL.URL, opts...)
		f := snapshot.NewGraphQLFetcher(client,
			snapshot.WithPageSize(cfg.GraphQL.PageSize),
			snapshot.WithConcurrency(cfg.GraphQL.Concurrency),
			snapshot.WithLogger(logger.Named("fetcher")),
		)
		s.Fetcher = f
		s.Searcher = f
		logger.Info("using graphql source", zap.String("url", client.Endpoint()))

	case config.SourceSQL:
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })

		s.Fetcher = snapshot.NewSQLFetcher(
			pgstore.NewCurrentSnapshotStore(pool),
			chstore.NewPeriodSnapshotStore(conn),
			logger.Named("fetcher"),
		)
		logger.Info("using sql source")

	case config.SourceMemory:
		current := memory.NewCurrentSnapshotStore()
		periods := memory.NewPeriodSnapshotStore()
		if err := fixtures.LoadFixtures(ctx, current, periods, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
		s.Fetcher = snapshot.NewSQLFetcher(current, periods, logger.Named("fetcher"))
		logger.Info("using in-memory demo source")

	default:
		return fmt.Errorf("unknown source %q", cfg.Source)
	}
	return nil
}

// Coordinator returns the coordinator for kind, or nil.
func (s *Stack) Coordinator(kind domain.EntityKind) *coordinator.Coordinator {
	return s.coords[kind]
}

// Coordinators returns every coordinator in domain.Kinds order.
func (s *Stack) Coordinators() []*coordinator.Coordinator {
	out := make([]*coordinator.Coordinator, 0, len(s.coords))
	for _, kind := range domain.Kinds {
		if c, ok := s.coords[kind]; ok {
			out = append(out, c)
		}
	}
	return out
}

// DefaultIDs returns the ids to track at startup: the configured refresh
// ids, or the demo fixture ids for the memory source.
func DefaultIDs(cfg *config.Config) map[domain.EntityKind][]string {
	if cfg.Source == config.SourceMemory {
		ids := cfg.RefreshIDs()
		demo := fixtures.IDs()
		for kind, list := range ids {
			if len(list) == 0 {
				ids[kind] = demo[kind]
			}
		}
		return ids
	}
	return cfg.RefreshIDs()
}

// Close releases database connections in reverse order.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
