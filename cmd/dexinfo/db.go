package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/fixtures"
	chstore "jediswap-analytics/internal/storage/clickhouse"
	"jediswap-analytics/internal/storage/migrations"
	pgstore "jediswap-analytics/internal/storage/postgres"
)

func requireDSNs(cfg *config.Config) error {
	if cfg.Postgres.DSN == "" || cfg.ClickHouse.DSN == "" {
		return errors.New("postgres.dsn and clickhouse.dsn are required (or JEDI_POSTGRES_DSN / JEDI_CLICKHOUSE_DSN)")
	}
	return nil
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres and ClickHouse schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if err := requireDSNs(cfg); err != nil {
				return err
			}
			ctx, cancel := commandContext(c)
			defer cancel()

			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "postgres migrations applied")

			conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Fprintln(c.OutOrStdout(), "clickhouse migrations applied")
			return nil
		},
	}
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo fixtures into the indexer databases",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if err := requireDSNs(cfg); err != nil {
				return err
			}
			ctx, cancel := commandContext(c)
			defer cancel()

			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
			if err != nil {
				return fmt.Errorf("connect clickhouse: %w", err)
			}
			defer conn.Close()

			err = fixtures.LoadFixtures(ctx,
				pgstore.NewCurrentSnapshotStore(pool),
				chstore.NewPeriodSnapshotStore(conn),
				time.Now().UnixMilli(),
			)
			if err != nil {
				return err
			}
			ids := fixtures.IDs()
			fmt.Fprintf(c.OutOrStdout(), "seeded %d tokens, %d pools, %d factories\n",
				len(ids[domain.KindToken]), len(ids[domain.KindPool]), len(ids[domain.KindFactory]))
			return nil
		},
	}
}
