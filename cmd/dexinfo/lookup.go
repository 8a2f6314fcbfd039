package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/fixtures"
	"jediswap-analytics/internal/search"
)

func tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <address>...",
		Short: "Show metrics for one or more tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return lookup(c, domain.KindToken, args)
		},
	}
}

func poolCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pool <address>...",
		Short: "Show metrics for one or more pools",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return lookup(c, domain.KindPool, args)
		},
	}
}

func globalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "global [factory-address]",
		Short: "Show protocol-wide metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			id, err := factoryID(cfg, args)
			if err != nil {
				return err
			}
			return lookup(c, domain.KindFactory, []string{id})
		},
	}
}

// factoryID picks the explicit argument, then the configured refresh
// factory, then the demo factory for the memory source.
func factoryID(cfg *config.Config, args []string) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case len(cfg.Refresh.Factories) > 0:
		return cfg.Refresh.Factories[0], nil
	case cfg.Source == config.SourceMemory:
		return fixtures.Factory, nil
	}
	return "", errors.New("factory address required: pass it as an argument or set refresh.factories")
}

func lookup(c *cobra.Command, kind domain.EntityKind, ids []string) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	coord := s.stack.Coordinator(kind)
	if err := coord.Ensure(ctx, ids, s.cfg.RefreshPeriods()); err != nil {
		return fmt.Errorf("fetch %s: %w", kind, err)
	}

	var records []*domain.EntityRecord
	for _, id := range ids {
		rec, ok := coord.Reader().Get(id)
		if !ok {
			fmt.Fprintf(c.ErrOrStderr(), "%s %s: no data\n", kind, id)
			continue
		}
		records = append(records, rec)
	}
	return printRecords(c.OutOrStdout(), records, flags.jsonOut)
}

func searchCommand() *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "search <query>",
		Short: "Search tokens and pools by symbol, name, address, or pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx, cancel := commandContext(c)
			defer cancel()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			query := args[0]
			if search.ParseQuery(query).Empty() {
				return errors.New("empty query")
			}
			periods := s.cfg.RefreshPeriods()
			tokens := s.stack.Coordinator(domain.KindToken)
			pools := s.stack.Coordinator(domain.KindPool)

			var tokenIDs, poolIDs []string
			if s.stack.Searcher != nil {
				if tokenIDs, err = s.stack.Searcher.SearchIDs(ctx, domain.KindToken, query, nil); err != nil {
					return fmt.Errorf("search tokens: %w", err)
				}
				if poolIDs, err = s.stack.Searcher.SearchIDs(ctx, domain.KindPool, query, tokenIDs); err != nil {
					return fmt.Errorf("search pools: %w", err)
				}
			} else {
				ids := fixtureOrConfigured(s.cfg)
				tokenIDs, poolIDs = ids[domain.KindToken], ids[domain.KindPool]
			}
			if len(tokenIDs) > 0 {
				if err := tokens.Ensure(ctx, tokenIDs, periods); err != nil {
					return fmt.Errorf("fetch tokens: %w", err)
				}
			}
			if len(poolIDs) > 0 {
				if err := pools.Ensure(ctx, poolIDs, periods); err != nil {
					return fmt.Errorf("fetch pools: %w", err)
				}
			}

			opts := []search.Option{search.WithAllowList(s.cfg.Search.TokenAllowList), search.WithLimit(limit)}
			matches := search.Search(query, tokens.Reader().List(), nil, opts...)
			matches = append(matches, search.Search(query, pools.Reader().List(), nil, opts...)...)
			return printRecords(c.OutOrStdout(), matches, flags.jsonOut)
		},
	}
	c.Flags().IntVar(&limit, "limit", 10, "maximum results per kind")
	return c
}

func fixtureOrConfigured(cfg *config.Config) map[domain.EntityKind][]string {
	if cfg.Source == config.SourceMemory {
		return fixtures.IDs()
	}
	return cfg.RefreshIDs()
}
