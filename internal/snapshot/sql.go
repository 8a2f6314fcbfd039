package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

// SQLFetcher reads snapshots straight from the indexer databases:
// current rows from a CurrentSnapshotStore and period rows from a
// PeriodSnapshotStore.
type SQLFetcher struct {
	current     storage.CurrentSnapshotStore
	periods     storage.PeriodSnapshotStore
	pageSize    int
	concurrency int
	logger      *zap.Logger
}

// NewSQLFetcher creates a fetcher over the given stores.
func NewSQLFetcher(current storage.CurrentSnapshotStore, periods storage.PeriodSnapshotStore, logger *zap.Logger) *SQLFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLFetcher{
		current:     current,
		periods:     periods,
		pageSize:    DefaultPageSize,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}
}

// FetchSnapshots implements Fetcher.
func (f *SQLFetcher) FetchSnapshots(ctx context.Context, kind domain.EntityKind, ids []string, periods []domain.Period) (map[string]*domain.SnapshotSet, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	periods = historicalOnly(periods)

	result, err := fetchPaged(ctx, ids, f.pageSize, f.concurrency, func(ctx context.Context, page []string) (map[string]*domain.SnapshotSet, error) {
		currents, err := f.current.GetByIDs(ctx, kind, page)
		if err != nil {
			return nil, fmt.Errorf("load current snapshots: %w", err)
		}
		rows, err := f.periods.GetByIDs(ctx, kind, page, periods)
		if err != nil {
			return nil, fmt.Errorf("load period snapshots: %w", err)
		}

		out := make(map[string]*domain.SnapshotSet, len(currents))
		for _, c := range currents {
			snap := c.Snapshot.Clone()
			out[c.EntityID] = &domain.SnapshotSet{
				ID:      c.EntityID,
				Kind:    kind,
				Token:   c.Token,
				Pool:    c.Pool,
				Current: &snap,
				History: make(map[domain.Period]domain.Snapshot),
			}
		}
		for _, r := range rows {
			set, ok := out[r.EntityID]
			if !ok {
				// period data without a current row is unusable
				continue
			}
			set.History[r.Period] = r.Snapshot
		}
		return out, nil
	})
	if err != nil {
		return nil, &TransportError{Kind: kind, IDs: len(ids), Err: err}
	}

	f.logger.Debug("loaded snapshots",
		zap.String("kind", kind.String()),
		zap.Int("requested", len(ids)),
		zap.Int("returned", len(result)),
	)
	return result, nil
}

// Verify interface compliance at compile time.
var _ Fetcher = (*SQLFetcher)(nil)
