package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

// Default paging values.
const (
	DefaultPageSize    = 500
	DefaultConcurrency = 4
)

// ErrNoIDs is returned when a fetch is requested for an empty id list.
var ErrNoIDs = fmt.Errorf("%w: no ids requested", storage.ErrInvalidInput)

// Fetcher retrieves raw current and historical snapshots for a set of ids.
type Fetcher interface {
	// FetchSnapshots returns one set per id that the source knows about.
	// Ids with no data for a period have no entry for it in History.
	// Any failure fails the whole batch and returns no results.
	FetchSnapshots(ctx context.Context, kind domain.EntityKind, ids []string, periods []domain.Period) (map[string]*domain.SnapshotSet, error)
}

// TransportError wraps a failure to retrieve snapshots from the source.
type TransportError struct {
	Kind domain.EntityKind
	IDs  int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %d %s snapshots: %v", e.IDs, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// pageFunc fetches one page of ids.
type pageFunc func(ctx context.Context, ids []string) (map[string]*domain.SnapshotSet, error)

// fetchPaged splits ids into pages of pageSize, runs up to concurrency
// pages at once, and merges the results. The first page error cancels the
// rest and is returned with no results.
func fetchPaged(ctx context.Context, ids []string, pageSize, concurrency int, fetch pageFunc) (map[string]*domain.SnapshotSet, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	pages := splitPages(ids, pageSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	result := make(map[string]*domain.SnapshotSet, len(ids))

	for _, page := range pages {
		page := page
		g.Go(func() error {
			sets, err := fetch(gctx, page)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for id, set := range sets {
				result[id] = set
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// splitPages splits ids into consecutive chunks of at most size.
func splitPages(ids []string, size int) [][]string {
	var pages [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		pages = append(pages, ids[start:end])
	}
	return pages
}

// uniqueIDs drops empty and duplicate ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// historicalOnly drops current and invalid periods, and defaults an empty
// list to domain.DefaultPeriods.
func historicalOnly(periods []domain.Period) []domain.Period {
	out := make([]domain.Period, 0, len(periods))
	seen := make(map[domain.Period]bool, len(periods))
	for _, p := range periods {
		if !p.IsHistorical() || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return append(out, domain.DefaultPeriods...)
	}
	return out
}
