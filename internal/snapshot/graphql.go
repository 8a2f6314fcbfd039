package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jediswap-analytics/internal/domain"
)

// Querier executes one GraphQL document. graphql.Client implements it.
type Querier interface {
	Do(ctx context.Context, query string, vars map[string]interface{}, result interface{}) error
}

// GraphQLFetcher fetches snapshots from the indexer's GraphQL API.
type GraphQLFetcher struct {
	client      Querier
	pageSize    int
	concurrency int
	logger      *zap.Logger
}

// GraphQLOption configures GraphQLFetcher.
type GraphQLOption func(*GraphQLFetcher)

// WithPageSize sets the maximum ids per request.
func WithPageSize(n int) GraphQLOption {
	return func(f *GraphQLFetcher) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithConcurrency sets how many pages may be in flight at once.
func WithConcurrency(n int) GraphQLOption {
	return func(f *GraphQLFetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLogger sets the fetcher logger.
func WithLogger(l *zap.Logger) GraphQLOption {
	return func(f *GraphQLFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewGraphQLFetcher creates a fetcher on top of client.
func NewGraphQLFetcher(client Querier, opts ...GraphQLOption) *GraphQLFetcher {
	f := &GraphQLFetcher{
		client:      client,
		pageSize:    DefaultPageSize,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchSnapshots implements Fetcher.
func (f *GraphQLFetcher) FetchSnapshots(ctx context.Context, kind domain.EntityKind, ids []string, periods []domain.Period) (map[string]*domain.SnapshotSet, error) {
	q, ok := kindQuery[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported kind %q", kind)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	periods = historicalOnly(periods)
	labels := domain.PeriodStrings(periods)

	result, err := fetchPaged(ctx, ids, f.pageSize, f.concurrency, func(ctx context.Context, page []string) (map[string]*domain.SnapshotSet, error) {
		var data map[string]json.RawMessage
		vars := map[string]interface{}{
			"ids":     page,
			"periods": labels,
			"first":   len(page),
		}
		if err := f.client.Do(ctx, q.document, vars, &data); err != nil {
			return nil, err
		}
		rows, ok := data[q.field]
		if !ok {
			return nil, fmt.Errorf("response missing %s", q.field)
		}
		sets, err := decodeRows(kind, rows, periods)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", q.field, err)
		}
		out := make(map[string]*domain.SnapshotSet, len(sets))
		for _, s := range sets {
			out[s.ID] = s
		}
		return out, nil
	})
	if err != nil {
		return nil, &TransportError{Kind: kind, IDs: len(ids), Err: err}
	}

	f.logger.Debug("fetched snapshots",
		zap.String("kind", kind.String()),
		zap.Int("requested", len(ids)),
		zap.Int("returned", len(result)),
	)
	return result, nil
}

type addressRow struct {
	TokenAddress string `json:"tokenAddress"`
	PoolAddress  string `json:"poolAddress"`
}

func (r addressRow) id() string {
	if r.TokenAddress != "" {
		return r.TokenAddress
	}
	return r.PoolAddress
}

// SearchIDs asks the indexer for ids matching text. Tokens match on symbol,
// name or address; pools match on constituent token ids or address.
// For pools, tokenIDs are the ids of tokens already matched by text.
func (f *GraphQLFetcher) SearchIDs(ctx context.Context, kind domain.EntityKind, text string, tokenIDs []string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var document string
	var vars map[string]interface{}
	var id interface{}
	if strings.HasPrefix(strings.ToLower(text), "0x") {
		id = strings.ToLower(text)
	}

	switch kind {
	case domain.KindToken:
		document = tokenSearchQuery
		vars = map[string]interface{}{"value": strings.ToUpper(text), "id": id}
	case domain.KindPool:
		document = poolSearchQuery
		vars = map[string]interface{}{"tokens": tokenIDs, "id": id}
	default:
		return nil, fmt.Errorf("search not supported for kind %q", kind)
	}

	var data map[string][]addressRow
	if err := f.client.Do(ctx, document, vars, &data); err != nil {
		return nil, &TransportError{Kind: kind, Err: err}
	}

	// stable order: alias groups in document order
	var ids []string
	for _, alias := range []string{"asAddress", "asSymbol", "asName", "as0", "as1"} {
		for _, row := range data[alias] {
			if v := row.id(); v != "" {
				ids = append(ids, v)
			}
		}
	}
	return uniqueIDs(ids), nil
}

// Verify interface compliance at compile time.
var _ Fetcher = (*GraphQLFetcher)(nil)
