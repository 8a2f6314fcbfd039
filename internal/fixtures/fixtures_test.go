package fixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/metrics"
	"jediswap-analytics/internal/snapshot"
	"jediswap-analytics/internal/storage/memory"
)

func TestLoadFixtures(t *testing.T) {
	ctx := context.Background()
	current := memory.NewCurrentSnapshotStore()
	periods := memory.NewPeriodSnapshotStore()

	require.NoError(t, LoadFixtures(ctx, current, periods, 1700000000000))

	tokens, err := current.GetByIDs(ctx, domain.KindToken, TokenIDs())
	require.NoError(t, err)
	assert.Len(t, tokens, len(TokenIDs()))

	rows, err := periods.GetByIDs(ctx, domain.KindPool, PoolIDs(), domain.HistoricalPeriods)
	require.NoError(t, err)
	assert.Len(t, rows, len(PoolIDs())*len(domain.HistoricalPeriods))

	global, err := current.GetByID(ctx, domain.KindFactory, Factory)
	require.NoError(t, err)
	assert.Nil(t, global.Token)
	assert.Nil(t, global.Pool)
}

func TestLoadFixtures_JoinedMetrics(t *testing.T) {
	ctx := context.Background()
	current := memory.NewCurrentSnapshotStore()
	periods := memory.NewPeriodSnapshotStore()
	require.NoError(t, LoadFixtures(ctx, current, periods, 1700000000000))

	fetcher := snapshot.NewSQLFetcher(current, periods, nil)
	sets, err := fetcher.FetchSnapshots(ctx, domain.KindToken, []string{ETH}, domain.DefaultPeriods)
	require.NoError(t, err)
	require.Contains(t, sets, ETH)

	rec, err := metrics.NewJoiner(nil).Merge(sets[ETH], 1)
	require.NoError(t, err)

	assert.Equal(t, "ETH", rec.Token.Symbol)
	assert.InDelta(t, 1_850_000.0, rec.Derived.OneDayVolumeUSD, 0.01)
	require.NotNil(t, rec.Derived.PriceUSD)
	assert.InDelta(t, 2400.0, *rec.Derived.PriceUSD, 0.0001)
	assert.InDelta(t, 2.4, rec.Derived.PriceChangeUSD, 0.0001)
	assert.InDelta(t, 1.0, rec.Derived.LiquidityChangeUSD, 0.0001)
}

func TestIDs(t *testing.T) {
	ids := IDs()
	assert.Len(t, ids[domain.KindToken], 5)
	assert.Len(t, ids[domain.KindPool], 4)
	assert.Equal(t, []string{Factory}, ids[domain.KindFactory])
}
