package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/graphql"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func TestGraphQLFetcher_Tokens(t *testing.T) {
	var got gqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"tokensData": []interface{}{
					map[string]interface{}{
						"token": map[string]interface{}{
							"tokenAddress":        "0xaaa",
							"name":                "Ether",
							"symbol":              "ETH",
							"volumeUSD":           "1000.500000000000000001",
							"totalValueLockedUSD": 250,
							"txCount":             "42",
						},
						"period": map[string]interface{}{
							"one_day": map[string]interface{}{
								"volumeUSD":                "700",
								"totalValueLockedUSD":      "200",
								"totalValueLockedUSDFirst": "100",
								"open":                     "1800.5",
								"close":                    "1850.25",
							},
							"two_days":  map[string]interface{}{"volumeUSD": "400", "close": nil},
							"one_month": map[string]interface{}{"volumeUSD": "1"},
						},
					},
					map[string]interface{}{"token": nil, "period": map[string]interface{}{}},
				},
			},
		})
	}))
	defer server.Close()

	f := NewGraphQLFetcher(graphql.NewClient(server.URL))
	sets, err := f.FetchSnapshots(context.Background(), domain.KindToken,
		[]string{"0xaaa", "0xbbb", "0xaaa"},
		[]domain.Period{domain.PeriodOneDay, domain.PeriodTwoDays})
	require.NoError(t, err)

	assert.Contains(t, got.Query, "tokensData(")
	assert.Equal(t, []interface{}{"0xaaa", "0xbbb"}, got.Variables["ids"])
	assert.Equal(t, []interface{}{"one_day", "two_days"}, got.Variables["periods"])

	require.Len(t, sets, 1)
	set := sets["0xaaa"]
	require.NotNil(t, set)
	require.NotNil(t, set.Current)
	assert.Equal(t, domain.KindToken, set.Kind)
	assert.Equal(t, "ETH", set.Token.Symbol)
	assert.InDelta(t, 1000.5, set.Current.VolumeUSD, 1e-9)
	assert.Equal(t, 250.0, set.Current.TotalValueLockedUSD)
	assert.Equal(t, int64(42), set.Current.TxCount)
	assert.Nil(t, set.Current.Close)

	require.Len(t, set.History, 2, "unrequested one_month must be dropped")
	oneDay := set.History[domain.PeriodOneDay]
	assert.Equal(t, 700.0, oneDay.VolumeUSD)
	require.NotNil(t, oneDay.TotalValueLockedUSDFirst)
	assert.Equal(t, 100.0, *oneDay.TotalValueLockedUSDFirst)
	require.NotNil(t, oneDay.Close)
	assert.Equal(t, 1850.25, *oneDay.Close)

	twoDays := set.History[domain.PeriodTwoDays]
	assert.Equal(t, 400.0, twoDays.VolumeUSD)
	assert.Nil(t, twoDays.Close, "null close decodes to nil")
	assert.Zero(t, twoDays.FeesUSD, "missing fees decode to zero")
}

func TestGraphQLFetcher_Pools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"poolsData": []interface{}{
					map[string]interface{}{
						"pool": map[string]interface{}{
							"poolAddress":         "0xpool",
							"fee":                 3000,
							"volumeUSD":           "10",
							"totalValueLockedUSD": "500",
							"token0":              map[string]interface{}{"tokenAddress": "0x1", "symbol": "ETH", "name": "Ether"},
							"token1":              map[string]interface{}{"tokenAddress": "0x2", "symbol": "USDC", "name": "USD Coin"},
						},
						"period": map[string]interface{}{"one_day": map[string]interface{}{"feesUSD": "1.5"}},
					},
				},
			},
		})
	}))
	defer server.Close()

	f := NewGraphQLFetcher(graphql.NewClient(server.URL))
	sets, err := f.FetchSnapshots(context.Background(), domain.KindPool, []string{"0xpool"}, nil)
	require.NoError(t, err)

	set := sets["0xpool"]
	require.NotNil(t, set)
	require.NotNil(t, set.Pool)
	assert.Equal(t, int64(3000), set.Pool.Fee)
	assert.Equal(t, "ETH", set.Pool.Token0.Symbol)
	assert.Equal(t, "USDC", set.Pool.Token1.Symbol)
	assert.Equal(t, 1.5, set.History[domain.PeriodOneDay].FeesUSD)
}

func TestGraphQLFetcher_Paging(t *testing.T) {
	var mu sync.Mutex
	var pageSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		ids := req.Variables["ids"].([]interface{})

		mu.Lock()
		pageSizes = append(pageSizes, len(ids))
		mu.Unlock()

		rows := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, map[string]interface{}{
				"factory": map[string]interface{}{"factoryAddress": id, "totalVolumeUSD": "1"},
				"period":  map[string]interface{}{},
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{"factoriesData": rows}})
	}))
	defer server.Close()

	ids := make([]string, 25)
	for i := range ids {
		ids[i] = fmt.Sprintf("0x%02x", i)
	}

	f := NewGraphQLFetcher(graphql.NewClient(server.URL), WithPageSize(10), WithConcurrency(2))
	sets, err := f.FetchSnapshots(context.Background(), domain.KindFactory, ids, nil)
	require.NoError(t, err)

	assert.Len(t, sets, 25)
	assert.ElementsMatch(t, []int{10, 10, 5}, pageSizes)
	assert.Equal(t, 1.0, sets["0x00"].Current.VolumeUSD)
}

func TestGraphQLFetcher_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewGraphQLFetcher(graphql.NewClient(server.URL))
	sets, err := f.FetchSnapshots(context.Background(), domain.KindToken, []string{"0xaaa"}, nil)

	require.Error(t, err)
	assert.Nil(t, sets)
	assert.True(t, IsTransportError(err))
}

func TestGraphQLFetcher_EmptyIDs(t *testing.T) {
	f := NewGraphQLFetcher(graphql.NewClient("http://127.0.0.1:0"))
	_, err := f.FetchSnapshots(context.Background(), domain.KindToken, nil, nil)
	assert.ErrorIs(t, err, ErrNoIDs)
}

func TestGraphQLFetcher_SearchIDs(t *testing.T) {
	var got gqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"asSymbol":  []interface{}{map[string]interface{}{"tokenAddress": "0x1"}, map[string]interface{}{"tokenAddress": "0x2"}},
				"asName":    []interface{}{map[string]interface{}{"tokenAddress": "0x2"}},
				"asAddress": []interface{}{},
			},
		})
	}))
	defer server.Close()

	f := NewGraphQLFetcher(graphql.NewClient(server.URL))
	ids, err := f.SearchIDs(context.Background(), domain.KindToken, "eth", nil)
	require.NoError(t, err)

	assert.True(t, strings.Contains(got.Query, "asSymbol"))
	assert.Equal(t, "ETH", got.Variables["value"])
	assert.Nil(t, got.Variables["id"])
	assert.Equal(t, []string{"0x1", "0x2"}, ids)
}
