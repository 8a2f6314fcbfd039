// Package fixtures holds deterministic demo data for running without an
// indexer.
package fixtures

import (
	"context"
	"fmt"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/storage"
)

// Demo token addresses (StarkNet mainnet).
const (
	ETH  = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	USDC = "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8"
	USDT = "0x068f5c6a61780768455de69077e07e89787839bf8166decfbf92b645209c0fb8"
	STRK = "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"
	WBTC = "0x03fe2b97c1fd336e750087d68b9b867997fd64a2661ff3ca5a7c771641e8e7ac"
)

// Demo pool and factory addresses.
const (
	PoolETHUSDC  = "0x0000000000000000000000000000000000000000000000000000000000e7c001"
	PoolSTRKETH  = "0x0000000000000000000000000000000000000000000000000000000000e7c002"
	PoolUSDCUSDT = "0x0000000000000000000000000000000000000000000000000000000000e7c003"
	PoolWBTCETH  = "0x0000000000000000000000000000000000000000000000000000000000e7c004"
	Factory      = "0x0000000000000000000000000000000000000000000000000000000000fac700"
)

// market is the shape every demo entity is generated from.
type market struct {
	volumeUSD float64 // cumulative
	dayVolume float64
	tvl       float64 // native units
	tvlUSD    float64
	txCount   int64 // cumulative
	dayTxns   int64
	price     float64 // 0 means no price
	dayMove   float64 // price change over one day, percent
	feeRate   float64
}

var tokens = []struct {
	info domain.TokenInfo
	m    market
}{
	{domain.TokenInfo{Address: ETH, Name: "Ether", Symbol: "ETH"},
		market{volumeUSD: 912_400_000, dayVolume: 1_850_000, tvl: 4_120, tvlUSD: 9_890_000, txCount: 3_402_118, dayTxns: 9_410, price: 2400, dayMove: 2.4, feeRate: 0.003}},
	{domain.TokenInfo{Address: USDC, Name: "USD Coin", Symbol: "USDC"},
		market{volumeUSD: 858_100_000, dayVolume: 2_310_000, tvl: 7_450_000, tvlUSD: 7_450_000, txCount: 2_990_530, dayTxns: 8_870, price: 1, dayMove: 0.01, feeRate: 0.003}},
	{domain.TokenInfo{Address: USDT, Name: "Tether USD", Symbol: "USDT"},
		market{volumeUSD: 301_700_000, dayVolume: 640_000, tvl: 2_120_000, tvlUSD: 2_120_000, txCount: 880_204, dayTxns: 2_115, price: 1, dayMove: -0.02, feeRate: 0.003}},
	{domain.TokenInfo{Address: STRK, Name: "Starknet Token", Symbol: "STRK"},
		market{volumeUSD: 188_900_000, dayVolume: 910_000, tvl: 6_300_000, tvlUSD: 3_780_000, txCount: 1_204_377, dayTxns: 5_602, price: 0.6, dayMove: -6.5, feeRate: 0.003}},
	{domain.TokenInfo{Address: WBTC, Name: "Wrapped BTC", Symbol: "WBTC"},
		market{volumeUSD: 74_300_000, dayVolume: 0, tvl: 21.5, tvlUSD: 1_290_000, txCount: 102_554, dayTxns: 0, price: 60000, dayMove: 0, feeRate: 0.003}},
}

var pools = []struct {
	info domain.PoolInfo
	m    market
}{
	{domain.PoolInfo{Address: PoolETHUSDC, Fee: 3000,
		Token0: domain.TokenInfo{Address: ETH, Name: "Ether", Symbol: "ETH"},
		Token1: domain.TokenInfo{Address: USDC, Name: "USD Coin", Symbol: "USDC"}},
		market{volumeUSD: 640_200_000, dayVolume: 1_420_000, tvlUSD: 6_210_000, txCount: 2_110_004, dayTxns: 6_030, feeRate: 0.003}},
	{domain.PoolInfo{Address: PoolSTRKETH, Fee: 3000,
		Token0: domain.TokenInfo{Address: STRK, Name: "Starknet Token", Symbol: "STRK"},
		Token1: domain.TokenInfo{Address: ETH, Name: "Ether", Symbol: "ETH"}},
		market{volumeUSD: 150_800_000, dayVolume: 780_000, tvlUSD: 3_050_000, txCount: 990_312, dayTxns: 4_480, feeRate: 0.003}},
	{domain.PoolInfo{Address: PoolUSDCUSDT, Fee: 100,
		Token0: domain.TokenInfo{Address: USDC, Name: "USD Coin", Symbol: "USDC"},
		Token1: domain.TokenInfo{Address: USDT, Name: "Tether USD", Symbol: "USDT"}},
		market{volumeUSD: 280_500_000, dayVolume: 600_000, tvlUSD: 2_400_000, txCount: 702_870, dayTxns: 1_960, feeRate: 0.0001}},
	{domain.PoolInfo{Address: PoolWBTCETH, Fee: 3000,
		Token0: domain.TokenInfo{Address: WBTC, Name: "Wrapped BTC", Symbol: "WBTC"},
		Token1: domain.TokenInfo{Address: ETH, Name: "Ether", Symbol: "ETH"}},
		market{volumeUSD: 71_000_000, dayVolume: 0, tvlUSD: 1_180_000, txCount: 98_801, dayTxns: 0, feeRate: 0.003}},
}

var global = market{
	volumeUSD: 1_142_500_000, dayVolume: 2_800_000, tvlUSD: 12_840_000,
	txCount: 3_902_287, dayTxns: 12_470, feeRate: 0.0027,
}

// TokenIDs returns the demo token addresses.
func TokenIDs() []string {
	ids := make([]string, len(tokens))
	for i, t := range tokens {
		ids[i] = t.info.Address
	}
	return ids
}

// PoolIDs returns the demo pool addresses.
func PoolIDs() []string {
	ids := make([]string, len(pools))
	for i, p := range pools {
		ids[i] = p.info.Address
	}
	return ids
}

// IDs returns every demo id keyed by kind.
func IDs() map[domain.EntityKind][]string {
	return map[domain.EntityKind][]string{
		domain.KindToken:   TokenIDs(),
		domain.KindPool:    PoolIDs(),
		domain.KindFactory: {Factory},
	}
}

// LoadFixtures populates stores with demo snapshots stamped at computedAt
// (Unix ms).
func LoadFixtures(ctx context.Context, current storage.CurrentSnapshotStore, periods storage.PeriodSnapshotStore, computedAt int64) error {
	var cur []*domain.CurrentSnapshot
	var hist []*domain.PeriodSnapshot

	add := func(kind domain.EntityKind, id string, tok *domain.TokenInfo, pool *domain.PoolInfo, m market) {
		cur = append(cur, &domain.CurrentSnapshot{
			Kind:      kind,
			EntityID:  id,
			Token:     tok,
			Pool:      pool,
			Snapshot:  m.current(),
			UpdatedAt: computedAt,
		})
		for _, p := range domain.HistoricalPeriods {
			hist = append(hist, &domain.PeriodSnapshot{
				Kind:       kind,
				EntityID:   id,
				Period:     p,
				Snapshot:   m.at(p),
				ComputedAt: computedAt,
			})
		}
	}

	for i := range tokens {
		t := tokens[i]
		add(domain.KindToken, t.info.Address, &t.info, nil, t.m)
	}
	for i := range pools {
		p := pools[i]
		add(domain.KindPool, p.info.Address, nil, &p.info, p.m)
	}
	add(domain.KindFactory, Factory, nil, nil, global)

	if err := current.UpsertBulk(ctx, cur); err != nil {
		return fmt.Errorf("load current snapshots: %w", err)
	}
	if err := periods.InsertBulk(ctx, hist); err != nil {
		return fmt.Errorf("load period snapshots: %w", err)
	}
	return nil
}

func (m market) current() domain.Snapshot {
	return domain.Snapshot{
		VolumeUSD:           m.volumeUSD,
		FeesUSD:             m.volumeUSD * m.feeRate,
		TotalValueLocked:    m.tvl,
		TotalValueLockedUSD: m.tvlUSD,
		TxCount:             m.txCount,
	}
}

// periodShape gives each period's length in days and its volume and txns
// as a multiple of one day.
var periodShape = map[domain.Period]struct {
	days     int
	multiple float64
}{
	domain.PeriodOneDay:   {1, 1},
	domain.PeriodTwoDays:  {2, 1.8},
	domain.PeriodOneWeek:  {7, 6.5},
	domain.PeriodOneMonth: {30, 27},
}

// at derives the windowed snapshot for period p. Liquidity grows one
// percent per day, so the window started at a lower TVL.
func (m market) at(p domain.Period) domain.Snapshot {
	shape := periodShape[p]
	days := float64(shape.days)
	volume := m.dayVolume * shape.multiple

	s := domain.Snapshot{
		VolumeUSD:                volume,
		FeesUSD:                  volume * m.feeRate,
		TotalValueLocked:         m.tvl,
		TotalValueLockedUSD:      m.tvlUSD,
		TotalValueLockedUSDFirst: domain.Float(m.tvlUSD / (1 + 0.01*days)),
		TxCount:                  int64(float64(m.dayTxns) * shape.multiple),
	}
	if m.price > 0 {
		s.Close = domain.Float(m.price)
		s.Open = domain.Float(m.price / (1 + m.dayMove*days/100))
	}
	return s
}
