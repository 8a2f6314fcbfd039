package reporting

import "time"

// Overview is a market snapshot built from the entity caches.
type Overview struct {
	GeneratedAt time.Time

	// Global is nil when no factory record is cached.
	Global *GlobalSummary

	// Tokens and Pools are ranked by one-day volume, then liquidity.
	Tokens []EntityRow
	Pools  []EntityRow

	// Movers are tokens with the largest absolute one-day price change.
	Movers []EntityRow
}

// GlobalSummary holds factory-wide totals.
type GlobalSummary struct {
	ID                 string
	OneDayVolumeUSD    float64
	VolumeChangeUSD    float64
	TotalLiquidityUSD  float64
	LiquidityChangeUSD float64
	OneDayFeesUSD      float64
	OneDayTxns         float64
	TxnChange          float64
}

// EntityRow is one token or pool line.
type EntityRow struct {
	ID                 string
	Name               string
	PriceUSD           *float64 // tokens only
	PriceChangeUSD     float64
	OneDayVolumeUSD    float64
	VolumeChangeUSD    float64
	OneWeekVolumeUSD   float64
	TotalLiquidityUSD  float64
	LiquidityChangeUSD float64
	OneDayFeesUSD      float64
	FeeAPY             float64 // pools only
	OneDayTxns         float64
}
