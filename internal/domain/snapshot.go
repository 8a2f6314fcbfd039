package domain

// Snapshot holds the metric fields of one entity at one period.
// For the current period volume, fees and tx count are running totals; for
// historical periods they are aggregates over that window.
type Snapshot struct {
	VolumeUSD           float64 `json:"volumeUSD"`
	FeesUSD             float64 `json:"feesUSD"`
	TotalValueLocked    float64 `json:"totalValueLocked"`    // native units
	TotalValueLockedUSD float64 `json:"totalValueLockedUSD"` // USD
	TxCount             int64   `json:"txCount"`

	// Optional fields. Nil means the indexer did not report them.
	TotalValueLockedUSDFirst *float64 `json:"totalValueLockedUSDFirst,omitempty"` // TVL at window start
	Open                     *float64 `json:"open,omitempty"`
	Close                    *float64 `json:"close,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.TotalValueLockedUSDFirst = cloneFloat(s.TotalValueLockedUSDFirst)
	c.Open = cloneFloat(s.Open)
	c.Close = cloneFloat(s.Close)
	return c
}

// TokenInfo describes a token.
type TokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// PoolInfo describes a pool and its two constituent tokens.
type PoolInfo struct {
	Address string    `json:"address"`
	Token0  TokenInfo `json:"token0"`
	Token1  TokenInfo `json:"token1"`
	Fee     int64     `json:"fee"` // fee tier in hundredths of a bip
}

// SnapshotSet is the fetcher's raw output for one id.
// Current and the descriptor are nil when the indexer returned nothing current.
type SnapshotSet struct {
	ID      string
	Kind    EntityKind
	Token   *TokenInfo
	Pool    *PoolInfo
	Current *Snapshot
	History map[Period]Snapshot
}

// PeriodSnapshot is one stored row of period data for an entity.
type PeriodSnapshot struct {
	Kind       EntityKind
	EntityID   string
	Period     Period
	Snapshot   Snapshot
	ComputedAt int64 // Unix timestamp in milliseconds
}

// CurrentSnapshot is one stored row of current data for an entity.
type CurrentSnapshot struct {
	Kind      EntityKind
	EntityID  string
	Token     *TokenInfo
	Pool      *PoolInfo
	Snapshot  Snapshot
	UpdatedAt int64 // Unix timestamp in milliseconds
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
