package domain

// DerivedFields are the display metrics computed from one
// (current, history) pair.
type DerivedFields struct {
	OneDayVolumeUSD    float64  `json:"oneDayVolumeUSD"`
	VolumeChangeUSD    float64  `json:"volumeChangeUSD"`
	OneWeekVolumeUSD   float64  `json:"oneWeekVolumeUSD"`
	TotalLiquidityUSD  float64  `json:"totalLiquidityUSD"`
	LiquidityChangeUSD float64  `json:"liquidityChangeUSD"`
	OneDayFeesUSD      float64  `json:"oneDayFeesUSD"`
	FeesChangeUSD      float64  `json:"feesChangeUSD"`
	OneDayTxns         float64  `json:"oneDayTxns"`
	TxnChange          float64  `json:"txnChange"`
	PriceUSD           *float64 `json:"priceUSD,omitempty"`
	PricePeriod        Period   `json:"pricePeriod,omitempty"`
	PriceChangeUSD     float64  `json:"priceChangeUSD"`
	FeeAPY             float64  `json:"feeAPY,omitempty"` // pools only
}

// EntityRecord is the cached, joined value for one id.
type EntityRecord struct {
	ID        string              `json:"id"`
	Kind      EntityKind          `json:"kind"`
	Token     *TokenInfo          `json:"token,omitempty"`
	Pool      *PoolInfo           `json:"pool,omitempty"`
	Current   Snapshot            `json:"current"`
	History   map[Period]Snapshot `json:"history"`
	Derived   DerivedFields       `json:"derived"`
	FetchedAt int64               `json:"fetchedAt"` // Unix timestamp in milliseconds
}

// Clone returns a deep copy of the record.
func (r *EntityRecord) Clone() *EntityRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Token != nil {
		t := *r.Token
		c.Token = &t
	}
	if r.Pool != nil {
		p := *r.Pool
		c.Pool = &p
	}
	c.Current = r.Current.Clone()
	c.History = make(map[Period]Snapshot, len(r.History))
	for p, s := range r.History {
		c.History[p] = s.Clone()
	}
	c.Derived.PriceUSD = cloneFloat(r.Derived.PriceUSD)
	return &c
}

// Name returns a human-readable label for the record.
func (r *EntityRecord) Name() string {
	switch {
	case r.Token != nil:
		return r.Token.Symbol
	case r.Pool != nil:
		return r.Pool.Token0.Symbol + "-" + r.Pool.Token1.Symbol
	}
	return r.ID
}
