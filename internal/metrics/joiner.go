package metrics

import (
	"errors"
	"fmt"

	"jediswap-analytics/internal/domain"
)

var (
	// ErrNoCurrent is returned when a snapshot set has no current snapshot.
	ErrNoCurrent = errors.New("snapshot set has no current snapshot")

	// ErrUnknownKind is returned when a snapshot set has an unsupported kind.
	ErrUnknownKind = errors.New("unknown entity kind")
)

// Joiner derives display metrics from snapshots. It holds no state
// besides the trend function and is safe for concurrent use.
type Joiner struct {
	Trend TrendFunc
}

// NewJoiner creates a joiner. A nil trend selects CumulativeTrend.
func NewJoiner(trend TrendFunc) Joiner {
	if trend == nil {
		trend = CumulativeTrend
	}
	return Joiner{Trend: trend}
}

func (j Joiner) trend(oneDay, twoDays float64) float64 {
	if j.Trend == nil {
		return CumulativeTrend(oneDay, twoDays)
	}
	return clamp(j.Trend(oneDay, twoDays))
}

// Join computes the kind-independent derived fields from one current
// snapshot and its historical snapshots. Missing periods fall back to
// the current value.
func (j Joiner) Join(current domain.Snapshot, history map[domain.Period]domain.Snapshot) domain.DerivedFields {
	at := func(p domain.Period, field func(domain.Snapshot) float64) float64 {
		return valueAt(current, history, p, field)
	}

	var d domain.DerivedFields

	d.OneDayVolumeUSD = clamp(at(domain.PeriodOneDay, volumeUSD))
	d.VolumeChangeUSD = j.trend(d.OneDayVolumeUSD, at(domain.PeriodTwoDays, volumeUSD))
	d.OneWeekVolumeUSD = clamp(at(domain.PeriodOneWeek, volumeUSD))

	d.OneDayFeesUSD = clamp(at(domain.PeriodOneDay, feesUSD))
	d.FeesChangeUSD = j.trend(d.OneDayFeesUSD, at(domain.PeriodTwoDays, feesUSD))

	d.OneDayTxns = at(domain.PeriodOneDay, txCount)
	d.TxnChange = j.trend(d.OneDayTxns, at(domain.PeriodTwoDays, txCount))

	d.TotalLiquidityUSD = clamp(current.TotalValueLockedUSD)
	if oneDay, ok := history[domain.PeriodOneDay]; ok && oneDay.TotalValueLockedUSDFirst != nil {
		d.LiquidityChangeUSD = PercentChange(oneDay.TotalValueLockedUSD, *oneDay.TotalValueLockedUSDFirst)
	} else {
		d.LiquidityChangeUSD = PercentChange(current.TotalValueLockedUSD, at(domain.PeriodOneDay, tvlUSD))
	}

	price, period := ResolvePrice(history)
	d.PriceUSD = price
	d.PricePeriod = period
	if price != nil {
		if open := history[period].Open; open != nil {
			d.PriceChangeUSD = PercentChange(*price, *open)
		}
	}

	return d
}

// Merge builds the full record for set, dispatching on its kind.
func (j Joiner) Merge(set *domain.SnapshotSet, fetchedAt int64) (*domain.EntityRecord, error) {
	if set == nil {
		return nil, ErrNoCurrent
	}
	switch set.Kind {
	case domain.KindToken:
		return j.MergeToken(set, fetchedAt)
	case domain.KindPool:
		return j.MergePool(set, fetchedAt)
	case domain.KindFactory:
		return j.MergeFactory(set, fetchedAt)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, set.Kind)
}

// MergeToken builds a token record. The token descriptor defaults to an
// address-only descriptor when the indexer omitted it.
func (j Joiner) MergeToken(set *domain.SnapshotSet, fetchedAt int64) (*domain.EntityRecord, error) {
	rec, err := j.base(set, fetchedAt)
	if err != nil {
		return nil, err
	}
	info := domain.TokenInfo{Address: set.ID}
	if set.Token != nil {
		info = *set.Token
		if info.Address == "" {
			info.Address = set.ID
		}
	}
	rec.Token = &info
	return rec, nil
}

// MergePool builds a pool record, including its annualized fee yield.
func (j Joiner) MergePool(set *domain.SnapshotSet, fetchedAt int64) (*domain.EntityRecord, error) {
	rec, err := j.base(set, fetchedAt)
	if err != nil {
		return nil, err
	}
	info := domain.PoolInfo{Address: set.ID}
	if set.Pool != nil {
		info = *set.Pool
		if info.Address == "" {
			info.Address = set.ID
		}
	}
	rec.Pool = &info
	rec.Derived.FeeAPY = Annualize(DailyRate(rec.Derived.OneDayFeesUSD, rec.Derived.TotalLiquidityUSD))
	return rec, nil
}

// MergeFactory builds the global factory record. Factories carry no
// price.
func (j Joiner) MergeFactory(set *domain.SnapshotSet, fetchedAt int64) (*domain.EntityRecord, error) {
	rec, err := j.base(set, fetchedAt)
	if err != nil {
		return nil, err
	}
	rec.Derived.PriceUSD = nil
	rec.Derived.PricePeriod = ""
	rec.Derived.PriceChangeUSD = 0
	return rec, nil
}

func (j Joiner) base(set *domain.SnapshotSet, fetchedAt int64) (*domain.EntityRecord, error) {
	if set.Current == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCurrent, set.ID)
	}
	current := set.Current.Clone()
	history := make(map[domain.Period]domain.Snapshot, len(set.History))
	for p, s := range set.History {
		if p.IsHistorical() {
			history[p] = s.Clone()
		}
	}
	return &domain.EntityRecord{
		ID:        set.ID,
		Kind:      set.Kind,
		Current:   current,
		History:   history,
		Derived:   j.Join(current, history),
		FetchedAt: fetchedAt,
	}, nil
}
