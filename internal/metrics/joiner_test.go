package metrics

import (
	"errors"
	"math"
	"testing"

	"jediswap-analytics/internal/domain"
)

func TestJoin_FallbackToCurrent(t *testing.T) {
	j := NewJoiner(nil)
	current := domain.Snapshot{VolumeUSD: 500, FeesUSD: 5, TotalValueLockedUSD: 900}

	d := j.Join(current, map[domain.Period]domain.Snapshot{})

	if d.OneDayVolumeUSD != 500 {
		t.Errorf("expected oneDayVolumeUSD 500, got %f", d.OneDayVolumeUSD)
	}
	if d.OneWeekVolumeUSD != 500 {
		t.Errorf("expected oneWeekVolumeUSD 500, got %f", d.OneWeekVolumeUSD)
	}
	if d.OneDayFeesUSD != 5 {
		t.Errorf("expected oneDayFeesUSD 5, got %f", d.OneDayFeesUSD)
	}
	// prior window is zero when both periods fall back to current
	if d.VolumeChangeUSD != 0 {
		t.Errorf("expected volumeChangeUSD 0, got %f", d.VolumeChangeUSD)
	}
	if d.LiquidityChangeUSD != 0 {
		t.Errorf("expected liquidityChangeUSD 0, got %f", d.LiquidityChangeUSD)
	}
	if d.PriceUSD != nil {
		t.Errorf("expected undefined price, got %f", *d.PriceUSD)
	}
}

func TestJoin_TwoPeriodVolumeChange(t *testing.T) {
	j := NewJoiner(nil)
	current := domain.Snapshot{VolumeUSD: 1000}
	history := map[domain.Period]domain.Snapshot{
		domain.PeriodOneDay:  {VolumeUSD: 700},
		domain.PeriodTwoDays: {VolumeUSD: 400},
	}

	d := j.Join(current, history)

	if d.OneDayVolumeUSD != 700 {
		t.Errorf("expected oneDayVolumeUSD 700, got %f", d.OneDayVolumeUSD)
	}
	want := -1000.0 / 3.0
	if math.Abs(d.VolumeChangeUSD-want) > epsilon {
		t.Errorf("expected volumeChangeUSD %f, got %f", want, d.VolumeChangeUSD)
	}
	if math.Round(d.VolumeChangeUSD*100)/100 != -333.33 {
		t.Errorf("expected -333.33 after rounding, got %f", d.VolumeChangeUSD)
	}
}

func TestJoin_WindowedTrend(t *testing.T) {
	j := NewJoiner(WindowedTrend)
	history := map[domain.Period]domain.Snapshot{
		domain.PeriodOneDay:  {VolumeUSD: 700},
		domain.PeriodTwoDays: {VolumeUSD: 400},
	}

	d := j.Join(domain.Snapshot{VolumeUSD: 1000}, history)

	if d.VolumeChangeUSD != 75 {
		t.Errorf("expected volumeChangeUSD 75, got %f", d.VolumeChangeUSD)
	}
}

func TestJoin_LiquidityChange(t *testing.T) {
	j := NewJoiner(nil)

	// window-start TVL reported by the indexer wins
	d := j.Join(domain.Snapshot{TotalValueLockedUSD: 300}, map[domain.Period]domain.Snapshot{
		domain.PeriodOneDay: {TotalValueLockedUSD: 200, TotalValueLockedUSDFirst: domain.Float(100)},
	})
	if d.LiquidityChangeUSD != 100 {
		t.Errorf("expected liquidityChangeUSD 100, got %f", d.LiquidityChangeUSD)
	}
	if d.TotalLiquidityUSD != 300 {
		t.Errorf("expected totalLiquidityUSD 300, got %f", d.TotalLiquidityUSD)
	}

	// otherwise current is compared against one day ago
	d = j.Join(domain.Snapshot{TotalValueLockedUSD: 300}, map[domain.Period]domain.Snapshot{
		domain.PeriodOneDay: {TotalValueLockedUSD: 200},
	})
	if d.LiquidityChangeUSD != 50 {
		t.Errorf("expected liquidityChangeUSD 50, got %f", d.LiquidityChangeUSD)
	}
}

func TestJoin_PriceChange(t *testing.T) {
	j := NewJoiner(nil)
	history := map[domain.Period]domain.Snapshot{
		domain.PeriodOneDay: {Open: domain.Float(2), Close: domain.Float(3)},
	}

	d := j.Join(domain.Snapshot{}, history)

	if d.PriceUSD == nil || *d.PriceUSD != 3 {
		t.Fatalf("expected price 3, got %v", d.PriceUSD)
	}
	if d.PriceChangeUSD != 50 {
		t.Errorf("expected priceChangeUSD 50, got %f", d.PriceChangeUSD)
	}
	if d.PricePeriod != domain.PeriodOneDay {
		t.Errorf("expected price period one_day, got %s", d.PricePeriod)
	}
}

func TestJoin_DegenerateTrendClamped(t *testing.T) {
	j := NewJoiner(func(_, _ float64) float64 { return math.Inf(-1) })

	d := j.Join(domain.Snapshot{VolumeUSD: 1}, nil)

	if d.VolumeChangeUSD != 0 {
		t.Errorf("expected clamped 0, got %f", d.VolumeChangeUSD)
	}
}

func TestMerge_NoCurrent(t *testing.T) {
	j := NewJoiner(nil)
	_, err := j.Merge(&domain.SnapshotSet{ID: "0xabc", Kind: domain.KindToken}, 1)
	if !errors.Is(err, ErrNoCurrent) {
		t.Errorf("expected ErrNoCurrent, got %v", err)
	}
}

func TestMerge_UnknownKind(t *testing.T) {
	j := NewJoiner(nil)
	_, err := j.Merge(&domain.SnapshotSet{ID: "0xabc", Kind: "wallet", Current: &domain.Snapshot{}}, 1)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestMergeToken_DefaultDescriptor(t *testing.T) {
	j := NewJoiner(nil)
	rec, err := j.MergeToken(&domain.SnapshotSet{
		ID:      "0xaaa",
		Kind:    domain.KindToken,
		Current: &domain.Snapshot{VolumeUSD: 10},
	}, 1700000000000)
	if err != nil {
		t.Fatalf("MergeToken failed: %v", err)
	}
	if rec.Token == nil || rec.Token.Address != "0xaaa" {
		t.Errorf("expected address-only descriptor, got %+v", rec.Token)
	}
	if rec.FetchedAt != 1700000000000 {
		t.Errorf("expected fetchedAt to be kept, got %d", rec.FetchedAt)
	}
	if rec.History == nil {
		t.Error("expected non-nil history map")
	}
}

func TestMergePool_FeeAPY(t *testing.T) {
	j := NewJoiner(nil)
	rec, err := j.MergePool(&domain.SnapshotSet{
		ID:      "0xpool",
		Kind:    domain.KindPool,
		Pool:    &domain.PoolInfo{Token0: domain.TokenInfo{Symbol: "ETH"}, Token1: domain.TokenInfo{Symbol: "USDC"}},
		Current: &domain.Snapshot{TotalValueLockedUSD: 1000},
		History: map[domain.Period]domain.Snapshot{
			domain.PeriodOneDay: {FeesUSD: 1},
		},
	}, 1)
	if err != nil {
		t.Fatalf("MergePool failed: %v", err)
	}
	want := (math.Pow(1.001, 365) - 1) * 100
	if math.Abs(rec.Derived.FeeAPY-want) > epsilon {
		t.Errorf("expected feeAPY %f, got %f", want, rec.Derived.FeeAPY)
	}
	if rec.Pool.Address != "0xpool" {
		t.Errorf("expected pool address to default to id, got %s", rec.Pool.Address)
	}
}

func TestMergePool_EmptyReserve(t *testing.T) {
	j := NewJoiner(nil)
	rec, err := j.MergePool(&domain.SnapshotSet{
		ID:      "0xpool",
		Kind:    domain.KindPool,
		Current: &domain.Snapshot{FeesUSD: 10},
	}, 1)
	if err != nil {
		t.Fatalf("MergePool failed: %v", err)
	}
	if rec.Derived.FeeAPY != 0 {
		t.Errorf("expected feeAPY 0 for empty reserve, got %f", rec.Derived.FeeAPY)
	}
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	j := NewJoiner(nil)
	set := &domain.SnapshotSet{
		ID:      "0xaaa",
		Kind:    domain.KindToken,
		Current: &domain.Snapshot{Close: domain.Float(1)},
		History: map[domain.Period]domain.Snapshot{domain.PeriodOneDay: {Close: domain.Float(2)}},
	}
	rec, err := j.Merge(set, 1)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	*set.Current.Close = 99
	set.History[domain.PeriodTwoDays] = domain.Snapshot{}

	if *rec.Current.Close != 1 {
		t.Errorf("record current aliased input")
	}
	if _, ok := rec.History[domain.PeriodTwoDays]; ok {
		t.Errorf("record history aliased input")
	}
}

func TestMergeFactory_NoPrice(t *testing.T) {
	j := NewJoiner(nil)
	rec, err := j.MergeFactory(&domain.SnapshotSet{
		ID:      "0xfactory",
		Kind:    domain.KindFactory,
		Current: &domain.Snapshot{VolumeUSD: 10, TotalValueLockedUSD: 20},
		History: map[domain.Period]domain.Snapshot{domain.PeriodOneDay: {Close: domain.Float(5)}},
	}, 1)
	if err != nil {
		t.Fatalf("MergeFactory failed: %v", err)
	}
	if rec.Derived.PriceUSD != nil {
		t.Errorf("expected no price on factory record")
	}
	if rec.Derived.TotalLiquidityUSD != 20 {
		t.Errorf("expected totalLiquidityUSD 20, got %f", rec.Derived.TotalLiquidityUSD)
	}
}
