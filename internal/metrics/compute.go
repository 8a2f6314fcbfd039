package metrics

import (
	"math"

	"jediswap-analytics/internal/domain"
)

// daysPerYear is the compounding count used by Annualize.
const daysPerYear = 365

// clamp maps NaN and ±Inf to 0 so no degenerate value leaves this package.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// PercentChange returns (now - before) / before * 100.
// Returns 0 when before is zero or the result is not finite.
func PercentChange(now, before float64) float64 {
	if before == 0 {
		return 0
	}
	return clamp((now - before) / before * 100)
}

// TwoWindowChange compares the window ending one period ago with the
// window before it. Both inputs are cumulative totals as of one and two
// periods ago: the prior window accrued twoDays - oneDay.
// Returns 0 when the prior window is zero or not finite.
func TwoWindowChange(oneDay, twoDays float64) float64 {
	prior := twoDays - oneDay
	if prior == 0 || math.IsNaN(prior) || math.IsInf(prior, 0) {
		return 0
	}
	return clamp((oneDay - prior) / prior * 100)
}

// Annualize compounds a daily rate over a year and returns a percentage:
// ((1 + r)^365 - 1) * 100. Non-finite results are 0.
func Annualize(dailyRate float64) float64 {
	if math.IsNaN(dailyRate) || math.IsInf(dailyRate, 0) {
		return 0
	}
	return clamp((math.Pow(1+dailyRate, daysPerYear) - 1) * 100)
}

// DailyRate returns amount / base, or 0 when base is zero.
func DailyRate(amount, base float64) float64 {
	if base == 0 {
		return 0
	}
	return clamp(amount / base)
}

// ResolvePrice returns the close of the nearest historical snapshot that
// has a nonzero one, searched oneDay, twoDays, oneWeek, oneMonth.
// Returns nil and an empty period when none has a close.
func ResolvePrice(history map[domain.Period]domain.Snapshot) (*float64, domain.Period) {
	for _, p := range domain.HistoricalPeriods {
		s, ok := history[p]
		if !ok || s.Close == nil {
			continue
		}
		v := clamp(*s.Close)
		if v == 0 {
			// a zero close is no price; keep looking further back
			continue
		}
		return &v, p
	}
	return nil, ""
}

// valueAt returns the history value of field for period p, falling back to
// the current snapshot's value when the period is absent.
func valueAt(current domain.Snapshot, history map[domain.Period]domain.Snapshot, p domain.Period, field func(domain.Snapshot) float64) float64 {
	if s, ok := history[p]; ok {
		return field(s)
	}
	return field(current)
}

func volumeUSD(s domain.Snapshot) float64 { return s.VolumeUSD }
func feesUSD(s domain.Snapshot) float64   { return s.FeesUSD }
func tvlUSD(s domain.Snapshot) float64    { return s.TotalValueLockedUSD }
func txCount(s domain.Snapshot) float64   { return float64(s.TxCount) }
