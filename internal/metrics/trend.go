package metrics

import "fmt"

// TrendFunc turns the oneDay and twoDays values of a field into a
// percent change.
type TrendFunc func(oneDay, twoDays float64) float64

// CumulativeTrend treats both inputs as cumulative totals. This is the
// formula the dashboard has always shown.
func CumulativeTrend(oneDay, twoDays float64) float64 {
	return TwoWindowChange(oneDay, twoDays)
}

// WindowedTrend treats both inputs as per-window figures and compares them
// directly.
func WindowedTrend(oneDay, twoDays float64) float64 {
	return PercentChange(oneDay, twoDays)
}

// Trend names accepted by TrendByName.
const (
	TrendCumulative = "cumulative"
	TrendWindowed   = "windowed"
)

// TrendByName returns the trend function registered under name.
// An empty name selects CumulativeTrend.
func TrendByName(name string) (TrendFunc, error) {
	switch name {
	case "", TrendCumulative:
		return CumulativeTrend, nil
	case TrendWindowed:
		return WindowedTrend, nil
	}
	return nil, fmt.Errorf("unknown trend function %q", name)
}
