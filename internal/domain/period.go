package domain

import "fmt"

// Period names a snapshot point relative to now.
// Values are the wire labels used by the indexer.
type Period string

const (
	PeriodCurrent  Period = "current"
	PeriodOneDay   Period = "one_day"
	PeriodTwoDays  Period = "two_days"
	PeriodOneWeek  Period = "one_week"
	PeriodOneMonth Period = "one_month"
)

// HistoricalPeriods lists every non-current period, nearest first.
// Price resolution walks this order.
var HistoricalPeriods = []Period{PeriodOneDay, PeriodTwoDays, PeriodOneWeek, PeriodOneMonth}

// DefaultPeriods is the set requested when a caller does not name any.
var DefaultPeriods = []Period{PeriodOneDay, PeriodTwoDays, PeriodOneWeek}

// String returns the string representation of Period.
func (p Period) String() string {
	return string(p)
}

// IsValid checks if the period is a known value.
func (p Period) IsValid() bool {
	switch p {
	case PeriodCurrent, PeriodOneDay, PeriodTwoDays, PeriodOneWeek, PeriodOneMonth:
		return true
	}
	return false
}

// IsHistorical reports whether p is a valid period other than current.
func (p Period) IsHistorical() bool {
	return p.IsValid() && p != PeriodCurrent
}

// ParsePeriod accepts the wire label ("one_day") or the camelCase name ("oneDay").
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "current":
		return PeriodCurrent, nil
	case "one_day", "oneDay":
		return PeriodOneDay, nil
	case "two_days", "twoDays":
		return PeriodTwoDays, nil
	case "one_week", "oneWeek":
		return PeriodOneWeek, nil
	case "one_month", "oneMonth":
		return PeriodOneMonth, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// ParsePeriods parses a list of labels, dropping duplicates and current.
// An empty input yields DefaultPeriods.
func ParsePeriods(labels []string) ([]Period, error) {
	if len(labels) == 0 {
		return append([]Period(nil), DefaultPeriods...), nil
	}
	seen := make(map[Period]bool, len(labels))
	out := make([]Period, 0, len(labels))
	for _, l := range labels {
		p, err := ParsePeriod(l)
		if err != nil {
			return nil, err
		}
		if p == PeriodCurrent || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// PeriodStrings converts periods to their wire labels.
func PeriodStrings(periods []Period) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = string(p)
	}
	return out
}
