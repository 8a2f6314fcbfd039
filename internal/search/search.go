// Package search filters and ranks cached entities for interactive lookup.
package search

import (
	"regexp"
	"sort"
	"strings"

	"jediswap-analytics/internal/domain"
)

// Options tune a search.
type Options struct {
	allow map[string]bool
	limit int
}

// Option configures a search.
type Option func(*Options)

// WithAllowList restricts token results to ids in allowed, and pool
// results to pools whose two tokens are both allowed. Factories are not
// filtered. A nil or empty list allows everything.
func WithAllowList(allowed []string) Option {
	return func(o *Options) {
		if len(allowed) == 0 {
			o.allow = nil
			return
		}
		o.allow = make(map[string]bool, len(allowed))
		for _, id := range allowed {
			o.allow[strings.ToLower(id)] = true
		}
	}
}

func (o *Options) allowed(rec *domain.EntityRecord) bool {
	if o.allow == nil {
		return true
	}
	switch {
	case rec.Kind == domain.KindToken:
		return o.allow[strings.ToLower(rec.ID)]
	case rec.Kind == domain.KindPool && rec.Pool != nil:
		return o.allow[strings.ToLower(rec.Pool.Token0.Address)] && o.allow[strings.ToLower(rec.Pool.Token1.Address)]
	}
	return true
}

// WithLimit caps the number of results. Zero means no cap.
func WithLimit(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.limit = n
		}
	}
}

// Query is a parsed search string.
type Query struct {
	Raw     string
	Address bool   // starts with 0x
	Pair    bool   // contains a space or "-"
	Left    string // first half of a pair query
	Right   string // second half of a pair query

	re *regexp.Regexp
}

// ParseQuery classifies raw text into address, pair or free-text mode.
func ParseQuery(raw string) Query {
	text := strings.TrimSpace(raw)
	q := Query{Raw: text}
	if text == "" {
		return q
	}
	if strings.HasPrefix(strings.ToLower(text), "0x") {
		q.Address = true
		return q
	}
	q.re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(text))

	if i := strings.IndexAny(text, " -"); i >= 0 {
		q.Pair = true
		q.Left = strings.ToUpper(strings.TrimSpace(text[:i]))
		q.Right = strings.ToUpper(strings.TrimSpace(strings.TrimLeft(text[i:], " -")))
	}
	return q
}

// Empty reports whether the query matches everything.
func (q Query) Empty() bool {
	return q.Raw == ""
}

// Match reports whether rec satisfies q.
func (q Query) Match(rec *domain.EntityRecord) bool {
	if q.Empty() {
		return true
	}
	if q.Address {
		return strings.Contains(strings.ToLower(rec.ID), strings.ToLower(q.Raw))
	}

	switch {
	case rec.Token != nil:
		return q.re.MatchString(rec.Token.Symbol) || q.re.MatchString(rec.Token.Name)
	case rec.Pool != nil:
		if q.Pair {
			return pairMatch(q.Left, q.Right, rec.Pool.Token0.Symbol, rec.Pool.Token1.Symbol)
		}
		return matchToken(q.re, rec.Pool.Token0) || matchToken(q.re, rec.Pool.Token1)
	}
	return q.re.MatchString(rec.ID)
}

func matchToken(re *regexp.Regexp, t domain.TokenInfo) bool {
	return re.MatchString(t.Symbol) || re.MatchString(t.Name)
}

// pairMatch reports whether the two halves each match one side of the pool,
// in either order. An empty half matches any side.
func pairMatch(left, right, sym0, sym1 string) bool {
	sym0 = strings.ToUpper(sym0)
	sym1 = strings.ToUpper(sym1)
	has := func(sym, half string) bool {
		return half == "" || strings.Contains(sym, half)
	}
	return (has(sym0, left) && has(sym1, right)) || (has(sym0, right) && has(sym1, left))
}

// Search returns the records of universe and searched that match query,
// deduplicated by id (first occurrence wins, universe first) and ranked.
func Search(query string, universe []*domain.EntityRecord, searched []*domain.EntityRecord, opts ...Option) []*domain.EntityRecord {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	q := ParseQuery(query)

	candidates := Dedupe(universe, searched)
	matches := make([]*domain.EntityRecord, 0, len(candidates))
	for _, rec := range candidates {
		if !o.allowed(rec) {
			continue
		}
		if q.Match(rec) {
			matches = append(matches, rec)
		}
	}

	Rank(matches)
	if o.limit > 0 && len(matches) > o.limit {
		matches = matches[:o.limit]
	}
	return matches
}

// Dedupe concatenates sets keeping the first record seen for each id.
func Dedupe(sets ...[]*domain.EntityRecord) []*domain.EntityRecord {
	seen := make(map[string]bool)
	var out []*domain.EntityRecord
	for _, set := range sets {
		for _, rec := range set {
			if rec == nil || seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			out = append(out, rec)
		}
	}
	return out
}

// Rank orders records in place: those with one-day volume first by volume
// descending, then the rest by total liquidity descending. Ties keep their
// input order.
func Rank(records []*domain.EntityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Derived, records[j].Derived
		aHas, bHas := a.OneDayVolumeUSD > 0, b.OneDayVolumeUSD > 0
		if aHas != bHas {
			return aHas
		}
		if aHas {
			return a.OneDayVolumeUSD > b.OneDayVolumeUSD
		}
		return a.TotalLiquidityUSD > b.TotalLiquidityUSD
	})
}
