package snapshot

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"jediswap-analytics/internal/domain"
)

// Upstream schema. Numeric fields arrive as decimal strings (or numbers)
// and may be missing or null; decodeSnapshot is the only place that turns
// them into domain values.

type rawTokenRef struct {
	TokenAddress string `json:"tokenAddress"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
}

type rawToken struct {
	rawTokenRef
	rawSnapshot
}

type rawPool struct {
	PoolAddress string              `json:"poolAddress"`
	Token0      *rawTokenRef        `json:"token0"`
	Token1      *rawTokenRef        `json:"token1"`
	Fee         decimal.NullDecimal `json:"fee"`
	rawSnapshot
}

type rawFactory struct {
	FactoryAddress      string              `json:"factoryAddress"`
	TotalVolumeUSD      decimal.NullDecimal `json:"totalVolumeUSD"`
	TotalFeesUSD        decimal.NullDecimal `json:"totalFeesUSD"`
	TotalValueLockedUSD decimal.NullDecimal `json:"totalValueLockedUSD"`
	TxCount             decimal.NullDecimal `json:"txCount"`
}

type rawSnapshot struct {
	VolumeUSD                decimal.NullDecimal `json:"volumeUSD"`
	FeesUSD                  decimal.NullDecimal `json:"feesUSD"`
	TotalValueLocked         decimal.NullDecimal `json:"totalValueLocked"`
	TotalValueLockedUSD      decimal.NullDecimal `json:"totalValueLockedUSD"`
	TotalValueLockedUSDFirst decimal.NullDecimal `json:"totalValueLockedUSDFirst"`
	TxCount                  decimal.NullDecimal `json:"txCount"`
	Open                     decimal.NullDecimal `json:"open"`
	Close                    decimal.NullDecimal `json:"close"`
}

// rawPeriods is the period map keyed by wire label. Unknown labels are
// ignored.
type rawPeriods map[string]*rawSnapshot

type tokenRow struct {
	Token  *rawToken  `json:"token"`
	Period rawPeriods `json:"period"`
}

type poolRow struct {
	Pool   *rawPool   `json:"pool"`
	Period rawPeriods `json:"period"`
}

type factoryRow struct {
	Factory *rawFactory `json:"factory"`
	Period  rawPeriods  `json:"period"`
}

func num(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.InexactFloat64()
}

func optNum(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

func count(d decimal.NullDecimal) int64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.IntPart()
}

// decodeSnapshot applies the missing → default rules: numbers default to
// zero, optional fields stay nil.
func decodeSnapshot(r *rawSnapshot) domain.Snapshot {
	if r == nil {
		return domain.Snapshot{}
	}
	return domain.Snapshot{
		VolumeUSD:                num(r.VolumeUSD),
		FeesUSD:                  num(r.FeesUSD),
		TotalValueLocked:         num(r.TotalValueLocked),
		TotalValueLockedUSD:      num(r.TotalValueLockedUSD),
		TxCount:                  count(r.TxCount),
		TotalValueLockedUSDFirst: optNum(r.TotalValueLockedUSDFirst),
		Open:                     optNum(r.Open),
		Close:                    optNum(r.Close),
	}
}

func decodeHistory(periods rawPeriods, wanted []domain.Period) map[domain.Period]domain.Snapshot {
	history := make(map[domain.Period]domain.Snapshot, len(wanted))
	for _, p := range wanted {
		raw, ok := periods[string(p)]
		if !ok || raw == nil {
			continue
		}
		history[p] = decodeSnapshot(raw)
	}
	return history
}

func decodeTokenRef(r *rawTokenRef) domain.TokenInfo {
	if r == nil {
		return domain.TokenInfo{}
	}
	return domain.TokenInfo{Address: r.TokenAddress, Name: r.Name, Symbol: r.Symbol}
}

func (r tokenRow) decode(wanted []domain.Period) *domain.SnapshotSet {
	if r.Token == nil || r.Token.TokenAddress == "" {
		return nil
	}
	info := decodeTokenRef(&r.Token.rawTokenRef)
	current := decodeSnapshot(&r.Token.rawSnapshot)
	return &domain.SnapshotSet{
		ID:      r.Token.TokenAddress,
		Kind:    domain.KindToken,
		Token:   &info,
		Current: &current,
		History: decodeHistory(r.Period, wanted),
	}
}

func (r poolRow) decode(wanted []domain.Period) *domain.SnapshotSet {
	if r.Pool == nil || r.Pool.PoolAddress == "" {
		return nil
	}
	info := domain.PoolInfo{
		Address: r.Pool.PoolAddress,
		Token0:  decodeTokenRef(r.Pool.Token0),
		Token1:  decodeTokenRef(r.Pool.Token1),
		Fee:     count(r.Pool.Fee),
	}
	current := decodeSnapshot(&r.Pool.rawSnapshot)
	return &domain.SnapshotSet{
		ID:      r.Pool.PoolAddress,
		Kind:    domain.KindPool,
		Pool:    &info,
		Current: &current,
		History: decodeHistory(r.Period, wanted),
	}
}

func (r factoryRow) decode(wanted []domain.Period) *domain.SnapshotSet {
	if r.Factory == nil || r.Factory.FactoryAddress == "" {
		return nil
	}
	current := domain.Snapshot{
		VolumeUSD:           num(r.Factory.TotalVolumeUSD),
		FeesUSD:             num(r.Factory.TotalFeesUSD),
		TotalValueLockedUSD: num(r.Factory.TotalValueLockedUSD),
		TxCount:             count(r.Factory.TxCount),
	}
	return &domain.SnapshotSet{
		ID:      r.Factory.FactoryAddress,
		Kind:    domain.KindFactory,
		Current: &current,
		History: decodeHistory(r.Period, wanted),
	}
}

// decodeRows decodes a JSON array of rows of the given kind.
func decodeRows(kind domain.EntityKind, data json.RawMessage, wanted []domain.Period) ([]*domain.SnapshotSet, error) {
	var sets []*domain.SnapshotSet
	add := func(s *domain.SnapshotSet) {
		if s != nil {
			sets = append(sets, s)
		}
	}

	switch kind {
	case domain.KindToken:
		var rows []tokenRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			add(r.decode(wanted))
		}
	case domain.KindPool:
		var rows []poolRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			add(r.decode(wanted))
		}
	case domain.KindFactory:
		var rows []factoryRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			add(r.decode(wanted))
		}
	}
	return sets, nil
}
