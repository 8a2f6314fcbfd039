package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// RenderTokensCSV renders token rows as CSV string, in the given order.
func RenderTokensCSV(rows []EntityRow) string {
	header := []string{
		"id", "symbol", "price_usd", "price_change_pct",
		"volume_24h_usd", "volume_change_pct", "volume_7d_usd",
		"liquidity_usd", "liquidity_change_pct", "fees_24h_usd", "txns_24h",
	}
	return renderCSV(header, rows, func(r EntityRow) []string {
		p := ""
		if r.PriceUSD != nil {
			p = f6(*r.PriceUSD)
		}
		return []string{
			r.ID, r.Name, p, f6(r.PriceChangeUSD),
			f6(r.OneDayVolumeUSD), f6(r.VolumeChangeUSD), f6(r.OneWeekVolumeUSD),
			f6(r.TotalLiquidityUSD), f6(r.LiquidityChangeUSD), f6(r.OneDayFeesUSD), f6(r.OneDayTxns),
		}
	})
}

// RenderPoolsCSV renders pool rows as CSV string, in the given order.
func RenderPoolsCSV(rows []EntityRow) string {
	header := []string{
		"id", "pair", "volume_24h_usd", "volume_change_pct", "volume_7d_usd",
		"liquidity_usd", "liquidity_change_pct", "fees_24h_usd", "fee_apy_pct", "txns_24h",
	}
	return renderCSV(header, rows, func(r EntityRow) []string {
		return []string{
			r.ID, r.Name, f6(r.OneDayVolumeUSD), f6(r.VolumeChangeUSD), f6(r.OneWeekVolumeUSD),
			f6(r.TotalLiquidityUSD), f6(r.LiquidityChangeUSD), f6(r.OneDayFeesUSD), f6(r.FeeAPY), f6(r.OneDayTxns),
		}
	})
}

func renderCSV(header []string, rows []EntityRow, record func(EntityRow) []string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(header)
	for _, r := range rows {
		w.Write(record(r))
	}
	w.Flush()
	return sb.String()
}

func f6(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
