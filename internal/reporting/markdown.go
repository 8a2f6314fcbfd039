package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// RenderMarkdown renders an overview as Markdown string.
func RenderMarkdown(o *Overview) string {
	var sb strings.Builder

	sb.WriteString("# JediSwap Overview\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", o.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Tokens: %d | Pools: %d\n\n", len(o.Tokens), len(o.Pools)))

	// Global
	sb.WriteString("## Global\n\n")
	if g := o.Global; g != nil {
		sb.WriteString("| Metric | Value | Change |\n")
		sb.WriteString("|--------|-------|--------|\n")
		sb.WriteString(fmt.Sprintf("| Volume (24h) | %s | %s |\n", money(g.OneDayVolumeUSD), percent(g.VolumeChangeUSD)))
		sb.WriteString(fmt.Sprintf("| Liquidity | %s | %s |\n", money(g.TotalLiquidityUSD), percent(g.LiquidityChangeUSD)))
		sb.WriteString(fmt.Sprintf("| Fees (24h) | %s | |\n", money(g.OneDayFeesUSD)))
		sb.WriteString(fmt.Sprintf("| Transactions (24h) | %s | %s |\n", humanize.Comma(int64(g.OneDayTxns)), percent(g.TxnChange)))
	} else {
		sb.WriteString("No global data available.\n")
	}
	sb.WriteString("\n")

	// Top tokens
	sb.WriteString("## Top Tokens\n\n")
	if len(o.Tokens) > 0 {
		sb.WriteString("| # | Token | Price | Price Δ | Volume (24h) | Volume Δ | Liquidity | Liquidity Δ |\n")
		sb.WriteString("|---|-------|-------|---------|--------------|----------|-----------|-------------|\n")
		for i, r := range o.Tokens {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				i+1, r.Name, price(r.PriceUSD), percent(r.PriceChangeUSD),
				money(r.OneDayVolumeUSD), percent(r.VolumeChangeUSD),
				money(r.TotalLiquidityUSD), percent(r.LiquidityChangeUSD)))
		}
	} else {
		sb.WriteString("No tokens tracked.\n")
	}
	sb.WriteString("\n")

	// Top pools
	sb.WriteString("## Top Pools\n\n")
	if len(o.Pools) > 0 {
		sb.WriteString("| # | Pool | Volume (24h) | Volume (7d) | Liquidity | Fees (24h) | Fee APY |\n")
		sb.WriteString("|---|------|--------------|-------------|-----------|------------|---------|\n")
		for i, r := range o.Pools {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %.2f%% |\n",
				i+1, r.Name, money(r.OneDayVolumeUSD), money(r.OneWeekVolumeUSD),
				money(r.TotalLiquidityUSD), money(r.OneDayFeesUSD), r.FeeAPY))
		}
	} else {
		sb.WriteString("No pools tracked.\n")
	}
	sb.WriteString("\n")

	// Movers
	if len(o.Movers) > 0 {
		sb.WriteString("## Price Movers\n\n")
		for _, r := range o.Movers {
			sb.WriteString(fmt.Sprintf("- **%s** %s (%s)\n", r.Name, price(r.PriceUSD), percent(r.PriceChangeUSD)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func money(v float64) string {
	if v < 0 {
		return "-$" + humanize.CommafWithDigits(-v, 2)
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v < 1 {
		return fmt.Sprintf("$%.6f", *v)
	}
	return money(*v)
}

func percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
