package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"jediswap-analytics/internal/domain"
)

func printRecords(w io.Writer, records []*domain.EntityRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []*domain.EntityRecord{}
		}
		return enc.Encode(records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tID\tPRICE\tVOLUME 24H\tCHANGE\tLIQUIDITY\tCHANGE\tTXNS 24H")
	for _, rec := range records {
		d := rec.Derived
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Kind,
			rec.Name(),
			shortID(rec.ID),
			formatPrice(d.PriceUSD),
			formatUSD(d.OneDayVolumeUSD),
			formatPercent(d.VolumeChangeUSD),
			formatUSD(d.TotalLiquidityUSD),
			formatPercent(d.LiquidityChangeUSD),
			humanize.Comma(int64(d.OneDayTxns)),
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) <= 14 {
		return id
	}
	return id[:8] + ".." + id[len(id)-4:]
}

func formatUSD(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v < 1 {
		return fmt.Sprintf("$%.6f", *v)
	}
	return formatUSD(*v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
