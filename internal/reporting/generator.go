package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/search"
	"jediswap-analytics/internal/storage"
)

// DefaultLimit caps the token and pool tables.
const DefaultLimit = 25

// Output file names written by WriteFiles.
const (
	OverviewFile = "overview.md"
	TokensFile   = "tokens.csv"
	PoolsFile    = "pools.csv"
)

// Generator produces overviews from cached records.
type Generator struct {
	tokens    storage.EntityReader
	pools     storage.EntityReader
	factories storage.EntityReader
	limit     int
	movers    int
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. Any reader may be nil.
func NewGenerator(tokens, pools, factories storage.EntityReader) *Generator {
	return &Generator{
		tokens:    tokens,
		pools:     pools,
		factories: factories,
		limit:     DefaultLimit,
		movers:    5,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithLimit sets the number of rows per table. Zero means no cap.
func (g *Generator) WithLimit(n int) *Generator {
	if n >= 0 {
		g.limit = n
	}
	return g
}

// Generate builds an overview from the current cache contents.
func (g *Generator) Generate() *Overview {
	o := &Overview{GeneratedAt: g.now()}

	if g.factories != nil {
		if list := g.factories.List(); len(list) > 0 {
			o.Global = globalSummary(list[0])
		}
	}

	tokens := ranked(g.tokens)
	o.Tokens = rows(tokens, g.limit)
	o.Pools = rows(ranked(g.pools), g.limit)
	o.Movers = movers(tokens, g.movers)
	return o
}

// WriteFiles renders o into dir as overview.md, tokens.csv and pools.csv.
func WriteFiles(dir string, o *Overview) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		OverviewFile: RenderMarkdown(o),
		TokensFile:   RenderTokensCSV(o.Tokens),
		PoolsFile:    RenderPoolsCSV(o.Pools),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func ranked(r storage.EntityReader) []*domain.EntityRecord {
	if r == nil {
		return nil
	}
	list := r.List()
	search.Rank(list)
	return list
}

func rows(records []*domain.EntityRecord, limit int) []EntityRow {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]EntityRow, 0, len(records))
	for _, rec := range records {
		out = append(out, entityRow(rec))
	}
	return out
}

// movers picks the n tokens with a price and the largest absolute price change.
func movers(records []*domain.EntityRecord, n int) []EntityRow {
	var priced []*domain.EntityRecord
	for _, rec := range records {
		if rec.Derived.PriceUSD != nil && rec.Derived.PriceChangeUSD != 0 {
			priced = append(priced, rec)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		return math.Abs(priced[i].Derived.PriceChangeUSD) > math.Abs(priced[j].Derived.PriceChangeUSD)
	})
	return rows(priced, n)
}

func entityRow(rec *domain.EntityRecord) EntityRow {
	d := rec.Derived
	return EntityRow{
		ID:                 rec.ID,
		Name:               rec.Name(),
		PriceUSD:           d.PriceUSD,
		PriceChangeUSD:     d.PriceChangeUSD,
		OneDayVolumeUSD:    d.OneDayVolumeUSD,
		VolumeChangeUSD:    d.VolumeChangeUSD,
		OneWeekVolumeUSD:   d.OneWeekVolumeUSD,
		TotalLiquidityUSD:  d.TotalLiquidityUSD,
		LiquidityChangeUSD: d.LiquidityChangeUSD,
		OneDayFeesUSD:      d.OneDayFeesUSD,
		FeeAPY:             d.FeeAPY,
		OneDayTxns:         d.OneDayTxns,
	}
}

func globalSummary(rec *domain.EntityRecord) *GlobalSummary {
	d := rec.Derived
	return &GlobalSummary{
		ID:                 rec.ID,
		OneDayVolumeUSD:    d.OneDayVolumeUSD,
		VolumeChangeUSD:    d.VolumeChangeUSD,
		TotalLiquidityUSD:  d.TotalLiquidityUSD,
		LiquidityChangeUSD: d.LiquidityChangeUSD,
		OneDayFeesUSD:      d.OneDayFeesUSD,
		OneDayTxns:         d.OneDayTxns,
		TxnChange:          d.TxnChange,
	}
}
