package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jediswap-analytics/internal/config"
	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/fixtures"
)

func TestPrintRecords_Text(t *testing.T) {
	price := 2400.5
	rec := &domain.EntityRecord{
		ID:    fixtures.ETH,
		Kind:  domain.KindToken,
		Token: &domain.TokenInfo{Address: fixtures.ETH, Symbol: "ETH"},
		Derived: domain.DerivedFields{
			PriceUSD:          &price,
			OneDayVolumeUSD:   1234567.891,
			VolumeChangeUSD:   -3.5,
			TotalLiquidityUSD: 1000,
			OneDayTxns:        9410,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printRecords(&buf, []*domain.EntityRecord{rec}, false))
	out := buf.String()

	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "0x049d36..4dc7")
	assert.Contains(t, out, "$2,400.5")
	assert.Contains(t, out, "$1,234,567.89")
	assert.Contains(t, out, "-3.50%")
	assert.Contains(t, out, "9,410")
}

func TestPrintRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRecords(&buf, nil, false))
	assert.Equal(t, "no results\n", buf.String())

	buf.Reset()
	require.NoError(t, printRecords(&buf, nil, true))
	var decoded []any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Empty(t, decoded)
}

func TestFormatPrice(t *testing.T) {
	small := 0.61234567
	assert.Equal(t, "-", formatPrice(nil))
	assert.Equal(t, "$0.612346", formatPrice(&small))
}

func TestFactoryID(t *testing.T) {
	cfg := config.Default()

	id, err := factoryID(cfg, []string{"0xabc"})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", id)

	_, err = factoryID(cfg, nil)
	assert.Error(t, err)

	cfg.Source = config.SourceMemory
	id, err = factoryID(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, fixtures.Factory, id)

	cfg.Refresh.Factories = []string{"0xfac"}
	id, err = factoryID(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "0xfac", id)
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCommand().Commands() {
		names = append(names, c.Name())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"token", "pool", "global", "search", "migrate", "seed"} {
		assert.Contains(t, joined, want)
	}
}

func TestTokenCommand_MemorySource(t *testing.T) {
	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--source", "memory", "--json", "token", fixtures.ETH})
	require.NoError(t, cmd.Execute())

	var records []domain.EntityRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, fixtures.ETH, records[0].ID)
	assert.Equal(t, "ETH", records[0].Token.Symbol)
}
