package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nekouibeam/investment-agent/internal/models"
)

func fullSnapshot() *models.StockSnapshot {
	return &models.StockSnapshot{
		Symbol:  "NVDA",
		Quote:   &models.Quote{Symbol: "NVDA", Price: 180, Change: 2, ChangePercent: 1.12, Open: 178, High: 181, Low: 177, PreClose: 178},
		Profile: &models.CompanyProfile{Name: "NVIDIA Corp", Exchange: "NASDAQ", Industry: "Semiconductors", Currency: "USD", MarketCap: 4400000},
		Metrics: map[string]float64{
			"peTTM":                         52.3,
			"forwardPE":                     31.4,
			"pegTTM":                        1.2,
			"evEbitdaTTM":                   44.8,
			"enterpriseValue":               4350000,
			"currentEv/freeCashFlowTTM":     60.1,
			"grossMarginTTM":                75.1,
			"cashPerSharePerShareQuarterly": 2.5,
			"netDebtQuarterly":              -45000,
			"4WeekPriceReturnDaily":         8.2,
			"monthToDatePriceReturnDaily":   3.1,
			"26WeekPriceReturnDaily":        35.5,
			"52WeekHigh":                    195.6,
		},
		Target:          &models.PriceTarget{Mean: 216, Median: 220, High: 250, Low: 140, UpdatedAt: "2026-10-01"},
		Recommendations: []models.Recommendation{{Period: "2026-10-01", StrongBuy: 20, Buy: 35, Hold: 6, Sell: 1}},
		Candles: []models.KLineData{
			{Time: "2026-10-06", Close: 170}, {Time: "2026-10-07", Close: 171}, {Time: "2026-10-08", Close: 172},
			{Time: "2026-10-09", Close: 173}, {Time: "2026-10-10", Close: 174}, {Time: "2026-10-13", Close: 175},
		},
	}
}

func TestFormatSnapshotSections(t *testing.T) {
	out := FormatSnapshot(fullSnapshot())

	for _, section := range []string{"--- VALUATION ---", "--- FINANCIALS ---", "--- ANALYST ESTIMATES ---", "--- PRICE PERFORMANCE ---", "--- RECENT PRICE DATA (last 5 sessions) ---"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "=== NVDA | NVIDIA Corp (NASDAQ, Semiconductors) ===")
	assert.Contains(t, out, "Market Cap: 4.40T")
	assert.Contains(t, out, "P/E (TTM): 52.30")
	assert.Contains(t, out, "Forward P/E: 31.40")
	assert.Contains(t, out, "PEG (TTM): 1.20")
	assert.Contains(t, out, "EV/EBITDA (TTM): 44.80")
	assert.Contains(t, out, "Enterprise Value: 4.35T")
	assert.Contains(t, out, "EV/FCF (TTM): 60.10")
	assert.Contains(t, out, "Cash per Share: 2.50")
	assert.Contains(t, out, "Net Debt: -45.00B")
	assert.Contains(t, out, "1M Return: 8.20%")
	assert.Contains(t, out, "Gross Margin: 75.10%")
	assert.Contains(t, out, "6M Return: 35.50%")
	assert.Contains(t, out, "Implied Upside (mean): +20.0%")
	assert.Contains(t, out, "Strong Buy 20, Buy 35")
	assert.NotContains(t, out, "2026-10-06", "only the last five sessions are listed")
	assert.Contains(t, out, "2026-10-13")
}

func TestFormatSnapshotDegradesMissingSections(t *testing.T) {
	s := &models.StockSnapshot{
		Symbol: "XYZ",
		Quote:  &models.Quote{Price: 10},
		Missing: map[string]string{
			SectionMetrics: "403 Forbidden",
			SectionCandles: "You don't have access to this resource.",
		},
	}
	out := FormatSnapshot(s)
	assert.Contains(t, out, "=== XYZ ===")
	assert.Contains(t, out, "n/a (403 Forbidden)")
	assert.Contains(t, out, "Target Price: n/a")
	assert.Contains(t, out, "n/a (You don't have access to this resource.)")
}

func TestFormatMillions(t *testing.T) {
	assert.Equal(t, "1.50T", formatMillions(1.5e6))
	assert.Equal(t, "2.50B", formatMillions(2500))
	assert.Equal(t, "12.00M", formatMillions(12))
	assert.Equal(t, "-45.00B", formatMillions(-45000))
}
