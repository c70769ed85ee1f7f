package market

import (
	"fmt"
	"math"
	"strings"

	"github.com/nekouibeam/investment-agent/internal/models"
)

// RecentSessions 价格表展示的交易日数
const RecentSessions = 5

type metricLine struct {
	label    string
	keys     []string // 依次尝试
	percent  bool
	millions bool
}

var (
	valuationMetrics = []metricLine{
		{label: "Enterprise Value", keys: []string{"enterpriseValue"}, millions: true},
		{label: "P/E (TTM)", keys: []string{"peTTM", "peBasicExclExtraTTM"}},
		{label: "Forward P/E", keys: []string{"forwardPE"}},
		{label: "PEG (TTM)", keys: []string{"pegTTM"}},
		{label: "EV/EBITDA (TTM)", keys: []string{"evEbitdaTTM"}},
		{label: "EV/FCF (TTM)", keys: []string{"currentEv/freeCashFlowTTM", "currentEv/freeCashFlowAnnual"}},
		{label: "P/FCF (TTM)", keys: []string{"pfcfShareTTM", "pfcfShareAnnual"}},
		{label: "P/B", keys: []string{"pbQuarterly", "pbAnnual"}},
		{label: "P/S (TTM)", keys: []string{"psTTM", "psAnnual"}},
		{label: "EPS (TTM)", keys: []string{"epsTTM", "epsBasicExclExtraItemsTTM"}},
		{label: "Dividend Yield", keys: []string{"dividendYieldIndicatedAnnual", "currentDividendYieldTTM"}, percent: true},
		{label: "Beta", keys: []string{"beta"}},
	}
	financialMetrics = []metricLine{
		{label: "Revenue Growth (TTM YoY)", keys: []string{"revenueGrowthTTMYoy"}, percent: true},
		{label: "EPS Growth (TTM YoY)", keys: []string{"epsGrowthTTMYoy"}, percent: true},
		{label: "Gross Margin", keys: []string{"grossMarginTTM", "grossMarginAnnual"}, percent: true},
		{label: "Operating Margin", keys: []string{"operatingMarginTTM", "operatingMarginAnnual"}, percent: true},
		{label: "Net Margin", keys: []string{"netProfitMarginTTM", "netProfitMarginAnnual"}, percent: true},
		{label: "ROE", keys: []string{"roeTTM", "roeRfy"}, percent: true},
		{label: "Current Ratio", keys: []string{"currentRatioQuarterly", "currentRatioAnnual"}},
		{label: "Cash per Share", keys: []string{"cashPerSharePerShareQuarterly", "cashPerSharePerShareAnnual"}},
		{label: "Net Debt", keys: []string{"netDebtQuarterly", "netDebtAnnual"}, millions: true},
		{label: "Debt/Equity", keys: []string{"totalDebt/totalEquityQuarterly", "totalDebt/totalEquityAnnual"}},
	}
	performanceMetrics = []metricLine{
		{label: "5D Return", keys: []string{"5DayPriceReturnDaily"}, percent: true},
		{label: "1M Return", keys: []string{"4WeekPriceReturnDaily", "monthToDatePriceReturnDaily"}, percent: true},
		{label: "6M Return", keys: []string{"26WeekPriceReturnDaily"}, percent: true},
		{label: "YTD Return", keys: []string{"yearToDatePriceReturnDaily"}, percent: true},
		{label: "52W Return", keys: []string{"52WeekPriceReturnDaily"}, percent: true},
		{label: "52W High", keys: []string{"52WeekHigh"}},
		{label: "52W Low", keys: []string{"52WeekLow"}},
	}
)

// FormatSnapshot 将快照格式化为给模型阅读的文本
func FormatSnapshot(s *models.StockSnapshot) string {
	var sb strings.Builder

	header := string(s.Symbol)
	currency := ""
	if p := s.Profile; p != nil {
		header = fmt.Sprintf("%s | %s (%s, %s)", s.Symbol, p.Name, p.Exchange, p.Industry)
		currency = " " + p.Currency
	}
	sb.WriteString(fmt.Sprintf("=== %s ===\n", header))
	if q := s.Quote; q != nil {
		sb.WriteString(fmt.Sprintf("Price: %.2f%s (%+.2f, %+.2f%%) | Open %.2f | High %.2f | Low %.2f | Prev Close %.2f\n",
			q.Price, currency, q.Change, q.ChangePercent, q.Open, q.High, q.Low, q.PreClose))
	}

	sb.WriteString("\n--- VALUATION ---\n")
	if p := s.Profile; p != nil && p.MarketCap > 0 {
		sb.WriteString(fmt.Sprintf("Market Cap: %s\n", formatMillions(p.MarketCap)))
	}
	writeMetrics(&sb, s, valuationMetrics)

	sb.WriteString("\n--- FINANCIALS ---\n")
	writeMetrics(&sb, s, financialMetrics)

	sb.WriteString("\n--- ANALYST ESTIMATES ---\n")
	if t := s.Target; t != nil {
		sb.WriteString(fmt.Sprintf("Target Price: mean %.2f | median %.2f | high %.2f | low %.2f", t.Mean, t.Median, t.High, t.Low))
		if t.UpdatedAt != "" {
			sb.WriteString(fmt.Sprintf(" (updated %s)", t.UpdatedAt))
		}
		sb.WriteString("\n")
		if q := s.Quote; q != nil && q.Price > 0 {
			sb.WriteString(fmt.Sprintf("Implied Upside (mean): %+.1f%%\n", (t.Mean/q.Price-1)*100))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Target Price: n/a%s\n", missingReason(s, SectionTarget)))
	}
	if len(s.Recommendations) > 0 {
		r := s.Recommendations[0]
		sb.WriteString(fmt.Sprintf("Recommendations (%s): Strong Buy %d, Buy %d, Hold %d, Sell %d, Strong Sell %d\n",
			r.Period, r.StrongBuy, r.Buy, r.Hold, r.Sell, r.StrongSell))
	} else {
		sb.WriteString(fmt.Sprintf("Recommendations: n/a%s\n", missingReason(s, SectionRecommendations)))
	}

	sb.WriteString("\n--- PRICE PERFORMANCE ---\n")
	writeMetrics(&sb, s, performanceMetrics)

	sb.WriteString(fmt.Sprintf("\n--- RECENT PRICE DATA (last %d sessions) ---\n", RecentSessions))
	if len(s.Candles) == 0 {
		sb.WriteString(fmt.Sprintf("n/a%s\n", missingReason(s, SectionCandles)))
	} else {
		sb.WriteString("Date       | Open | High | Low | Close | Volume\n")
		candles := s.Candles
		if len(candles) > RecentSessions {
			candles = candles[len(candles)-RecentSessions:]
		}
		for _, c := range candles {
			sb.WriteString(fmt.Sprintf("%s | %.2f | %.2f | %.2f | %.2f | %d\n", c.Time, c.Open, c.High, c.Low, c.Close, c.Volume))
		}
	}
	return sb.String()
}

func writeMetrics(sb *strings.Builder, s *models.StockSnapshot, lines []metricLine) {
	if s.Metrics == nil {
		sb.WriteString(fmt.Sprintf("n/a%s\n", missingReason(s, SectionMetrics)))
		return
	}
	for _, m := range lines {
		v, ok := lookup(s.Metrics, m.keys)
		switch {
		case !ok:
			sb.WriteString(fmt.Sprintf("%s: n/a\n", m.label))
		case m.percent:
			sb.WriteString(fmt.Sprintf("%s: %.2f%%\n", m.label, v))
		case m.millions:
			sb.WriteString(fmt.Sprintf("%s: %s\n", m.label, formatMillions(v)))
		default:
			sb.WriteString(fmt.Sprintf("%s: %.2f\n", m.label, v))
		}
	}
}

func lookup(metrics map[string]float64, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := metrics[k]; ok && !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}

func missingReason(s *models.StockSnapshot, section string) string {
	if reason, ok := s.Missing[section]; ok {
		return " (" + reason + ")"
	}
	return ""
}

// formatMillions 以百万为单位的数值格式化为 B/T
func formatMillions(m float64) string {
	switch abs := math.Abs(m); {
	case abs >= 1e6:
		return fmt.Sprintf("%.2fT", m/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fB", m/1e3)
	default:
		return fmt.Sprintf("%.2fM", m)
	}
}
