package resolver

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/nekouibeam/investment-agent/internal/models"
)

var (
	cashtagRe  = regexp.MustCompile(`\$([A-Za-z][A-Za-z0-9.\-]{0,9})`)
	exchangeRe = regexp.MustCompile(`\b(?:NASDAQ|NYSE|AMEX|NYSEARCA|OTC|TPE|HKEX|LSE|TSX)\s*:\s*([A-Za-z][A-Za-z0-9.\-]{0,9})`)
	bareRe     = regexp.MustCompile(`\b[A-Z]{2,5}(?:\.[A-Z])?\b`)
	capsWordRe = regexp.MustCompile(`\b[A-Z]{2,}\b`)
)

// stopwords 常见的大写缩写，不是股票代码
var stopwords = map[string]bool{
	"AI": true, "API": true, "AR": true, "VR": true, "IT": true, "OK": true,
	"CEO": true, "CFO": true, "CTO": true, "COO": true, "IPO": true, "SEC": true,
	"BUY": true, "SELL": true, "HOLD": true, "LONG": true, "SHORT": true,
	"US": true, "USA": true, "UK": true, "EU": true, "USD": true, "TWD": true, "RMB": true,
	"EPS": true, "PE": true, "PEG": true, "ROE": true, "ROI": true, "ROA": true, "FCF": true,
	"EV": true, "EBIT": true, "GAAP": true, "YOY": true, "QOQ": true, "TTM": true, "FY": true,
	"ETF": true, "GDP": true, "CPI": true, "PPI": true, "FED": true, "FOMC": true, "ESG": true,
	"GPU": true, "CPU": true, "HBM": true, "DRAM": true, "NAND": true, "SSD": true, "LLM": true,
	"TAM": true, "SAAS": true, "CAPEX": true, "OPEX": true, "ATH": true, "DCF": true,
	"AND": true, "OR": true, "THE": true, "FOR": true, "IS": true, "VS": true, "NOT": true,
	"NASDAQ": true, "NYSE": true, "AMEX": true, "OTC": true, "TPE": true, "HKEX": true, "LSE": true, "TSX": true,
}

// aliases 常见公司名到代码的映射（名称小写）
var aliases = map[string]string{
	"nvidia":     "NVDA",
	"英伟达":        "NVDA",
	"輝達":         "NVDA",
	"micron":     "MU",
	"美光":         "MU",
	"apple":      "AAPL",
	"苹果":         "AAPL",
	"蘋果":         "AAPL",
	"microsoft":  "MSFT",
	"微软":         "MSFT",
	"微軟":         "MSFT",
	"tesla":      "TSLA",
	"特斯拉":        "TSLA",
	"amazon":     "AMZN",
	"alphabet":   "GOOGL",
	"google":     "GOOGL",
	"meta":       "META",
	"netflix":    "NFLX",
	"broadcom":   "AVGO",
	"intel":      "INTC",
	"tsmc":       "TSM",
	"台积电":        "TSM",
	"台積電":        "TSM",
	"palantir":   "PLTR",
	"salesforce": "CRM",
}

var aliasRe = buildAliasPattern()

// buildAliasPattern 英文名称按词边界匹配，长名称优先
func buildAliasPattern() *regexp.Regexp {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		if isASCII(name) {
			names = append(names, regexp.QuoteMeta(name))
		}
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(names, "|") + `)\b`)
}

// Pattern 基于规则的解析器：$代码、交易所前缀、大写词与公司别名
type Pattern struct{}

// NewPattern 创建规则解析器
func NewPattern() *Pattern {
	return &Pattern{}
}

type hit struct {
	pos    int
	end    int
	ticker string
}

// Resolve 实现 Resolver；结果按在问题中首次出现的位置排序
// 大写词与别名或 $代码重叠时以后者为准；全大写的问题不做大写词匹配
func (p *Pattern) Resolve(_ context.Context, query models.Query) ([]models.Ticker, error) {
	text := width.Fold.String(string(query))

	var hits []hit
	for _, m := range cashtagRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{m[0], m[1], text[m[2]:m[3]]})
	}
	for _, m := range exchangeRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{m[0], m[1], text[m[2]:m[3]]})
	}
	for _, m := range aliasRe.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{m[0], m[1], aliases[strings.ToLower(text[m[0]:m[1]])]})
	}
	for name, ticker := range aliases {
		if isASCII(name) {
			continue
		}
		for off := 0; ; {
			i := strings.Index(text[off:], name)
			if i < 0 {
				break
			}
			hits = append(hits, hit{off + i, off + i + len(name), ticker})
			off += i + len(name)
		}
	}
	if !shouting(text) {
		explicit := len(hits)
		for _, m := range bareRe.FindAllStringIndex(text, -1) {
			token := text[m[0]:m[1]]
			if stopwords[token] || overlaps(hits[:explicit], m[0], m[1]) {
				continue
			}
			hits = append(hits, hit{m[0], m[1], token})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	raw := make([]string, len(hits))
	for i, h := range hits {
		raw[i] = h.ticker
	}
	return models.NormalizeTickers(raw), nil
}

func overlaps(hits []hit, start, end int) bool {
	for _, h := range hits {
		if start < h.end && h.pos < end {
			return true
		}
	}
	return false
}

// shouting 问题基本为大写且含至少三个大写词
func shouting(text string) bool {
	var upper, letters int
	for _, r := range text {
		if r >= 0x80 || !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 || upper*5 < letters*4 {
		return false
	}
	return len(capsWordRe.FindAllString(text, -1)) >= 3
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
