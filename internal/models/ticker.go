package models

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Query 用户原始问题，进入系统后不再修改
type Query string

// String 返回问题文本
func (q Query) String() string { return string(q) }

// Ticker 规范化后的股票代码（大写 ASCII）
type Ticker string

// String 返回代码文本
func (t Ticker) String() string { return string(t) }

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// NormalizeTicker 规范化股票代码：去空白、全角转半角、去掉 $ 前缀和交易所前缀、转大写
// 无法构成合法代码时返回 false
func NormalizeTicker(raw string) (Ticker, bool) {
	s := strings.TrimSpace(width.Fold.String(raw))
	s = strings.TrimPrefix(s, "$")
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if !tickerPattern.MatchString(s) {
		return "", false
	}
	return Ticker(s), true
}

// NormalizeTickers 批量规范化并按首次出现顺序去重，非法项被丢弃
func NormalizeTickers(raw []string) []Ticker {
	seen := make(map[Ticker]bool, len(raw))
	out := make([]Ticker, 0, len(raw))
	for _, r := range raw {
		t, ok := NormalizeTicker(r)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// JoinTickers 以 ", " 连接代码，用于拼接 prompt
func JoinTickers(tickers []Ticker) string {
	parts := make([]string, len(tickers))
	for i, t := range tickers {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
