package search

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// CleanSnippet 去掉 HTML 标签并折叠空白，按字符截断到 maxLen（<=0 不截断）
func CleanSnippet(raw string, maxLen int) string {
	text := raw
	if strings.ContainsAny(raw, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		runes := []rune(text)
		text = string(runes[:maxLen]) + "..."
	}
	return text
}

// SourceFromURL 从链接中提取域名作为来源
func SourceFromURL(u string) string {
	s := u
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}
