// Package finnhubnews 使用 Finnhub 公司新闻接口实现 search.Searcher
package finnhubnews

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/search"
)

// LookbackDays 公司新闻回看天数
const LookbackDays = 7

// Client Finnhub 新闻客户端
type Client struct {
	client *finnhub.DefaultApiService
	now    func() time.Time
}

// NewClient 创建 Finnhub 新闻客户端；baseURL 为空时使用官方地址
func NewClient(apiKey, baseURL string) *Client {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if baseURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: baseURL}}
	}
	return &Client{
		client: finnhub.NewAPIClient(cfg).DefaultApi,
		now:    time.Now,
	}
}

var _ search.Searcher = (*Client)(nil)

// Search 问题中含代码时查公司新闻，否则查市场综合新闻并按关键词过滤
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	limit := req.MaxResults
	if limit <= 0 {
		limit = 5
	}

	symbols := symbolsIn(req.Query)
	var results []search.Result
	if len(symbols) > 0 {
		to := c.now()
		from := to.AddDate(0, 0, -LookbackDays)
		for _, sym := range symbols {
			news, _, err := c.client.CompanyNews(ctx).
				Symbol(string(sym)).
				From(from.Format("2006-01-02")).
				To(to.Format("2006-01-02")).
				Execute()
			if err != nil {
				return nil, fmt.Errorf("finnhub company news %s: %w", sym, err)
			}
			for _, n := range news {
				results = append(results, toResult(n.GetHeadline(), n.GetUrl(), n.GetSource(), n.GetSummary(), n.GetDatetime()))
			}
		}
	} else {
		news, _, err := c.client.MarketNews(ctx).Category("general").Execute()
		if err != nil {
			return nil, fmt.Errorf("finnhub market news: %w", err)
		}
		words := keywords(req.Query)
		for _, n := range news {
			text := strings.ToLower(n.GetHeadline() + " " + n.GetSummary())
			if !matchesAny(text, words) {
				continue
			}
			results = append(results, toResult(n.GetHeadline(), n.GetUrl(), n.GetSource(), n.GetSummary(), n.GetDatetime()))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PublishedDate > results[j].PublishedDate
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return &search.Response{Results: results}, nil
}

func toResult(headline, url, source, summary string, ts int64) search.Result {
	r := search.Result{
		Title:   headline,
		URL:     url,
		Source:  source,
		Content: summary,
	}
	if ts > 0 {
		r.PublishedDate = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	return r
}

// symbolsIn 取出全大写的词作为代码
func symbolsIn(query string) []models.Ticker {
	var raw []string
	for _, f := range strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;?!()\"'", r)
	}) {
		word := strings.TrimPrefix(f, "$")
		if word == "" || strings.ToUpper(word) != word || len(word) > 5 {
			continue
		}
		if !unicode.IsLetter([]rune(word)[0]) {
			continue
		}
		raw = append(raw, word)
	}
	return models.NormalizeTickers(raw)
}

func keywords(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func matchesAny(text string, words []string) bool {
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
