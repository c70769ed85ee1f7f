package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/tool"

	"github.com/nekouibeam/investment-agent/internal/search"
)

// snippetLimit 单条结果摘要的最大字符数
const snippetLimit = 600

// SearchNewsInput 新闻搜索输入参数
type SearchNewsInput struct {
	Query      string `json:"query" jsonschema:"search query such as 'NVDA earnings guidance'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"number of results to return, default 5"`
}

// createSearchNewsTool 创建新闻搜索工具
func (r *Registry) createSearchNewsTool() (tool.Tool, error) {
	return TextTool(SearchNewsToolName,
		"Search recent news and market commentary. Returns headlines with source and a short snippet.",
		r.searchNews)
}

func (r *Registry) searchNews(ctx context.Context, input SearchNewsInput) (string, error) {
	log.Info("[%s] start, query=%s", SearchNewsToolName, input.Query)

	if strings.TrimSpace(input.Query) == "" {
		err := fmt.Errorf("empty query")
		return "Error searching news: please provide a search query", err
	}
	limit := input.MaxResults
	if limit <= 0 || limit > 10 {
		limit = r.maxResults
	}

	resp, err := r.searcher.Search(ctx, &search.Request{
		Query:      input.Query,
		Topic:      "news",
		MaxResults: limit,
	})
	if err != nil {
		return fmt.Sprintf("Error searching news for %q: %v", input.Query, err), err
	}
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No news found for %q.", input.Query), nil
	}

	out := FormatResults(resp.Results)
	log.Info("[%s] done, %d results", SearchNewsToolName, len(resp.Results))
	return out, nil
}

// FormatResults 格式化搜索结果为编号列表
func FormatResults(results []search.Result) string {
	var sb strings.Builder
	for i, r := range results {
		source := r.Source
		if source == "" {
			source = search.SourceFromURL(r.URL)
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, search.CleanSnippet(r.Title, 0)))
		meta := "   Source: " + source
		if r.PublishedDate != "" {
			meta += " | " + r.PublishedDate
		}
		if r.URL != "" {
			meta += " | " + r.URL
		}
		sb.WriteString(meta + "\n")

		body := r.Content
		if len(r.RawContent) > len(body) {
			body = r.RawContent
		}
		if snippet := search.CleanSnippet(body, snippetLimit); snippet != "" {
			sb.WriteString("   " + snippet + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
