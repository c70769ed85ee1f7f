package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/nekouibeam/investment-agent/internal/search"
)

// Searcher 通过 MCP 服务器上的搜索工具实现 search.Searcher
type Searcher struct {
	client   *Client
	toolName string
	queryArg string
}

// NewSearcher 创建 MCP 搜索；queryArg 为工具接收查询文本的参数名
func NewSearcher(cfg ServerConfig, toolName, queryArg string) *Searcher {
	if queryArg == "" {
		queryArg = "query"
	}
	return &Searcher{client: NewClient(cfg), toolName: toolName, queryArg: queryArg}
}

var _ search.Searcher = (*Searcher)(nil)

// Check 连接服务器并确认搜索工具存在
func (s *Searcher) Check(ctx context.Context) error {
	names, err := s.client.ListTools(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, s.toolName) {
		return fmt.Errorf("mcp server %s has no tool %q (available: %s)", s.client.cfg.Name, s.toolName, strings.Join(names, ", "))
	}
	return nil
}

// Search 调用 MCP 工具；返回 JSON 时按结果列表解析，否则整段文本作为一条结果
func (s *Searcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	args := map[string]any{s.queryArg: req.Query}
	if req.MaxResults > 0 {
		args["max_results"] = req.MaxResults
	}
	text, err := s.client.CallTool(ctx, s.toolName, args)
	if err != nil {
		return nil, err
	}

	results := parseResults(text)
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return &search.Response{Results: results}, nil
}

type toolResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Source        string  `json:"source"`
	Content       string  `json:"content"`
	Snippet       string  `json:"snippet"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

func parseResults(text string) []search.Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var list []toolResult
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		var wrapped struct {
			Results []toolResult `json:"results"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil || len(wrapped.Results) == 0 {
			return []search.Result{{Content: text}}
		}
		list = wrapped.Results
	}

	out := make([]search.Result, 0, len(list))
	for _, r := range list {
		content := r.Content
		if content == "" {
			content = r.Snippet
		}
		source := r.Source
		if source == "" {
			source = search.SourceFromURL(r.URL)
		}
		out = append(out, search.Result{
			Title:         r.Title,
			URL:           r.URL,
			Source:        source,
			Content:       content,
			Score:         r.Score,
			PublishedDate: r.PublishedDate,
		})
	}
	return out
}
