// Package tavily Tavily 搜索 API 客户端
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nekouibeam/investment-agent/internal/search"
)

// DefaultBaseURL Tavily 搜索接口地址
const DefaultBaseURL = "https://api.tavily.com/search"

// Client Tavily API 客户端
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient 创建一个新的 Tavily 客户端，baseURL 为空时使用官方地址
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
}

var _ search.Searcher = (*Client)(nil)

// SearchRequest Tavily 搜索请求参数
type SearchRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth,omitempty"` // basic or advanced
	Topic             string `json:"topic,omitempty"`        // general or news
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
	StartDate         string `json:"start_date,omitempty"`
	EndDate           string `json:"end_date,omitempty"`
}

// SearchResponse Tavily 搜索响应
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult 单个搜索结果
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	tavilyReq := SearchRequest{
		Query:             req.Query,
		SearchDepth:       "basic",
		Topic:             req.Topic,
		MaxResults:        req.MaxResults,
		IncludeRawContent: req.IncludeRawContent,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
	}
	if tavilyReq.Topic == "" {
		tavilyReq.Topic = "news"
	}
	if tavilyReq.MaxResults == 0 {
		tavilyReq.MaxResults = 5
	}

	payload, err := json.Marshal(tavilyReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	results := make([]search.Result, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		results = append(results, search.Result{
			Title:         r.Title,
			URL:           r.URL,
			Source:        search.SourceFromURL(r.URL),
			Content:       r.Content,
			RawContent:    r.RawContent,
			Score:         r.Score,
			PublishedDate: r.PublishedDate,
		})
	}
	return &search.Response{Results: results}, nil
}
