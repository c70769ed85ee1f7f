// Package factory 根据配置创建搜索实例
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/nekouibeam/investment-agent/internal/adk/mcp"
	"github.com/nekouibeam/investment-agent/internal/config"
	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/search"
	"github.com/nekouibeam/investment-agent/internal/search/finnhubnews"
	"github.com/nekouibeam/investment-agent/internal/search/searxng"
	"github.com/nekouibeam/investment-agent/internal/search/tavily"
)

var log = logger.New("SearchFactory")

const (
	// enrichTimeout 单篇正文抓取超时
	enrichTimeout = 15 * time.Second
	checkTimeout  = 10 * time.Second
)

// NewSearcher 根据配置创建搜索实例
// MCP 服务器启动时不可达只记录警告，调用时再报错
func NewSearcher(ctx context.Context, cfg *config.Config) (search.Searcher, error) {
	var s search.Searcher
	switch cfg.Search.Provider {
	case "tavily":
		if cfg.Search.Tavily.APIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		s = tavily.NewClient(cfg.Search.Tavily.APIKey, cfg.Search.Tavily.BaseURL)
	case "searxng":
		if cfg.Search.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		s = searxng.NewClient(cfg.Search.SearXNG.BaseURL, cfg.Search.SearXNG.Timeout)
	case "finnhub":
		s = finnhubnews.NewClient(cfg.Market.FinnhubAPIKey, "")
	case "mcp":
		m := cfg.Search.MCP
		ms := mcp.NewSearcher(mcp.ServerConfig{
			Name:     m.Name,
			Type:     m.Type,
			Endpoint: m.Endpoint,
			Command:  m.Command,
			Args:     m.Args,
		}, m.ToolName, m.QueryArg)
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := ms.Check(checkCtx); err != nil {
			log.Warn("mcp search server %s not ready: %v", m.Name, err)
		}
		cancel()
		s = ms
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Search.Provider)
	}
	return search.NewEnricher(s, cfg.Search.EnrichThreshold, enrichTimeout), nil
}
