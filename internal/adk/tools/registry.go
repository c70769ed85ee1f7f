// Package tools 提供 Agent 可调用的工具；工具错误转成文本返回给模型
package tools

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/market"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/search"
)

var log = logger.New("Tool")

// 工具名称
const (
	StockDataToolName  = "get_stock_data"
	SearchNewsToolName = "search_news"
)

// Output 工具输出，失败信息同样写入 Result
type Output struct {
	Result string `json:"result" jsonschema:"tool output as plain text"`
}

// TextTool 以返回文本的函数创建 functiontool
// fn 返回的错误只记录日志，文本照常交给模型
func TextTool[In any](name, description string, fn func(context.Context, In) (string, error)) (tool.Tool, error) {
	handler := func(ctx tool.Context, input In) (Output, error) {
		out, err := fn(ctx, input)
		if err != nil {
			log.Warn("%v", &models.ToolError{Tool: name, Err: err})
		}
		return Output{Result: out}, nil
	}
	return functiontool.New(functiontool.Config{
		Name:        name,
		Description: description,
	}, handler)
}

// Registry 工具注册表
type Registry struct {
	market     market.Provider
	searcher   search.Searcher
	maxResults int
	tools      map[string]tool.Tool
}

// NewRegistry 创建工具注册表
func NewRegistry(provider market.Provider, searcher search.Searcher, maxResults int) (*Registry, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	r := &Registry{
		market:     provider,
		searcher:   searcher,
		maxResults: maxResults,
		tools:      make(map[string]tool.Tool),
	}

	stockTool, err := r.createStockDataTool()
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", StockDataToolName, err)
	}
	newsTool, err := r.createSearchNewsTool()
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", SearchNewsToolName, err)
	}
	r.tools[stockTool.Name()] = stockTool
	r.tools[newsTool.Name()] = newsTool
	return r, nil
}

// Get 按名称获取工具
func (r *Registry) Get(name string) (tool.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// GetTools 按名称批量获取，未知名称返回错误
func (r *Registry) GetTools(names ...string) ([]tool.Tool, error) {
	out := make([]tool.Tool, 0, len(names))
	for _, n := range names {
		t, ok := r.tools[n]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}

// Names 已注册工具名（排序）
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
