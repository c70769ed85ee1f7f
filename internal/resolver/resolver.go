// Package resolver 从用户问题中识别股票代码
package resolver

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"

	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
)

var log = logger.New("Resolver")

// Resolver 将问题解析为有序、去重的代码列表
// 找不到代码时返回空列表而不是错误
type Resolver interface {
	Resolve(ctx context.Context, query models.Query) ([]models.Ticker, error)
}

// 解析策略名称，对应配置 workflow.resolver
const (
	StrategyPattern = "pattern"
	StrategyLLM     = "llm"
	StrategyChain   = "chain"
)

// New 按策略创建解析器；chain 先走规则匹配，失败再问模型
func New(strategy string, llm model.LLM) (Resolver, error) {
	switch strategy {
	case StrategyPattern:
		return NewPattern(), nil
	case StrategyLLM:
		return NewLLM(llm), nil
	case StrategyChain, "":
		return Chain{NewPattern(), NewLLM(llm)}, nil
	default:
		return nil, &models.ConfigurationError{Key: "TICKER_RESOLVER", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}
}

// Chain 依次尝试，第一个返回非空结果的解析器胜出
type Chain []Resolver

// Resolve 实现 Resolver
func (c Chain) Resolve(ctx context.Context, query models.Query) ([]models.Ticker, error) {
	var lastErr error
	for i, r := range c {
		tickers, err := r.Resolve(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			log.Warn("resolver #%d failed: %v", i, err)
			lastErr = err
			continue
		}
		if len(tickers) > 0 {
			return tickers, nil
		}
	}
	return nil, lastErr
}
