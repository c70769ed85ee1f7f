// Package app 按配置装配研究服务的全部依赖
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/nekouibeam/investment-agent/internal/adk"
	"github.com/nekouibeam/investment-agent/internal/adk/tools"
	"github.com/nekouibeam/investment-agent/internal/config"
	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/market"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/research"
	"github.com/nekouibeam/investment-agent/internal/resolver"
	"github.com/nekouibeam/investment-agent/internal/search/factory"
	"github.com/nekouibeam/investment-agent/internal/server"
)

var log = logger.New("App")

// App 装配完成的服务
type App struct {
	Config  *config.Config
	Service *research.Service
	Info    server.Info
}

// New 创建模型、工具、解析器与研究服务
// progress 可为 nil
func New(ctx context.Context, cfg *config.Config, progress models.ProgressCallback) (*App, error) {
	llm, err := adk.NewModelFactory().CreateModel(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	llm = adk.WithLimiter(llm, adk.NewLimiter(cfg.Concurrency.RPM, cfg.Concurrency.Burst))
	log.Info("model ready: provider=%s model=%s rpm=%d", cfg.LLM.Provider, llm.Name(), cfg.Concurrency.RPM)

	searcher, err := factory.NewSearcher(ctx, cfg)
	if err != nil {
		return nil, &models.ConfigurationError{Key: "SEARCH_PROVIDER", Reason: err.Error()}
	}
	provider := market.NewFinnhub(cfg.Market.FinnhubAPIKey, "", cfg.Market.CandleDays)

	registry, err := tools.NewRegistry(provider, searcher, cfg.Search.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("create tools: %w", err)
	}
	log.Info("tools ready: %s (search=%s)", strings.Join(registry.Names(), ", "), cfg.Search.Provider)

	res, err := resolver.New(cfg.Workflow.Resolver, llm)
	if err != nil {
		return nil, err
	}

	settings := research.Settings{
		Language:      cfg.Workflow.Language,
		MaxIterations: cfg.Workflow.MaxToolIterations,
		CallTimeout:   cfg.Workflow.CallTimeout,
		StageTimeout:  cfg.Workflow.StageTimeout,
		RunTimeout:    cfg.Workflow.RunTimeout,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     int32(cfg.LLM.MaxTokens),
		Progress:      progress,
	}
	svc, err := research.NewService(llm, registry, res, settings)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Service: svc,
		Info:    server.Info{Provider: string(cfg.LLM.Provider), Model: llm.Name()},
	}, nil
}
