// Package research 组装投资研究工作流：代码识别、数据与新闻分析、风险评估、报告汇编
package research

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/model"

	"github.com/nekouibeam/investment-agent/internal/adk/tools"
	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/workflow"
)

var log = logger.New("Research")

// ErrEmptyQuery 问题为空
var ErrEmptyQuery = errors.New("query must not be empty")

// Settings 研究服务参数
type Settings struct {
	Language      string
	MaxIterations int
	CallTimeout   time.Duration
	StageTimeout  time.Duration
	RunTimeout    time.Duration
	Temperature   *float32
	MaxTokens     int32
	Progress      models.ProgressCallback
}

// Service 研究服务，无状态，可并发处理多个请求
type Service struct {
	engine *workflow.Engine
}

// NewService 创建研究服务
func NewService(llm model.LLM, registry *tools.Registry, resolver workflow.Resolver, s Settings) (*Service, error) {
	if llm == nil {
		return nil, &models.ConfigurationError{Key: "llm", Reason: "no language model"}
	}
	if registry == nil {
		return nil, &models.ConfigurationError{Key: "tools", Reason: "no tool registry"}
	}
	stages, err := buildStages(registry, agentSettings{
		llm:           llm,
		language:      s.Language,
		maxIterations: s.MaxIterations,
		callTimeout:   s.CallTimeout,
		temperature:   s.Temperature,
		maxTokens:     s.MaxTokens,
		progress:      s.Progress,
	})
	if err != nil {
		return nil, err
	}
	engine, err := workflow.New(resolver, stages, workflow.Options{
		StageTimeout: s.StageTimeout,
		RunTimeout:   s.RunTimeout,
		Progress:     s.Progress,
	})
	if err != nil {
		return nil, err
	}
	return &Service{engine: engine}, nil
}

// Research 执行一次完整研究
func (s *Service) Research(ctx context.Context, query string) (*models.Report, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	runID := uuid.NewString()
	ctx = workflow.WithRunID(ctx, runID)
	log.Info("run %s started: %q", runID, query)

	state, err := s.engine.Run(ctx, models.NewState(models.Query(query)))
	if err != nil {
		log.Error("run %s failed: %v", runID, err)
		return nil, err
	}
	report, err := models.NewReport(runID, state)
	if err != nil {
		return nil, err
	}
	if degraded := report.DegradedFields(); len(degraded) > 0 {
		log.Warn("run %s completed with placeholders: %s", runID, strings.Join(degraded, ", "))
	}
	return report, nil
}
