// Package anthropic 将 Anthropic Messages API 适配为 adk model.LLM
package anthropic

import (
	"context"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/adk/model"

	"github.com/nekouibeam/investment-agent/internal/logger"
)

var log = logger.New("anthropic:model")

// DefaultMaxTokens Messages API 必填的 max_tokens 默认值
const DefaultMaxTokens = 4096

var _ model.LLM = &Model{}

// Model 实现 model.LLM 接口（非流式）
type Model struct {
	client    anthropic.Client
	modelName string
	maxTokens int64
}

// NewModel 创建 Anthropic 模型
func NewModel(modelName, apiKey, baseURL string, maxTokens int64) *Model {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Model{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
		maxTokens: maxTokens,
	}
}

// Name 返回模型名称
func (m *Model) Name() string {
	return m.modelName
}

// GenerateContent 实现 model.LLM 接口
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		params, err := toMessageParams(req, m.modelName, m.maxTokens)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			yield(nil, err)
			return
		}

		llmResp := convertMessage(resp)
		if llmResp.UsageMetadata != nil {
			log.Debug("%s usage: input=%d output=%d", m.modelName,
				llmResp.UsageMetadata.PromptTokenCount, llmResp.UsageMetadata.CandidatesTokenCount)
		}
		yield(llmResp, nil)
	}
}
