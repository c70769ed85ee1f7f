// Package openai 将 OpenAI 兼容接口适配为 adk model.LLM
package openai

import (
	"context"
	"errors"
	"iter"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"

	"github.com/nekouibeam/investment-agent/internal/logger"
)

var modelLog = logger.New("openai:model")

var _ model.LLM = &OpenAIModel{}

var (
	ErrNoChoicesInResponse = errors.New("no choices in OpenAI response")
)

// OpenAIModel 实现 model.LLM 接口（Chat Completions），支持 thinking 模型
// 只做非流式调用，stream 参数被忽略
type OpenAIModel struct {
	Client       *openai.Client
	ModelName    string
	NoSystemRole bool // 不支持 system role，需降级处理
}

// NewOpenAIModel 创建 OpenAI 模型
func NewOpenAIModel(modelName string, cfg openai.ClientConfig, noSystemRole bool) *OpenAIModel {
	return &OpenAIModel{
		Client:       openai.NewClientWithConfig(cfg),
		ModelName:    modelName,
		NoSystemRole: noSystemRole,
	}
}

// Name 返回模型名称
func (o *OpenAIModel) Name() string {
	return o.ModelName
}

// GenerateContent 实现 model.LLM 接口
func (o *OpenAIModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		openaiReq, err := toOpenAIChatCompletionRequest(req, o.ModelName, o.NoSystemRole)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := o.Client.CreateChatCompletion(ctx, openaiReq)
		if err != nil {
			yield(nil, err)
			return
		}

		llmResp, err := convertChatCompletionResponse(&resp)
		if err != nil {
			yield(nil, err)
			return
		}
		if llmResp.UsageMetadata != nil {
			modelLog.Debug("%s usage: prompt=%d completion=%d", o.ModelName,
				llmResp.UsageMetadata.PromptTokenCount, llmResp.UsageMetadata.CandidatesTokenCount)
		}
		yield(llmResp, nil)
	}
}
