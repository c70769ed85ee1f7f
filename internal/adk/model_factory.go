package adk

import (
	"context"
	"fmt"

	go_openai "github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/nekouibeam/investment-agent/internal/adk/anthropic"
	"github.com/nekouibeam/investment-agent/internal/adk/openai"
	"github.com/nekouibeam/investment-agent/internal/models"
)

// ModelFactory 模型工厂，根据配置创建对应的 adk model
type ModelFactory struct{}

// NewModelFactory 创建模型工厂
func NewModelFactory() *ModelFactory {
	return &ModelFactory{}
}

// CreateModel 根据 AI 配置创建对应的模型
func (f *ModelFactory) CreateModel(ctx context.Context, config *models.AIConfig) (model.LLM, error) {
	if config == nil {
		return nil, &models.ConfigurationError{Key: "llm", Reason: "missing configuration"}
	}
	name := config.ModelName
	if name == "" {
		name = config.Provider.DefaultModelName()
	}

	switch config.Provider {
	case models.AIProviderGoogle:
		return f.createGeminiModel(ctx, name, config)
	case models.AIProviderOpenAI:
		return f.createOpenAIModel(name, config), nil
	case models.AIProviderAnthropic:
		return anthropic.NewModel(name, config.APIKey, config.BaseURL, int64(config.MaxTokens)), nil
	default:
		return nil, &models.ConfigurationError{Key: "LLM_PROVIDER", Reason: fmt.Sprintf("unsupported provider: %s", config.Provider)}
	}
}

// createGeminiModel 创建 Gemini 模型
func (f *ModelFactory) createGeminiModel(ctx context.Context, name string, config *models.AIConfig) (model.LLM, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	return gemini.NewModel(ctx, name, clientConfig)
}

// createOpenAIModel 创建 OpenAI 兼容模型
func (f *ModelFactory) createOpenAIModel(name string, config *models.AIConfig) model.LLM {
	openaiCfg := go_openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		openaiCfg.BaseURL = config.BaseURL
	}
	if config.UseResponses {
		return openai.NewResponsesModel(name, config.APIKey, config.BaseURL, nil, config.NoSystemRole)
	}
	return openai.NewOpenAIModel(name, openaiCfg, config.NoSystemRole)
}
