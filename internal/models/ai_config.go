package models

// AIProvider 模型供应商
type AIProvider string

const (
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderGoogle    AIProvider = "google"
	AIProviderAnthropic AIProvider = "anthropic"
)

// DefaultModelName 各供应商的默认模型
func (p AIProvider) DefaultModelName() string {
	switch p {
	case AIProviderOpenAI:
		return "gpt-5-mini"
	case AIProviderGoogle:
		return "gemini-2.5-flash"
	case AIProviderAnthropic:
		return "claude-sonnet-4-5"
	default:
		return ""
	}
}

// AIConfig 模型配置
type AIConfig struct {
	Provider     AIProvider `yaml:"provider" json:"provider"`
	ModelName    string     `yaml:"model" json:"model"`
	APIKey       string     `yaml:"api_key" json:"-"`
	BaseURL      string     `yaml:"base_url" json:"baseUrl,omitempty"`
	Temperature  *float32   `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens    int        `yaml:"max_tokens" json:"maxTokens,omitempty"`
	NoSystemRole bool       `yaml:"no_system_role" json:"noSystemRole,omitempty"` // 不支持 system role 的兼容接口
	UseResponses bool       `yaml:"use_responses" json:"useResponses,omitempty"`  // 走 OpenAI Responses API
}
