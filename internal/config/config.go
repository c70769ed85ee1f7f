// Package config 加载服务配置：YAML 文件、.env 与环境变量，启动时校验一次
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nekouibeam/investment-agent/internal/models"
)

// Config 服务配置，加载后不再修改
type Config struct {
	LLM         models.AIConfig   `yaml:"llm"`
	Market      MarketConfig      `yaml:"market"`
	Search      SearchConfig      `yaml:"search"`
	Workflow    WorkflowConfig    `yaml:"workflow"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// MarketConfig 行情数据配置
type MarketConfig struct {
	FinnhubAPIKey string `yaml:"finnhub_api_key"`
	CandleDays    int    `yaml:"candle_days"` // 回看的日历天数
}

// SearchConfig 新闻搜索配置
type SearchConfig struct {
	Provider        string        `yaml:"provider"` // tavily | searxng | finnhub | mcp
	MaxResults      int           `yaml:"max_results"`
	EnrichThreshold int           `yaml:"enrich_threshold"` // 摘要短于该长度时抓取正文，0 关闭
	Tavily          TavilyConfig  `yaml:"tavily"`
	SearXNG         SearXNGConfig `yaml:"searxng"`
	MCP             MCPConfig     `yaml:"mcp"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MCPConfig 通过 MCP 服务器提供的搜索工具
type MCPConfig struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"` // sse | command | streamable
	Endpoint string   `yaml:"endpoint"`
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	ToolName string   `yaml:"tool_name"`
	QueryArg string   `yaml:"query_arg"`
}

// WorkflowConfig 工作流超时与循环上限
type WorkflowConfig struct {
	StageTimeout      time.Duration `yaml:"stage_timeout"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
	RunTimeout        time.Duration `yaml:"run_timeout"` // 0 表示不限制
	MaxToolIterations int           `yaml:"max_tool_iterations"`
	Language          string        `yaml:"language"`
	Resolver          string        `yaml:"resolver"` // pattern | llm | chain
}

// ConcurrencyConfig 模型调用限流
type ConcurrencyConfig struct {
	Burst int `yaml:"burst"`
	RPM   int `yaml:"rpm"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load 按顺序加载：YAML 文件（path 为空则跳过）、.env、环境变量，然后填充默认值并校验
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return &models.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid duration %q", v)}
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &models.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid integer %q", v)}
	}
	*dst = n
	return nil
}

// applyEnv 环境变量覆盖文件配置
func (c *Config) applyEnv() error {
	var provider string
	setString(&provider, "LLM_PROVIDER")
	if provider != "" {
		c.LLM.Provider = models.AIProvider(strings.ToLower(provider))
	}
	setString(&c.LLM.ModelName, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case models.AIProviderOpenAI, "":
			setString(&c.LLM.APIKey, "OPENAI_API_KEY")
			if c.LLM.BaseURL == "" {
				setString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
			}
		case models.AIProviderGoogle:
			setString(&c.LLM.APIKey, "GOOGLE_API_KEY")
		case models.AIProviderAnthropic:
			setString(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
		}
	}

	setString(&c.Market.FinnhubAPIKey, "FINNHUB_API_KEY")
	setString(&c.Search.Provider, "SEARCH_PROVIDER")
	setString(&c.Search.Tavily.APIKey, "TAVILY_API_KEY")
	setString(&c.Search.SearXNG.BaseURL, "SEARXNG_BASE_URL")
	setString(&c.Search.MCP.Endpoint, "MCP_SEARCH_ENDPOINT")
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setString(&c.Workflow.Language, "REPORT_LANGUAGE")
	setString(&c.Workflow.Resolver, "TICKER_RESOLVER")

	if origins, ok := os.LookupEnv("CORS_ORIGINS"); ok && origins != "" {
		c.Server.CORSOrigins = strings.Split(origins, ",")
	}

	for key, dst := range map[string]*time.Duration{
		"STAGE_TIMEOUT": &c.Workflow.StageTimeout,
		"CALL_TIMEOUT":  &c.Workflow.CallTimeout,
		"RUN_TIMEOUT":   &c.Workflow.RunTimeout,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	if err := setInt(&c.Workflow.MaxToolIterations, "MAX_TOOL_ITERATIONS"); err != nil {
		return err
	}
	return setInt(&c.Concurrency.RPM, "LLM_RPM")
}

// applyDefaults 填充默认值
func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = models.AIProviderOpenAI
	}
	if c.LLM.ModelName == "" {
		c.LLM.ModelName = c.LLM.Provider.DefaultModelName()
	}
	if c.LLM.Temperature == nil {
		var zero float32
		c.LLM.Temperature = &zero
	}
	if c.Market.CandleDays <= 0 {
		c.Market.CandleDays = 14
	}
	if c.Search.Provider == "" {
		if c.Search.Tavily.APIKey != "" {
			c.Search.Provider = "tavily"
		} else {
			c.Search.Provider = "finnhub"
		}
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 5
	}
	if c.Search.SearXNG.Timeout <= 0 {
		c.Search.SearXNG.Timeout = 10 * time.Second
	}
	if c.Search.MCP.Name == "" {
		c.Search.MCP.Name = "news-search"
	}
	if c.Search.MCP.QueryArg == "" {
		c.Search.MCP.QueryArg = "query"
	}
	if c.Workflow.StageTimeout <= 0 {
		c.Workflow.StageTimeout = 3 * time.Minute
	}
	if c.Workflow.CallTimeout <= 0 {
		c.Workflow.CallTimeout = 90 * time.Second
	}
	if c.Workflow.MaxToolIterations <= 0 {
		c.Workflow.MaxToolIterations = 6
	}
	if c.Workflow.Language == "" {
		c.Workflow.Language = "English"
	}
	if c.Workflow.Resolver == "" {
		c.Workflow.Resolver = "chain"
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate 校验配置，返回 *models.ConfigurationError
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case models.AIProviderOpenAI, models.AIProviderGoogle, models.AIProviderAnthropic:
	default:
		return &models.ConfigurationError{Key: "LLM_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", c.LLM.Provider)}
	}
	if c.LLM.APIKey == "" {
		return &models.ConfigurationError{Key: apiKeyEnv(c.LLM.Provider), Reason: "not set"}
	}
	if c.Market.FinnhubAPIKey == "" {
		return &models.ConfigurationError{Key: "FINNHUB_API_KEY", Reason: "not set"}
	}

	switch c.Search.Provider {
	case "tavily":
		if c.Search.Tavily.APIKey == "" {
			return &models.ConfigurationError{Key: "TAVILY_API_KEY", Reason: "required by search provider tavily"}
		}
	case "searxng":
		if c.Search.SearXNG.BaseURL == "" {
			return &models.ConfigurationError{Key: "SEARXNG_BASE_URL", Reason: "required by search provider searxng"}
		}
	case "mcp":
		if c.Search.MCP.ToolName == "" {
			return &models.ConfigurationError{Key: "search.mcp.tool_name", Reason: "required by search provider mcp"}
		}
		if c.Search.MCP.Endpoint == "" && c.Search.MCP.Command == "" {
			return &models.ConfigurationError{Key: "search.mcp", Reason: "endpoint or command required"}
		}
	case "finnhub":
	default:
		return &models.ConfigurationError{Key: "SEARCH_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", c.Search.Provider)}
	}

	switch c.Workflow.Resolver {
	case "pattern", "llm", "chain":
	default:
		return &models.ConfigurationError{Key: "TICKER_RESOLVER", Reason: fmt.Sprintf("unsupported resolver %q", c.Workflow.Resolver)}
	}
	if c.Workflow.RunTimeout < 0 {
		return &models.ConfigurationError{Key: "RUN_TIMEOUT", Reason: "must not be negative"}
	}
	return nil
}

func apiKeyEnv(p models.AIProvider) string {
	switch p {
	case models.AIProviderGoogle:
		return "GOOGLE_API_KEY"
	case models.AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}
