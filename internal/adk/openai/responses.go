package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// DefaultBaseURL OpenAI 官方接口地址
const DefaultBaseURL = "https://api.openai.com/v1"

var _ model.LLM = &ResponsesModel{}

// HTTPDoer HTTP 客户端接口（与 go-openai 兼容）
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponsesModel 实现 model.LLM 接口，使用 OpenAI Responses API（非流式）
type ResponsesModel struct {
	httpClient   HTTPDoer
	baseURL      string
	apiKey       string
	modelName    string
	NoSystemRole bool
}

// NewResponsesModel 创建 Responses API 模型
// apiKey 单独传入，因 go-openai ClientConfig.authToken 不可导出
func NewResponsesModel(modelName, apiKey, baseURL string, httpClient HTTPDoer, noSystemRole bool) *ResponsesModel {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ResponsesModel{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		modelName:    modelName,
		NoSystemRole: noSystemRole,
	}
}

// Name 返回模型名称
func (r *ResponsesModel) Name() string {
	return r.modelName
}

// GenerateContent 实现 model.LLM 接口
func (r *ResponsesModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		apiReq, err := toResponsesRequest(req, r.modelName, r.NoSystemRole)
		if err != nil {
			yield(nil, err)
			return
		}
		body, err := json.Marshal(apiReq)
		if err != nil {
			yield(nil, fmt.Errorf("marshal responses request: %w", err))
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/responses", bytes.NewReader(body))
		if err != nil {
			yield(nil, fmt.Errorf("create request: %w", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

		resp, err := r.httpClient.Do(httpReq)
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 400 {
			respBody, _ := io.ReadAll(resp.Body)
			yield(nil, fmt.Errorf("responses api error (HTTP %d): %s", resp.StatusCode, string(respBody)))
			return
		}

		var apiResp ResponsesResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			yield(nil, fmt.Errorf("decode responses response: %w", err))
			return
		}
		yield(convertResponsesResponse(&apiResp), nil)
	}
}

// ResponsesRequest Responses API 请求
type ResponsesRequest struct {
	Model           string               `json:"model"`
	Instructions    string               `json:"instructions,omitempty"`
	Input           []ResponsesInputItem `json:"input"`
	Tools           []ResponsesTool      `json:"tools,omitempty"`
	ToolChoice      string               `json:"tool_choice,omitempty"`
	Temperature     *float32             `json:"temperature,omitempty"`
	MaxOutputTokens int                  `json:"max_output_tokens,omitempty"`
}

// ResponsesInputItem 输入项：消息、函数调用或函数输出
type ResponsesInputItem struct {
	Type      string `json:"type,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

// ResponsesTool 函数工具定义
type ResponsesTool struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

// ResponsesResponse Responses API 响应
type ResponsesResponse struct {
	ID     string                `json:"id"`
	Status string                `json:"status"`
	Output []ResponsesOutputItem `json:"output"`
	Usage  *ResponsesUsage       `json:"usage,omitempty"`
}

// ResponsesOutputItem 输出项
type ResponsesOutputItem struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id"`
	Role      string                 `json:"role,omitempty"`
	Content   []ResponsesContentPart `json:"content,omitempty"`
	Summary   []ResponsesContentPart `json:"summary,omitempty"`
	CallID    string                 `json:"call_id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Arguments string                 `json:"arguments,omitempty"`
}

// ResponsesContentPart 输出内容片段
type ResponsesContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResponsesUsage token 用量
type ResponsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// toResponsesRequest 将 ADK 请求转换为 Responses API 请求
func toResponsesRequest(req *model.LLMRequest, modelName string, noSystemRole bool) (*ResponsesRequest, error) {
	out := &ResponsesRequest{Model: modelName}

	for _, content := range req.Contents {
		role := "user"
		if content.Role == genai.RoleModel {
			role = "assistant"
		}
		var text []string
		for _, part := range content.Parts {
			switch {
			case part == nil || part.Thought:
			case part.FunctionCall != nil:
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal function args: %w", err)
				}
				out.Input = append(out.Input, ResponsesInputItem{
					Type:      "function_call",
					CallID:    part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				})
			case part.FunctionResponse != nil:
				output, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal function response: %w", err)
				}
				out.Input = append(out.Input, ResponsesInputItem{
					Type:   "function_call_output",
					CallID: part.FunctionResponse.ID,
					Output: string(output),
				})
			case part.Text != "":
				text = append(text, part.Text)
			}
		}
		if len(text) > 0 {
			out.Input = append(out.Input, ResponsesInputItem{Type: "message", Role: role, Content: strings.Join(text, "\n")})
		}
	}

	cfg := req.Config
	if cfg == nil {
		return out, nil
	}
	if system := extractTextFromContent(cfg.SystemInstruction); system != "" {
		if noSystemRole {
			out.Input = append([]ResponsesInputItem{{Type: "message", Role: "user", Content: system}}, out.Input...)
		} else {
			out.Instructions = system
		}
	}
	for _, t := range cfg.Tools {
		if t == nil {
			continue
		}
		for _, decl := range t.FunctionDeclarations {
			params, err := declarationParameters(decl)
			if err != nil {
				return nil, err
			}
			out.Tools = append(out.Tools, ResponsesTool{Type: "function", Name: decl.Name, Description: decl.Description, Parameters: params})
		}
	}
	if len(out.Tools) > 0 && toolsDisabled(cfg) {
		out.ToolChoice = "none"
	}
	out.Temperature = cfg.Temperature
	out.MaxOutputTokens = int(cfg.MaxOutputTokens)
	return out, nil
}

// convertResponsesResponse 转换 Responses API 响应
func convertResponsesResponse(resp *ResponsesResponse) *model.LLMResponse {
	content := &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{}}
	for _, item := range resp.Output {
		switch item.Type {
		case "reasoning":
			for _, s := range item.Summary {
				if s.Text != "" {
					content.Parts = append(content.Parts, &genai.Part{Text: s.Text, Thought: true})
				}
			}
		case "message":
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					content.Parts = append(content.Parts, &genai.Part{Text: c.Text})
				}
			}
		case "function_call":
			content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
				ID:   item.CallID,
				Name: item.Name,
				Args: parseJSONArgs(item.Arguments),
			}})
		}
	}

	llmResp := &model.LLMResponse{
		Content:      content,
		FinishReason: genai.FinishReasonStop,
		TurnComplete: true,
	}
	if resp.Status == "incomplete" {
		llmResp.FinishReason = genai.FinishReasonMaxTokens
	}
	if resp.Usage != nil {
		llmResp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.InputTokens),
			CandidatesTokenCount: int32(resp.Usage.OutputTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		}
	}
	return llmResp
}
