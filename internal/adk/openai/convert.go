package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// toOpenAIChatCompletionRequest 将 ADK 请求转换为 OpenAI 请求
func toOpenAIChatCompletionRequest(req *model.LLMRequest, modelName string, noSystemRole bool) (openai.ChatCompletionRequest, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Contents)+1)
	for _, content := range req.Contents {
		msgs, err := toOpenAIChatCompletionMessages(content)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		messages = append(messages, msgs...)
	}

	openaiReq := openai.ChatCompletionRequest{
		Model: modelName,
	}

	cfg := req.Config
	if cfg == nil {
		openaiReq.Messages = messages
		return openaiReq, nil
	}

	if cfg.SystemInstruction != nil {
		messages = prependSystem(messages, extractTextFromContent(cfg.SystemInstruction), noSystemRole)
	}
	openaiReq.Messages = messages

	if len(cfg.Tools) > 0 {
		tools, err := convertTools(cfg.Tools)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		openaiReq.Tools = tools
		if toolsDisabled(cfg) {
			openaiReq.ToolChoice = "none"
		}
	}

	if cfg.Temperature != nil {
		openaiReq.Temperature = *cfg.Temperature
	}
	if cfg.MaxOutputTokens > 0 {
		openaiReq.MaxCompletionTokens = int(cfg.MaxOutputTokens)
	}
	if cfg.TopP != nil {
		openaiReq.TopP = *cfg.TopP
	}
	if len(cfg.StopSequences) > 0 {
		openaiReq.Stop = cfg.StopSequences
	}
	if cfg.ResponseMIMEType == "application/json" {
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return openaiReq, nil
}

// prependSystem 插入系统指令；不支持 system role 时合并进第一条用户消息
func prependSystem(messages []openai.ChatCompletionMessage, system string, noSystemRole bool) []openai.ChatCompletionMessage {
	if system == "" {
		return messages
	}
	if !noSystemRole {
		return append([]openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}}, messages...)
	}
	for i := range messages {
		if messages[i].Role == openai.ChatMessageRoleUser {
			messages[i].Content = system + "\n\n" + messages[i].Content
			return messages
		}
	}
	return append([]openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: system}}, messages...)
}

func toolsDisabled(cfg *genai.GenerateContentConfig) bool {
	return cfg.ToolConfig != nil && cfg.ToolConfig.FunctionCallingConfig != nil &&
		cfg.ToolConfig.FunctionCallingConfig.Mode == genai.FunctionCallingConfigModeNone
}

// toOpenAIChatCompletionMessages 将 genai.Content 转换为 OpenAI 消息
// 函数响应各自成为一条 tool 消息，其余部分合并为一条消息并排在 tool 消息之后
func toOpenAIChatCompletionMessages(content *genai.Content) ([]openai.ChatCompletionMessage, error) {
	var (
		out       []openai.ChatCompletionMessage
		text      []string
		reasoning string
		toolCalls []openai.ToolCall
	)

	for _, part := range content.Parts {
		switch {
		case part == nil:
		case part.FunctionResponse != nil:
			responseJSON, err := json.Marshal(part.FunctionResponse.Response)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal function response: %w", err)
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: part.FunctionResponse.ID,
				Name:       part.FunctionResponse.Name,
				Content:    string(responseJSON),
			})
		case part.FunctionCall != nil:
			argsJSON, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal function args: %w", err)
			}
			toolCalls = append(toolCalls, openai.ToolCall{
				ID:   part.FunctionCall.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: string(argsJSON),
				},
			})
		case part.Thought && part.Text != "":
			reasoning += part.Text
		case part.Text != "":
			text = append(text, part.Text)
		}
	}

	if len(text) == 0 && reasoning == "" && len(toolCalls) == 0 {
		return out, nil
	}
	msg := openai.ChatCompletionMessage{
		Role:             convertRoleToOpenAI(content.Role),
		Content:          strings.Join(text, "\n"),
		ReasoningContent: reasoning,
		ToolCalls:        toolCalls,
	}
	return append(out, msg), nil
}

// convertRoleToOpenAI 转换角色
func convertRoleToOpenAI(role string) string {
	switch role {
	case "model":
		return openai.ChatMessageRoleAssistant
	case "system":
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

// extractTextFromContent 提取文本内容
func extractTextFromContent(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var texts []string
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// convertTools 转换工具定义
func convertTools(genaiTools []*genai.Tool) ([]openai.Tool, error) {
	var openaiTools []openai.Tool
	for _, genaiTool := range genaiTools {
		if genaiTool == nil {
			continue
		}
		for _, funcDecl := range genaiTool.FunctionDeclarations {
			params, err := declarationParameters(funcDecl)
			if err != nil {
				return nil, err
			}
			openaiTools = append(openaiTools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        funcDecl.Name,
					Description: funcDecl.Description,
					Parameters:  params,
				},
			})
		}
	}
	return openaiTools, nil
}

// declarationParameters 优先使用 ParametersJsonSchema，其次 Parameters
func declarationParameters(decl *genai.FunctionDeclaration) (any, error) {
	if decl.ParametersJsonSchema != nil {
		return decl.ParametersJsonSchema, nil
	}
	if decl.Parameters != nil {
		return decl.Parameters, nil
	}
	return nil, fmt.Errorf("parameters is nil for tool %s", decl.Name)
}

// convertChatCompletionResponse 转换 OpenAI 响应
func convertChatCompletionResponse(resp *openai.ChatCompletionResponse) (*model.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoicesInResponse
	}

	choice := resp.Choices[0]
	content := &genai.Content{
		Role:  genai.RoleModel,
		Parts: []*genai.Part{},
	}
	if choice.Message.ReasoningContent != "" {
		content.Parts = append(content.Parts, &genai.Part{
			Text:    choice.Message.ReasoningContent,
			Thought: true,
		})
	}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.Content})
	}
	for _, toolCall := range choice.Message.ToolCalls {
		if toolCall.Type == openai.ToolTypeFunction {
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   toolCall.ID,
					Name: toolCall.Function.Name,
					Args: parseJSONArgs(toolCall.Function.Arguments),
				},
			})
		}
	}

	var usageMetadata *genai.GenerateContentResponseUsageMetadata
	if resp.Usage.TotalTokens > 0 {
		usageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		}
	}

	return &model.LLMResponse{
		Content:       content,
		UsageMetadata: usageMetadata,
		FinishReason:  convertFinishReason(string(choice.FinishReason)),
		TurnComplete:  true,
	}, nil
}

// convertFinishReason 转换结束原因
func convertFinishReason(reason string) genai.FinishReason {
	switch reason {
	case "stop", "tool_calls", "function_call":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}

// parseJSONArgs 解析 JSON 参数，非法 JSON 返回空 map
func parseJSONArgs(argsJSON string) map[string]any {
	if argsJSON == "" {
		return make(map[string]any)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return make(map[string]any)
	}
	return args
}
