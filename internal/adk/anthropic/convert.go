package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// toMessageParams 将 ADK 请求转换为 Messages API 参数
// 禁用工具时 Anthropic 仍要求携带 tools 定义才能出现 tool_use 块，因此把工具往来压平为文本
func toMessageParams(req *model.LLMRequest, modelName string, maxTokens int64) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: maxTokens,
	}

	cfg := req.Config
	flatten := cfg != nil && toolsDisabled(cfg)

	for _, content := range req.Contents {
		msg, ok, err := toMessageParam(content, flatten)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		if ok {
			params.Messages = append(params.Messages, msg)
		}
	}
	params.Messages = mergeSameRole(params.Messages)

	if cfg == nil {
		return params, nil
	}
	if system := textOf(cfg.SystemInstruction); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if !flatten {
		tools, err := convertTools(cfg.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	if cfg.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*cfg.Temperature))
	}
	if cfg.MaxOutputTokens > 0 {
		params.MaxTokens = int64(cfg.MaxOutputTokens)
	}
	if len(cfg.StopSequences) > 0 {
		params.StopSequences = cfg.StopSequences
	}
	return params, nil
}

func toolsDisabled(cfg *genai.GenerateContentConfig) bool {
	return cfg.ToolConfig != nil && cfg.ToolConfig.FunctionCallingConfig != nil &&
		cfg.ToolConfig.FunctionCallingConfig.Mode == genai.FunctionCallingConfigModeNone
}

// toMessageParam 转换单条 genai.Content
func toMessageParam(content *genai.Content, flatten bool) (anthropic.MessageParam, bool, error) {
	if content == nil {
		return anthropic.MessageParam{}, false, nil
	}
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range content.Parts {
		switch {
		case part == nil || part.Thought:
		case part.FunctionCall != nil:
			if flatten {
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return anthropic.MessageParam{}, false, fmt.Errorf("failed to marshal function args: %w", err)
				}
				blocks = append(blocks, anthropic.NewTextBlock(fmt.Sprintf("[called %s(%s)]", part.FunctionCall.Name, args)))
				continue
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(part.FunctionCall.ID, part.FunctionCall.Args, part.FunctionCall.Name))
		case part.FunctionResponse != nil:
			output := responseText(part.FunctionResponse.Response)
			if flatten {
				blocks = append(blocks, anthropic.NewTextBlock(fmt.Sprintf("[%s result]\n%s", part.FunctionResponse.Name, output)))
				continue
			}
			blocks = append(blocks, anthropic.NewToolResultBlock(part.FunctionResponse.ID, output, false))
		case part.Text != "":
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		}
	}
	if len(blocks) == 0 {
		return anthropic.MessageParam{}, false, nil
	}
	if content.Role == genai.RoleModel {
		return anthropic.NewAssistantMessage(blocks...), true, nil
	}
	return anthropic.NewUserMessage(blocks...), true, nil
}

// mergeSameRole 合并相邻同角色消息，Messages API 要求角色交替
func mergeSameRole(msgs []anthropic.MessageParam) []anthropic.MessageParam {
	if len(msgs) < 2 {
		return msgs
	}
	out := msgs[:1]
	for _, m := range msgs[1:] {
		last := &out[len(out)-1]
		if last.Role == m.Role {
			last.Content = append(last.Content, m.Content...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// responseText 工具结果优先取 result 字段的文本
func responseText(resp map[string]any) string {
	if s, ok := resp["result"].(string); ok {
		return s
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprint(resp)
	}
	return string(data)
}

func textOf(content *genai.Content) string {
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

// convertTools 转换工具定义，schema 取 properties 与 required
func convertTools(genaiTools []*genai.Tool) ([]anthropic.ToolUnionParam, error) {
	var out []anthropic.ToolUnionParam
	for _, t := range genaiTools {
		if t == nil {
			continue
		}
		for _, decl := range t.FunctionDeclarations {
			schema, err := inputSchema(decl)
			if err != nil {
				return nil, err
			}
			out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
				Name:        decl.Name,
				Description: anthropic.String(decl.Description),
				InputSchema: schema,
			}})
		}
	}
	return out, nil
}

func inputSchema(decl *genai.FunctionDeclaration) (anthropic.ToolInputSchemaParam, error) {
	raw := decl.ParametersJsonSchema
	if raw == nil && decl.Parameters != nil {
		raw = decl.Parameters
	}
	if raw == nil {
		return anthropic.ToolInputSchemaParam{}, fmt.Errorf("parameters is nil for tool %s", decl.Name)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return anthropic.ToolInputSchemaParam{}, fmt.Errorf("marshal schema for %s: %w", decl.Name, err)
	}
	var schema struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return anthropic.ToolInputSchemaParam{}, fmt.Errorf("decode schema for %s: %w", decl.Name, err)
	}
	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
		Required:   schema.Required,
	}, nil
}

// convertMessage 转换 Messages API 响应
func convertMessage(msg *anthropic.Message) *model.LLMResponse {
	content := &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{}}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: block.Text})
			}
		case "thinking":
			if block.Thinking != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: block.Thinking, Thought: true})
			}
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &args)
			}
			content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			}})
		}
	}

	resp := &model.LLMResponse{
		Content:      content,
		FinishReason: convertStopReason(string(msg.StopReason)),
		TurnComplete: true,
	}
	if msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0 {
		resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(msg.Usage.InputTokens),
			CandidatesTokenCount: int32(msg.Usage.OutputTokens),
			TotalTokenCount:      int32(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		}
	}
	return resp
}

func convertStopReason(reason string) genai.FinishReason {
	switch reason {
	case "end_turn", "tool_use", "stop_sequence":
		return genai.FinishReasonStop
	case "max_tokens":
		return genai.FinishReasonMaxTokens
	case "refusal":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}
