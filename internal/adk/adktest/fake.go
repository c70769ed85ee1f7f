// Package adktest 提供可编排的假模型，用于测试 Agent 与工作流
package adktest

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrScriptExhausted 脚本响应已用完
var ErrScriptExhausted = errors.New("adktest: no scripted response left")

// RespondFunc 根据请求返回响应
type RespondFunc func(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error)

// Model 假模型，记录所有请求
type Model struct {
	ModelName string
	Respond   RespondFunc

	mu       sync.Mutex
	requests []*model.LLMRequest
}

var _ model.LLM = (*Model)(nil)

// New 以响应函数创建假模型
func New(respond RespondFunc) *Model {
	return &Model{ModelName: "fake", Respond: respond}
}

// Step 脚本中的一步
type Step struct {
	Response *model.LLMResponse
	Err      error
}

// Script 按顺序依次返回响应，用完后返回 ErrScriptExhausted
func Script(steps ...Step) *Model {
	var (
		mu sync.Mutex
		i  int
	)
	return New(func(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(steps) {
			return nil, ErrScriptExhausted
		}
		s := steps[i]
		i++
		return s.Response, s.Err
	})
}

// Name 返回模型名称
func (m *Model) Name() string {
	return m.ModelName
}

// GenerateContent 实现 model.LLM 接口
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		m.mu.Lock()
		m.requests = append(m.requests, req)
		m.mu.Unlock()

		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		resp, err := m.Respond(ctx, req)
		yield(resp, err)
	}
}

// Requests 返回已收到的请求副本
func (m *Model) Requests() []*model.LLMRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.LLMRequest(nil), m.requests...)
}

// Text 构造纯文本响应
func Text(text string) *model.LLMResponse {
	return &model.LLMResponse{
		Content:      &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		TurnComplete: true,
	}
}

// Call 构造函数调用响应；id 为空时由调用方补齐
func Call(id, name string, args map[string]any) *model.LLMResponse {
	return &model.LLMResponse{
		Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
			{FunctionCall: &genai.FunctionCall{ID: id, Name: name, Args: args}},
		}},
		TurnComplete: true,
	}
}

// SystemText 返回请求的系统指令文本
func SystemText(req *model.LLMRequest) string {
	if req == nil || req.Config == nil || req.Config.SystemInstruction == nil {
		return ""
	}
	return joinText(req.Config.SystemInstruction)
}

// UserText 返回请求中第一条用户消息的文本
func UserText(req *model.LLMRequest) string {
	for _, c := range req.Contents {
		if c != nil && c.Role == genai.RoleUser {
			if text := joinText(c); text != "" {
				return text
			}
		}
	}
	return ""
}

// ToolsDisabled 请求是否禁止工具调用
func ToolsDisabled(req *model.LLMRequest) bool {
	cfg := req.Config
	return cfg != nil && cfg.ToolConfig != nil && cfg.ToolConfig.FunctionCallingConfig != nil &&
		cfg.ToolConfig.FunctionCallingConfig.Mode == genai.FunctionCallingConfigModeNone
}

// FunctionResponses 返回请求中全部函数响应
func FunctionResponses(req *model.LLMRequest) []*genai.FunctionResponse {
	var out []*genai.FunctionResponse
	for _, c := range req.Contents {
		if c == nil {
			continue
		}
		for _, p := range c.Parts {
			if p != nil && p.FunctionResponse != nil {
				out = append(out, p.FunctionResponse)
			}
		}
	}
	return out
}

func joinText(c *genai.Content) string {
	var texts []string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}
