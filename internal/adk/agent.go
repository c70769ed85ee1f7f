package adk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"github.com/nekouibeam/investment-agent/internal/adk/tools"
	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
)

var log = logger.New("Agent")

// 默认配置
const (
	DefaultMaxIterations = 6
	DefaultCallTimeout   = 90 * time.Second

	appName = "investment-agent"
	userID  = "analyst"
)

// concludePrompt 工具轮数用尽后要求模型直接作答
const concludePrompt = "The tool-call budget is exhausted. Do not call any more tools. Write your final answer now using only the information gathered so far."

var (
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrMaxIterations = errors.New("tool loop reached the iteration cap without a final answer")
)

// Agent 有界的工具推理循环
// 基于 llmagent 与 runner 运行；模型回调负责轮数上限与收尾调用
type Agent struct {
	Name          string
	LLM           model.LLM
	Instruction   string
	Tools         []tool.Tool
	MaxIterations int
	CallTimeout   time.Duration
	Temperature   *float32
	MaxTokens     int32
	Progress      models.ProgressCallback
}

// Run 以单条用户消息运行 Agent，返回最终文本
func (a *Agent) Run(ctx context.Context, userText string) (string, error) {
	guard := newLoopGuard(a)

	timeout := a.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	cfg := llmagent.Config{
		Name:  a.Name,
		Model: WithCallTimeout(a.LLM, timeout),
		GenerateContentConfig: &genai.GenerateContentConfig{
			Temperature:     a.Temperature,
			MaxOutputTokens: a.MaxTokens,
		},
		Tools:                a.Tools,
		BeforeModelCallbacks: []llmagent.BeforeModelCallback{guard.beforeModel},
		AfterModelCallbacks:  []llmagent.AfterModelCallback{guard.afterModel},
		BeforeToolCallbacks:  []llmagent.BeforeToolCallback{guard.beforeTool},
		AfterToolCallbacks:   []llmagent.AfterToolCallback{guard.afterTool},
	}
	// 指令中可能包含 JSON 示例，不走占位符替换
	if a.Instruction != "" {
		instruction := a.Instruction
		cfg.InstructionProvider = func(agent.ReadonlyContext) (string, error) {
			return instruction, nil
		}
	}
	agentInstance, err := llmagent.New(cfg)
	if err != nil {
		return "", fmt.Errorf("build agent %s: %w", a.Name, err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          agentInstance,
		SessionService: sessionService,
	})
	if err != nil {
		return "", err
	}

	sessionID := fmt.Sprintf("session-%s-%d", a.Name, time.Now().UnixNano())
	_, err = sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("create session error: %w", err)
	}

	userMsg := genai.NewContentFromText(userText, genai.RoleUser)
	var answer string
	for event, err := range r.Run(ctx, userID, sessionID, userMsg, agent.RunConfig{}) {
		if err != nil {
			return "", err
		}
		if event == nil || event.Author != a.Name || event.Partial || !event.IsFinalResponse() {
			continue
		}
		if text, _ := splitResponse(event.Content); text != "" {
			answer = text
		}
	}
	if answer == "" {
		return "", ErrEmptyResponse
	}
	log.Debug("%s finished after %d model call(s), len=%d", a.Name, guard.calls, len(answer))
	return answer, nil
}

// loopGuard 单次运行的状态：模型调用计数、最近的中间文本、调用 ID 序号
type loopGuard struct {
	agent    *Agent
	maxIter  int
	names    []string
	calls    int
	callSeq  int
	lastText string
	req      *model.LLMRequest
}

func newLoopGuard(a *Agent) *loopGuard {
	maxIter := a.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	names := make([]string, 0, len(a.Tools))
	for _, t := range a.Tools {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return &loopGuard{agent: a, maxIter: maxIter, names: names}
}

// concluding 是否已超出工具轮数，本次调用须直接作答
func (g *loopGuard) concluding() bool {
	return g.calls > g.maxIter
}

func (g *loopGuard) beforeModel(ctx agent.CallbackContext, req *model.LLMRequest) (*model.LLMResponse, error) {
	g.calls++
	g.req = req
	if !g.concluding() {
		return nil, nil
	}

	log.Warn("%s hit the iteration cap (%d), asking for a final answer", g.agent.Name, g.maxIter)
	if req.Config == nil {
		req.Config = &genai.GenerateContentConfig{}
	}
	req.Config.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone},
	}
	// 请求内容是会话事件的副本，可直接修改
	if n := len(req.Contents); n > 0 && req.Contents[n-1].Role == genai.RoleUser {
		last := req.Contents[n-1]
		last.Parts = append(last.Parts, genai.NewPartFromText(concludePrompt))
	} else {
		req.Contents = append(req.Contents, genai.NewContentFromText(concludePrompt, genai.RoleUser))
	}
	return nil, nil
}

func (g *loopGuard) afterModel(ctx agent.CallbackContext, resp *model.LLMResponse, respErr error) (*model.LLMResponse, error) {
	if g.concluding() {
		return g.conclude(resp, respErr)
	}
	if respErr != nil || resp == nil || resp.Partial {
		return nil, nil
	}

	text, calls := splitResponse(resp.Content)
	if text != "" {
		g.lastText = text
	}
	if len(calls) == 0 {
		if text == "" {
			return nil, ErrEmptyResponse
		}
		return nil, nil
	}

	for _, fc := range calls {
		if fc.ID == "" {
			g.callSeq++
			fc.ID = fmt.Sprintf("call_%d", g.callSeq)
		}
		if fc.Args == nil {
			fc.Args = map[string]any{}
		}
		if _, ok := g.req.Tools[fc.Name]; ok {
			continue
		}
		log.Warn("%s requested unknown tool %q", g.agent.Name, fc.Name)
		fallback, err := g.unavailableTool(fc.Name)
		if err != nil {
			return nil, err
		}
		if g.req.Tools == nil {
			g.req.Tools = make(map[string]any)
		}
		g.req.Tools[fc.Name] = fallback
	}
	return nil, nil
}

// conclude 收尾调用的结果：优先本次文本，其次最近的中间文本
func (g *loopGuard) conclude(resp *model.LLMResponse, respErr error) (*model.LLMResponse, error) {
	var text string
	if respErr == nil && resp != nil {
		text, _ = splitResponse(resp.Content)
	}
	if text == "" {
		text = g.lastText
	}
	if text == "" {
		if respErr != nil {
			return nil, respErr
		}
		return nil, ErrMaxIterations
	}
	return &model.LLMResponse{
		Content:      genai.NewContentFromText(text, genai.RoleModel),
		TurnComplete: true,
	}, nil
}

// unavailableTool 为未注册的工具名生成替身，把可用工具列表告诉模型
func (g *loopGuard) unavailableTool(name string) (tool.Tool, error) {
	msg := fmt.Sprintf("Error: tool %q is not available. Available tools: %s", name, strings.Join(g.names, ", "))
	return functiontool.New(functiontool.Config{
		Name:        name,
		Description: "unavailable tool",
	}, func(tool.Context, map[string]any) (tools.Output, error) {
		return tools.Output{Result: msg}, nil
	})
}

func (g *loopGuard) beforeTool(ctx tool.Context, t tool.Tool, args map[string]any) (map[string]any, error) {
	g.emit(models.EventToolCall, t.Name(), fmt.Sprintf("%v", args))
	return nil, nil
}

func (g *loopGuard) afterTool(ctx tool.Context, t tool.Tool, args, result map[string]any, err error) (map[string]any, error) {
	var detail string
	switch {
	case err != nil:
		detail = err.Error()
	case result["result"] != nil:
		detail = fmt.Sprint(result["result"])
	case result["error"] != nil:
		detail = fmt.Sprint(result["error"])
	}
	g.emit(models.EventToolResult, t.Name(), truncateString(detail, 200))
	return nil, nil
}

func (g *loopGuard) emit(eventType, toolName, detail string) {
	if g.agent.Progress == nil {
		return
	}
	g.agent.Progress(models.ProgressEvent{
		Type:   eventType,
		Stage:  g.agent.Name,
		Tool:   toolName,
		Detail: detail,
		Time:   time.Now(),
	})
}

// splitResponse 提取非思考文本与函数调用
func splitResponse(content *genai.Content) (string, []*genai.FunctionCall) {
	if content == nil {
		return "", nil
	}
	var (
		sb    strings.Builder
		calls []*genai.FunctionCall
	)
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return strings.TrimSpace(sb.String()), calls
}

// truncateString 截断字符串
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
