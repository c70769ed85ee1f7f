package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func toolRequest() *model.LLMRequest {
	return &model.LLMRequest{
		Contents: []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("Analyze NVDA")}},
			{Role: genai.RoleModel, Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{ID: "toolu_1", Name: "get_stock_data", Args: map[string]any{"ticker": "NVDA"}}},
			}},
			{Role: genai.RoleUser, Parts: []*genai.Part{
				{FunctionResponse: &genai.FunctionResponse{ID: "toolu_1", Name: "get_stock_data", Response: map[string]any{"result": "P/E 50"}}},
			}},
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText("You are a data analyst.")}},
			Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        "get_stock_data",
				Description: "market data",
				ParametersJsonSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"ticker": map[string]any{"type": "string"}},
					"required":   []string{"ticker"},
				},
			}}}},
		},
	}
}

// wire 把参数序列化为请求体，便于断言
func wire(t *testing.T, req *model.LLMRequest) map[string]any {
	t.Helper()
	params, err := toMessageParams(req, "claude-test", 1024)
	require.NoError(t, err)
	data, err := json.Marshal(params)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestToMessageParamsWithTools(t *testing.T) {
	body := wire(t, toolRequest())

	assert.Equal(t, "claude-test", body["model"])
	assert.EqualValues(t, 1024, body["max_tokens"])

	system := body["system"].([]any)
	assert.Equal(t, "You are a data analyst.", system[0].(map[string]any)["text"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 3)
	assistant := messages[1].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	use := assistant["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_use", use["type"])
	assert.Equal(t, "toolu_1", use["id"])

	result := messages[2].(map[string]any)["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_result", result["type"])
	assert.Equal(t, "toolu_1", result["tool_use_id"])

	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	schema := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Equal(t, []any{"ticker"}, schema["required"])
}

func TestToMessageParamsFlattensWhenToolsDisabled(t *testing.T) {
	req := toolRequest()
	req.Config.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone}}
	req.Contents = append(req.Contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("Conclude now.")}})

	body := wire(t, req)
	assert.NotContains(t, body, "tools")

	messages := body["messages"].([]any)
	require.Len(t, messages, 3)
	last := messages[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	blocks := last["content"].([]any)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0].(map[string]any)["text"], "P/E 50")
	assert.Equal(t, "Conclude now.", blocks[1].(map[string]any)["text"])
}

func TestModelGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		_, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Let me check."},{"type":"tool_use","id":"toolu_2","name":"search_news","input":{"query":"NVDA"}}],
			"stop_reason":"tool_use","usage":{"input_tokens":12,"output_tokens":8}}`))
	}))
	defer srv.Close()

	m := NewModel("claude-test", "sk-ant", srv.URL, 0)
	assert.Equal(t, "claude-test", m.Name())

	for resp, err := range m.GenerateContent(context.Background(), toolRequest(), false) {
		require.NoError(t, err)
		require.Len(t, resp.Content.Parts, 2)
		assert.Equal(t, "Let me check.", resp.Content.Parts[0].Text)
		fc := resp.Content.Parts[1].FunctionCall
		require.NotNil(t, fc)
		assert.Equal(t, "toolu_2", fc.ID)
		assert.Equal(t, map[string]any{"query": "NVDA"}, fc.Args)
		assert.Equal(t, genai.FinishReasonStop, resp.FinishReason)
		assert.Equal(t, int32(20), resp.UsageMetadata.TotalTokenCount)
	}
}
