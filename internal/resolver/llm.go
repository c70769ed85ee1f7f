package resolver

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/adk/model"

	"github.com/nekouibeam/investment-agent/internal/adk"
	"github.com/nekouibeam/investment-agent/internal/models"
)

const llmInstruction = `You extract stock ticker symbols from investment questions.
Return ONLY a JSON array of upper-case ticker symbols listed on US exchanges, in the order the companies are mentioned.
Map company names to their primary ticker (for example "Nvidia" -> "NVDA", "Micron" -> "MU").
If no company or ticker is mentioned, return [].`

// LLM 让模型给出代码列表
type LLM struct {
	llm model.LLM
}

// NewLLM 创建基于模型的解析器
func NewLLM(llm model.LLM) *LLM {
	return &LLM{llm: llm}
}

// Resolve 实现 Resolver
func (r *LLM) Resolve(ctx context.Context, query models.Query) ([]models.Ticker, error) {
	if r.llm == nil {
		return nil, fmt.Errorf("llm resolver: no model configured")
	}
	zero := float32(0)
	agent := &adk.Agent{
		Name:        "resolver",
		LLM:         r.llm,
		Instruction: llmInstruction,
		Temperature: &zero,
	}
	content, err := agent.Run(ctx, string(query))
	if err != nil {
		return nil, fmt.Errorf("llm resolver: %w", err)
	}
	return parseTickers(content)
}

// parseTickers 解析模型输出中的 JSON 数组
func parseTickers(content string) ([]models.Ticker, error) {
	raw := adk.ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in response: %q", truncate(content, 200))
	}
	var symbols []string
	if err := json.Unmarshal([]byte(raw), &symbols); err != nil {
		return nil, fmt.Errorf("parse ticker array: %w", err)
	}
	tickers := models.NormalizeTickers(symbols)
	log.Debug("llm resolved %v", tickers)
	return tickers, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
