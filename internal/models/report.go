package models

import (
	"fmt"
	"sort"
)

// Report 对外返回的研究报告
type Report struct {
	RunID          string            `json:"run_id"`
	Query          string            `json:"query"`
	Tickers        []string          `json:"tickers"`
	DataAnalysis   string            `json:"data_analysis"`
	NewsAnalysis   string            `json:"news_analysis"`
	RiskAssessment string            `json:"risk_assessment"`
	FinalReport    string            `json:"final_report"`
	Degraded       map[string]string `json:"degraded,omitempty"` // 使用占位文本的字段 -> 原因
}

// NewReport 从终态状态生成报告，final_report 缺失时返回错误
func NewReport(runID string, s *State) (*Report, error) {
	final, ok := s.Narrative(FieldFinalReport)
	if !ok {
		return nil, fmt.Errorf("%s missing from state", FieldFinalReport)
	}
	tickers := s.Tickers()
	r := &Report{
		RunID:       runID,
		Query:       s.Query().String(),
		Tickers:     make([]string, len(tickers)),
		FinalReport: string(final),
	}
	for i, t := range tickers {
		r.Tickers[i] = t.String()
	}
	if n, ok := s.Narrative(FieldDataAnalysis); ok {
		r.DataAnalysis = string(n)
	}
	if n, ok := s.Narrative(FieldNewsAnalysis); ok {
		r.NewsAnalysis = string(n)
	}
	if n, ok := s.Narrative(FieldRiskAssessment); ok {
		r.RiskAssessment = string(n)
	}
	if d := s.Degraded(); len(d) > 0 {
		r.Degraded = make(map[string]string, len(d))
		for f, reason := range d {
			r.Degraded[string(f)] = reason
		}
	}
	return r, nil
}

// DegradedFields 返回降级字段名（排序后），便于日志输出
func (r *Report) DegradedFields() []string {
	out := make([]string, 0, len(r.Degraded))
	for f := range r.Degraded {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
