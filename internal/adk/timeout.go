package adk

import (
	"context"
	"iter"
	"time"

	"google.golang.org/adk/model"
)

// TimeoutModel 为每次模型调用设置超时
// 响应先缓存，调用结束时上下文已超时则丢弃已到达的部分并返回超时错误
type TimeoutModel struct {
	model.LLM
	timeout time.Duration
}

// WithCallTimeout 为模型加上单次调用超时；d <= 0 时原样返回
func WithCallTimeout(llm model.LLM, d time.Duration) model.LLM {
	if d <= 0 {
		return llm
	}
	return &TimeoutModel{LLM: llm, timeout: d}
}

var _ model.LLM = (*TimeoutModel)(nil)

// GenerateContent 实现 model.LLM 接口
func (m *TimeoutModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		callCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		var buffered []*model.LLMResponse
		for resp, err := range m.LLM.GenerateContent(callCtx, req, stream) {
			if err != nil {
				yield(nil, err)
				return
			}
			buffered = append(buffered, resp)
		}
		if err := callCtx.Err(); err != nil {
			yield(nil, err)
			return
		}
		for _, resp := range buffered {
			if !yield(resp, nil) {
				return
			}
		}
	}
}
