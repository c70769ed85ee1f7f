package adk

import (
	"context"
	"iter"

	"golang.org/x/time/rate"
	"google.golang.org/adk/model"
)

// NewLimiter 按每分钟请求数创建限流器，burst 默认为 1
func NewLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// LimitedModel 每次调用前等待限流器
type LimitedModel struct {
	model.LLM
	limiter *rate.Limiter
}

// WithLimiter 为模型加上限流；limiter 为 nil 时原样返回
func WithLimiter(llm model.LLM, limiter *rate.Limiter) model.LLM {
	if limiter == nil {
		return llm
	}
	return &LimitedModel{LLM: llm, limiter: limiter}
}

var _ model.LLM = (*LimitedModel)(nil)

// GenerateContent 实现 model.LLM 接口
func (m *LimitedModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if err := m.limiter.Wait(ctx); err != nil {
			yield(nil, err)
			return
		}
		for resp, err := range m.LLM.GenerateContent(ctx, req, stream) {
			if !yield(resp, err) {
				return
			}
		}
	}
}
