package models

import "fmt"

// ConfigurationError 配置缺失或非法，启动时即失败
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// ResolutionError 无法从问题中识别出任何股票代码
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no tickers identified in query %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("no tickers identified in query %q", e.Query)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ModelCallError 模型调用失败；对终止阶段是致命错误
type ModelCallError struct {
	Stage string
	Err   error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed in %s: %v", e.Stage, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// ToolError 工具调用失败，会被转成文本交给模型，不会向上传播
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
