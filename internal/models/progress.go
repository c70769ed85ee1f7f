package models

import "time"

// 进度事件类型
const (
	EventRunStart   = "run_start"
	EventResolved   = "tickers_resolved"
	EventStageStart = "stage_start"
	EventStageDone  = "stage_done"
	EventStageError = "stage_error"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventRunDone    = "run_done"
)

// ProgressEvent 进度事件（细粒度实时反馈）
type ProgressEvent struct {
	Type    string    `json:"type"`
	RunID   string    `json:"runId,omitempty"`
	Stage   string    `json:"stage,omitempty"`
	Tool    string    `json:"tool,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	Elapsed string    `json:"elapsed,omitempty"`
	Time    time.Time `json:"time"`
}

// ProgressCallback 进度回调，可能被多个 goroutine 并发调用
type ProgressCallback func(event ProgressEvent)
