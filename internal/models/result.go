package models

// StageResult 单个阶段的执行结果
type StageResult struct {
	Stage     string
	Field     Field
	Narrative Narrative
	Err       error
}

// Success 成功结果
func Success(stage string, field Field, n Narrative) StageResult {
	return StageResult{Stage: stage, Field: field, Narrative: n}
}

// Failure 失败结果
func Failure(stage string, field Field, err error) StageResult {
	return StageResult{Stage: stage, Field: field, Err: err}
}

// OK 是否成功
func (r StageResult) OK() bool { return r.Err == nil }
