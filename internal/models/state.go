package models

import (
	"errors"
	"fmt"
	"slices"
)

// Field 工作流状态中的字段名
type Field string

const (
	FieldQuery          Field = "query"
	FieldTickers        Field = "tickers"
	FieldDataAnalysis   Field = "data_analysis"
	FieldNewsAnalysis   Field = "news_analysis"
	FieldRiskAssessment Field = "risk_assessment"
	FieldFinalReport    Field = "final_report"
)

// NarrativeFields 由阶段写入的叙述字段，按拓扑顺序排列
var NarrativeFields = []Field{FieldDataAnalysis, FieldNewsAnalysis, FieldRiskAssessment, FieldFinalReport}

// IsBase 判断字段是否由运行入口（而非阶段）填充
func (f Field) IsBase() bool {
	return f == FieldQuery || f == FieldTickers
}

// IsKnown 判断字段是否属于状态记录
func (f Field) IsKnown() bool {
	return f.IsBase() || slices.Contains(NarrativeFields, f)
}

// Narrative 阶段产出的自由文本，引擎不解析其内容
type Narrative string

var (
	ErrFieldAlreadySet = errors.New("field already set")
	ErrUnknownField    = errors.New("unknown field")
	ErrNoTickers       = errors.New("ticker list is empty")
)

// State 单次研究的共享状态
// 只追加：每个字段最多写入一次，写入后不可覆盖
type State struct {
	query      Query
	tickers    []Ticker
	narratives map[Field]Narrative
	degraded   map[Field]string
}

// NewState 以用户问题创建状态
func NewState(query Query) *State {
	return &State{
		query:      query,
		narratives: make(map[Field]Narrative, len(NarrativeFields)),
		degraded:   make(map[Field]string),
	}
}

// Query 返回用户问题
func (s *State) Query() Query { return s.query }

// Tickers 返回代码列表副本
func (s *State) Tickers() []Ticker { return slices.Clone(s.tickers) }

// SetTickers 写入代码列表，只能写一次且不能为空
func (s *State) SetTickers(tickers []Ticker) error {
	if len(s.tickers) > 0 {
		return fmt.Errorf("%s: %w", FieldTickers, ErrFieldAlreadySet)
	}
	if len(tickers) == 0 {
		return ErrNoTickers
	}
	s.tickers = slices.Clone(tickers)
	return nil
}

// Narrative 读取叙述字段
func (s *State) Narrative(f Field) (Narrative, bool) {
	n, ok := s.narratives[f]
	return n, ok
}

// Has 判断字段是否已填充（包括占位文本）
func (s *State) Has(f Field) bool {
	switch f {
	case FieldQuery:
		return true
	case FieldTickers:
		return len(s.tickers) > 0
	default:
		_, ok := s.narratives[f]
		return ok
	}
}

// Degraded 返回以占位文本填充的字段及原因
func (s *State) Degraded() map[Field]string {
	out := make(map[Field]string, len(s.degraded))
	for k, v := range s.degraded {
		out[k] = v
	}
	return out
}

// Apply 合并阶段结果：成功写入叙述，失败写入占位文本
// 字段已存在时返回 ErrFieldAlreadySet 且不修改状态
func (s *State) Apply(r StageResult) error {
	if r.Field.IsBase() || !r.Field.IsKnown() {
		return fmt.Errorf("%s: %w", r.Field, ErrUnknownField)
	}
	if _, ok := s.narratives[r.Field]; ok {
		return fmt.Errorf("%s: %w", r.Field, ErrFieldAlreadySet)
	}
	if !r.OK() {
		s.narratives[r.Field] = Placeholder(r.Stage, r.Err)
		s.degraded[r.Field] = r.Err.Error()
		return nil
	}
	s.narratives[r.Field] = r.Narrative
	return nil
}

// Placeholder 失败阶段的占位叙述，下游阶段照常读取
func Placeholder(stage string, err error) Narrative {
	return Narrative(fmt.Sprintf("[%s unavailable: %v]", stage, err))
}
