// Package workflow 按声明的读写字段调度研究阶段
//
// 每个阶段声明读取与写入的状态字段，引擎据此构建静态依赖图：
// 读取字段全部就绪且写入字段尚未填充的阶段进入就绪集，同一就绪集并发执行，
// 结果在整层完成后按声明顺序合并。
package workflow

import (
	"context"
	"slices"

	"github.com/nekouibeam/investment-agent/internal/models"
)

// Kind 阶段类型（封闭集合）
type Kind string

const (
	KindDataAnalysis   Kind = "data_analysis"
	KindNewsAnalysis   Kind = "news_analysis"
	KindRiskAssessment Kind = "risk_assessment"
	KindReportCompiler Kind = "report_compiler"
)

// Kinds 全部阶段类型
var Kinds = []Kind{KindDataAnalysis, KindNewsAnalysis, KindRiskAssessment, KindReportCompiler}

// Valid 是否属于已知阶段类型
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// Descriptor 阶段的静态声明
type Descriptor struct {
	Kind     Kind
	Reads    []models.Field
	Writes   models.Field
	Terminal bool
}

// Stage 工作流中的一个阶段
// Run 只能通过 View 读取已声明的字段，返回的叙述由引擎写入 Writes 字段
type Stage interface {
	Descriptor() Descriptor
	Run(ctx context.Context, view View) (models.Narrative, error)
}

// StageFunc 以函数实现 Stage
type StageFunc struct {
	Desc Descriptor
	Fn   func(ctx context.Context, view View) (models.Narrative, error)
}

// Descriptor 实现 Stage
func (s StageFunc) Descriptor() Descriptor { return s.Desc }

// Run 实现 Stage
func (s StageFunc) Run(ctx context.Context, view View) (models.Narrative, error) {
	return s.Fn(ctx, view)
}

// View 阶段可见的只读状态切片
type View struct {
	state *models.State
	reads []models.Field
}

func newView(state *models.State, reads []models.Field) View {
	return View{state: state, reads: reads}
}

func (v View) allowed(f models.Field) bool {
	return slices.Contains(v.reads, f)
}

// Query 返回用户问题；未声明读取 query 时返回空
func (v View) Query() (models.Query, bool) {
	if !v.allowed(models.FieldQuery) {
		return "", false
	}
	return v.state.Query(), true
}

// Tickers 返回代码列表；未声明读取 tickers 时返回 false
func (v View) Tickers() ([]models.Ticker, bool) {
	if !v.allowed(models.FieldTickers) {
		return nil, false
	}
	return v.state.Tickers(), true
}

// Narrative 读取叙述字段；未声明或尚未填充时返回 false
func (v View) Narrative(f models.Field) (models.Narrative, bool) {
	if !v.allowed(f) {
		return "", false
	}
	return v.state.Narrative(f)
}
