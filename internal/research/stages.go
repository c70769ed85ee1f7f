package research

import (
	"context"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"

	"github.com/nekouibeam/investment-agent/internal/adk"
	"github.com/nekouibeam/investment-agent/internal/adk/tools"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/workflow"
)

// agentSettings 各阶段共享的模型调用参数
type agentSettings struct {
	llm           model.LLM
	language      string
	maxIterations int
	callTimeout   time.Duration
	temperature   *float32
	maxTokens     int32
	progress      models.ProgressCallback
}

func (s agentSettings) agent(ctx context.Context, kind workflow.Kind, persona string, tl []tool.Tool) *adk.Agent {
	a := &adk.Agent{
		Name:          string(kind),
		LLM:           s.llm,
		Instruction:   instruction(persona, s.language),
		Tools:         tl,
		MaxIterations: s.maxIterations,
		CallTimeout:   s.callTimeout,
		Temperature:   s.temperature,
		MaxTokens:     s.maxTokens,
	}
	if s.progress != nil {
		runID := workflow.RunID(ctx)
		a.Progress = func(e models.ProgressEvent) {
			e.RunID = runID
			s.progress(e)
		}
	}
	return a
}

// analysisStage 数据分析与新闻分析共用的实现：固定人设、单一工具、有界循环
type analysisStage struct {
	desc     workflow.Descriptor
	persona  string
	verb     string
	tool     tool.Tool
	settings agentSettings
}

func newAnalysisStage(kind workflow.Kind, writes models.Field, persona, verb string, t tool.Tool, s agentSettings) *analysisStage {
	return &analysisStage{
		desc: workflow.Descriptor{
			Kind:   kind,
			Reads:  []models.Field{models.FieldQuery, models.FieldTickers},
			Writes: writes,
		},
		persona:  persona,
		verb:     verb,
		tool:     t,
		settings: s,
	}
}

func (a *analysisStage) Descriptor() workflow.Descriptor { return a.desc }

func (a *analysisStage) Run(ctx context.Context, view workflow.View) (models.Narrative, error) {
	query, _ := view.Query()
	tickers, _ := view.Tickers()
	agent := a.settings.agent(ctx, a.desc.Kind, a.persona, []tool.Tool{a.tool})
	out, err := agent.Run(ctx, tickerTask(a.verb, tickers, query))
	if err != nil {
		return "", err
	}
	return models.Narrative(out), nil
}

// synthesisStage 读取上游叙述、单次模型调用、不使用工具
type synthesisStage struct {
	desc     workflow.Descriptor
	persona  string
	ask      string
	settings agentSettings
}

// 上游叙述在 prompt 中的标题与缺省文本
var (
	inputTitles = map[models.Field]string{
		models.FieldDataAnalysis:   "Data Analysis",
		models.FieldNewsAnalysis:   "News Analysis",
		models.FieldRiskAssessment: "Risk Assessment",
	}
	missingInput = map[models.Field]string{
		models.FieldDataAnalysis:   "No data analysis provided.",
		models.FieldNewsAnalysis:   "No news analysis provided.",
		models.FieldRiskAssessment: "No risk assessment provided.",
	}
)

func newSynthesisStage(kind workflow.Kind, writes models.Field, terminal bool, persona, ask string, inputs []models.Field, s agentSettings) *synthesisStage {
	return &synthesisStage{
		desc: workflow.Descriptor{
			Kind:     kind,
			Reads:    append([]models.Field{models.FieldQuery}, inputs...),
			Writes:   writes,
			Terminal: terminal,
		},
		persona:  persona,
		ask:      ask,
		settings: s,
	}
}

func (s *synthesisStage) Descriptor() workflow.Descriptor { return s.desc }

func (s *synthesisStage) Run(ctx context.Context, view workflow.View) (models.Narrative, error) {
	query, _ := view.Query()
	var sections []section
	for _, f := range s.desc.Reads {
		if f.IsBase() {
			continue
		}
		body := missingInput[f]
		if n, ok := view.Narrative(f); ok && n != "" {
			body = string(n)
		}
		sections = append(sections, section{title: inputTitles[f], body: body})
	}
	agent := s.settings.agent(ctx, s.desc.Kind, s.persona, nil)
	out, err := agent.Run(ctx, compose(query, sections, s.ask))
	if err != nil {
		return "", err
	}
	return models.Narrative(out), nil
}

// buildStages 固定的四阶段图
func buildStages(registry *tools.Registry, s agentSettings) ([]workflow.Stage, error) {
	ts, err := registry.GetTools(tools.StockDataToolName, tools.SearchNewsToolName)
	if err != nil {
		return nil, &models.ConfigurationError{Key: "tools", Reason: err.Error()}
	}
	stockTool, newsTool := ts[0], ts[1]

	return []workflow.Stage{
		newAnalysisStage(workflow.KindDataAnalysis, models.FieldDataAnalysis, dataAnalystPersona, "Analyze", stockTool, s),
		newAnalysisStage(workflow.KindNewsAnalysis, models.FieldNewsAnalysis, newsAnalystPersona, "Find and analyze news for", newsTool, s),
		newSynthesisStage(workflow.KindRiskAssessment, models.FieldRiskAssessment, false, riskManagerPersona,
			"Please provide your risk assessment.",
			[]models.Field{models.FieldDataAnalysis, models.FieldNewsAnalysis}, s),
		newSynthesisStage(workflow.KindReportCompiler, models.FieldFinalReport, true, editorPersona,
			"Please write the final investment report.",
			[]models.Field{models.FieldDataAnalysis, models.FieldNewsAnalysis, models.FieldRiskAssessment}, s),
	}, nil
}
