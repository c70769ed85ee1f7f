package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
)

var log = logger.New("Workflow")

var (
	ErrStagePanic = errors.New("stage panicked")
	ErrStalled    = errors.New("no stage is ready but the terminal output is missing")
)

// Resolver 识别问题中的股票代码
type Resolver interface {
	Resolve(ctx context.Context, query models.Query) ([]models.Ticker, error)
}

// Options 引擎选项，零值表示不限制
type Options struct {
	StageTimeout time.Duration
	RunTimeout   time.Duration
	Progress     models.ProgressCallback
}

// Engine 工作流引擎，构建后不可变，可被多个请求并发使用
type Engine struct {
	resolver Resolver
	stages   []Stage
	terminal int
	opts     Options
}

// New 校验阶段图并创建引擎
func New(resolver Resolver, stages []Stage, opts Options) (*Engine, error) {
	if resolver == nil {
		return nil, &models.ConfigurationError{Key: "resolver", Reason: "no ticker resolver"}
	}
	terminal, err := validate(stages)
	if err != nil {
		return nil, err
	}
	return &Engine{
		resolver: resolver,
		stages:   slices.Clone(stages),
		terminal: terminal,
		opts:     opts,
	}, nil
}

// validate 检查阶段图，返回终止阶段下标
func validate(stages []Stage) (int, error) {
	if len(stages) == 0 {
		return -1, &models.ConfigurationError{Key: "stages", Reason: "no stages"}
	}

	writers := make(map[models.Field]int, len(stages))
	kinds := make(map[Kind]bool, len(stages))
	terminal := -1
	for i, s := range stages {
		d := s.Descriptor()
		if !d.Kind.Valid() {
			return -1, &models.ConfigurationError{Key: "stages", Reason: fmt.Sprintf("unknown stage kind %q", d.Kind)}
		}
		if kinds[d.Kind] {
			return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: "stage declared twice"}
		}
		kinds[d.Kind] = true

		if d.Writes.IsBase() || !d.Writes.IsKnown() {
			return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: fmt.Sprintf("cannot write field %q", d.Writes)}
		}
		if prev, ok := writers[d.Writes]; ok {
			return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: fmt.Sprintf("field %q is already written by %s", d.Writes, stages[prev].Descriptor().Kind)}
		}
		writers[d.Writes] = i

		if d.Terminal {
			if terminal >= 0 {
				return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: "more than one terminal stage"}
			}
			if d.Writes != models.FieldFinalReport {
				return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: "terminal stage must write final_report"}
			}
			terminal = i
		}
	}
	if terminal < 0 {
		return -1, &models.ConfigurationError{Key: "stages", Reason: "no terminal stage"}
	}

	// 入度：每个读取的非基础字段都指向其写入者
	indegree := make([]int, len(stages))
	dependents := make([][]int, len(stages))
	for i, s := range stages {
		d := s.Descriptor()
		for _, f := range d.Reads {
			if !f.IsKnown() {
				return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: fmt.Sprintf("reads unknown field %q", f)}
			}
			if f.IsBase() {
				continue
			}
			w, ok := writers[f]
			if !ok {
				return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: fmt.Sprintf("reads %q which no stage writes", f)}
			}
			if w == terminal {
				return -1, &models.ConfigurationError{Key: string(d.Kind), Reason: "reads the terminal output"}
			}
			indegree[i]++
			dependents[w] = append(dependents[w], i)
		}
	}

	// Kahn 拓扑排序检测环
	queue := make([]int, 0, len(stages))
	for i, n := range indegree {
		if n == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		visited++
		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if visited != len(stages) {
		return -1, &models.ConfigurationError{Key: "stages", Reason: "dependency cycle between stages"}
	}
	return terminal, nil
}

// Run 执行一次研究，返回终态
// 无法识别代码时返回 ResolutionError；终止阶段失败时返回 ModelCallError
func (e *Engine) Run(ctx context.Context, state *models.State) (*models.State, error) {
	if e.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RunTimeout)
		defer cancel()
	}
	runID := RunID(ctx)
	start := time.Now()
	e.emit(models.ProgressEvent{Type: models.EventRunStart, RunID: runID, Detail: string(state.Query())})

	if err := e.resolve(ctx, state, runID); err != nil {
		return nil, err
	}

	done := make([]bool, len(e.stages))
	for !state.Has(models.FieldFinalReport) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted: %w", err)
		}
		ready := e.readySet(state, done)
		if len(ready) == 0 {
			return nil, ErrStalled
		}

		results := e.dispatch(ctx, state, ready, runID)

		// 按声明顺序合并，结果与完成先后无关
		for n, i := range ready {
			done[i] = true
			r := results[n]
			if i == e.terminal && !r.OK() {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("run aborted: %w", err)
				}
				var mcErr *models.ModelCallError
				if errors.As(r.Err, &mcErr) {
					return nil, mcErr
				}
				return nil, &models.ModelCallError{Stage: r.Stage, Err: r.Err}
			}
			if err := state.Apply(r); err != nil {
				return nil, fmt.Errorf("merge %s: %w", r.Stage, err)
			}
		}
	}

	log.Info("run %s finished in %v (degraded: %d)", runID, time.Since(start).Round(time.Millisecond), len(state.Degraded()))
	e.emit(models.ProgressEvent{Type: models.EventRunDone, RunID: runID, Elapsed: time.Since(start).Round(time.Millisecond).String()})
	return state, nil
}

// resolve 代码列表为空时调用解析器
func (e *Engine) resolve(ctx context.Context, state *models.State, runID string) error {
	if len(state.Tickers()) > 0 {
		return nil
	}
	tickers, err := e.resolver.Resolve(ctx, state.Query())
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("resolve tickers: %w", err)
	}
	if len(tickers) == 0 {
		return &models.ResolutionError{Query: string(state.Query()), Err: err}
	}
	if err := state.SetTickers(tickers); err != nil {
		return &models.ResolutionError{Query: string(state.Query()), Err: err}
	}
	log.Info("run %s resolved tickers: %s", runID, models.JoinTickers(tickers))
	e.emit(models.ProgressEvent{Type: models.EventResolved, RunID: runID, Detail: models.JoinTickers(tickers)})
	return nil
}

// readySet 读取字段齐备且写入字段为空的阶段，按声明顺序
func (e *Engine) readySet(state *models.State, done []bool) []int {
	var ready []int
	for i, s := range e.stages {
		if done[i] {
			continue
		}
		d := s.Descriptor()
		if state.Has(d.Writes) {
			done[i] = true
			continue
		}
		if !slices.ContainsFunc(d.Reads, func(f models.Field) bool { return !state.Has(f) }) {
			ready = append(ready, i)
		}
	}
	return ready
}

// dispatch 并发执行同一层的阶段，等待全部完成
func (e *Engine) dispatch(ctx context.Context, state *models.State, ready []int, runID string) []models.StageResult {
	results := make([]models.StageResult, len(ready))
	var wg sync.WaitGroup
	for n, i := range ready {
		wg.Add(1)
		go func(n int, s Stage) {
			defer wg.Done()
			results[n] = e.runStage(ctx, s, state, runID)
		}(n, e.stages[i])
	}
	wg.Wait()
	return results
}

// runStage 执行单个阶段，超时与 panic 都转换为失败结果
func (e *Engine) runStage(ctx context.Context, s Stage, state *models.State, runID string) (result models.StageResult) {
	d := s.Descriptor()
	name := string(d.Kind)
	start := time.Now()

	if e.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.StageTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("stage %s panicked: %v", name, r)
			result = models.Failure(name, d.Writes, fmt.Errorf("%w: %v", ErrStagePanic, r))
		}
		elapsed := time.Since(start).Round(time.Millisecond).String()
		if !result.OK() {
			log.Warn("run %s stage %s failed after %s: %v", runID, name, elapsed, result.Err)
			e.emit(models.ProgressEvent{Type: models.EventStageError, RunID: runID, Stage: name, Detail: result.Err.Error(), Elapsed: elapsed})
			return
		}
		log.Debug("run %s stage %s done in %s, len=%d", runID, name, elapsed, len(result.Narrative))
		e.emit(models.ProgressEvent{Type: models.EventStageDone, RunID: runID, Stage: name, Elapsed: elapsed})
	}()

	e.emit(models.ProgressEvent{Type: models.EventStageStart, RunID: runID, Stage: name})
	narrative, err := s.Run(ctx, newView(state, d.Reads))
	if err != nil {
		return models.Failure(name, d.Writes, err)
	}
	return models.Success(name, d.Writes, narrative)
}

func (e *Engine) emit(event models.ProgressEvent) {
	if e.opts.Progress == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	e.opts.Progress(event)
}

type runIDKey struct{}

// WithRunID 把运行 ID 放入 context，用于日志与进度事件
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID 取出运行 ID，没有时返回空
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
