package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/debug"
	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/ilkoid/pilates-vision/pkg/tools/std"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// MaxModelTurns — лимит ходов модели за запуск, включая принудительный.
// Строгий повтор в лимит не входит.
const MaxModelTurns = 6

// State — состояние оркестратора внутри одного запуска.
//
// Переходы:
//
//	ForcedToolTurn → ToolExecution → ModelTurn → (ToolExecution → ModelTurn)*
//	ModelTurn → Done | StrictRetry | Failed
//	StrictRetry → Done | Failed
type State int

const (
	StateForcedToolTurn State = iota
	StateModelTurn
	StateToolExecution
	StateStrictRetry
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateForcedToolTurn:
		return "forced_tool_turn"
	case StateModelTurn:
		return "model_turn"
	case StateToolExecution:
		return "tool_execution"
	case StateStrictRetry:
		return "strict_retry"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request — входные данные генерации плана.
type Request struct {
	// Profile сериализуется в JSON как есть (порядок полей структуры сохраняется)
	Profile any

	// ClinicalAnalysis — клинический текст (анализ или сводка отклонений)
	ClinicalAnalysis string

	// Language — язык итогового плана
	Language posture.Language

	// Subject — метка запуска для логов и трейсов (например, ID студента)
	Subject string
}

// Plan — результат успешного запуска.
type Plan struct {
	WorkoutPlan []ExerciseItem `json:"workout_plan"`
}

// Orchestrator ведёт диалог с моделью: принудительный вызов инструмента,
// выполнение инструментов с дедупликацией, разбор JSON и одну strict retry.
//
// Не хранит состояние между вызовами Generate: вся история живёт в run.
type Orchestrator struct {
	provider llm.Provider
	registry *tools.Registry
	cfg      config.PlannerConfig
	toolName string
	traces   *debug.RecorderConfig
}

// Option настраивает Orchestrator.
type Option func(*Orchestrator)

// WithDebugTraces включает сохранение JSON трейса каждого запуска.
func WithDebugTraces(cfg debug.RecorderConfig) Option {
	return func(o *Orchestrator) {
		o.traces = &cfg
	}
}

// New создаёт оркестратор.
//
// Реестр обязан содержать fetch_pilates_exercises: первый ход модели
// принудительно вызывает именно его.
func New(provider llm.Provider, registry *tools.Registry, cfg config.PlannerConfig, opts ...Option) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("planner: provider is nil")
	}
	if registry == nil || !registry.Has(std.FetchPilatesToolName) {
		return nil, fmt.Errorf("planner: tool %q is not registered", std.FetchPilatesToolName)
	}

	o := &Orchestrator{
		provider: provider,
		registry: registry,
		cfg:      cfg.GetDefaults(),
		toolName: std.FetchPilatesToolName,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Generate выполняет один запуск и возвращает план ровно из пяти упражнений.
//
// Ошибки: *BudgetError (лимит ходов), *ParseError (невалидный JSON после
// retry), ErrInvalidPlanFormat, *PlanError (меньше пяти упражнений),
// а также ошибки провайдера. Ни одна из них не повторяется.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Plan, error) {
	start := time.Now()

	userPrompt, err := buildUserPrompt(req.Profile, req.ClinicalAnalysis)
	if err != nil {
		return nil, err
	}

	r := &run{
		o:     o,
		state: StateForcedToolTurn,
		seen:  make(map[string]struct{}),
		history: []llm.Message{
			{Role: llm.RoleSystem, Content: buildSystemPrompt(o.toolName, req.Language.OutputLanguage())},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		recorder: o.newRecorder(),
	}
	r.recorder.Start(req.Subject, req.Language.OutputLanguage())

	utils.Info("Planner run started",
		"subject", req.Subject,
		"language", string(req.Language),
		"max_turns", MaxModelTurns,
		"run_id", r.recorder.GetRunID())

	plan, err := r.execute(ctx)

	outcome := ""
	if plan != nil {
		outcome = fmt.Sprintf("%d exercises", len(plan.WorkoutPlan))
	}
	if path, ferr := r.recorder.Finalize(outcome, err, time.Since(start)); ferr != nil {
		utils.Warn("Failed to save planner trace", "error", ferr)
	} else if path != "" {
		utils.Debug("Planner trace saved", "path", path)
	}

	if err != nil {
		utils.Error("Planner run failed",
			"subject", req.Subject,
			"turns", r.turns,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	utils.Info("Planner run finished",
		"subject", req.Subject,
		"turns", r.turns,
		"tool_executions", r.executed,
		"strict_retry", r.retried,
		"duration_ms", time.Since(start).Milliseconds())
	return plan, nil
}

func (o *Orchestrator) newRecorder() *debug.Recorder {
	if o.traces == nil {
		return nil
	}
	rec, err := debug.NewRecorder(*o.traces)
	if err != nil {
		utils.Warn("Planner traces disabled for this run", "error", err)
		return nil
	}
	return rec
}

// run — состояние одного вызова Generate.
type run struct {
	o        *Orchestrator
	recorder *debug.Recorder

	state   State
	history []llm.Message

	// turns — ходы модели в счёт лимита (strict retry не считается)
	turns int
	// calls — все вызовы модели, для нумерации в трейсе
	calls int

	seen     map[string]struct{}
	pending  []llm.ToolCall
	executed int

	// invalidContent — ответ, который не удалось разобрать
	invalidContent string
	retried        bool

	plan *Plan
	err  error
}

func (r *run) execute(ctx context.Context) (*Plan, error) {
	for {
		switch r.state {
		case StateForcedToolTurn, StateModelTurn:
			r.modelTurn(ctx)
		case StateToolExecution:
			r.executeTools(ctx)
		case StateStrictRetry:
			r.strictRetry(ctx)
		case StateDone:
			return r.plan, nil
		case StateFailed:
			return nil, r.err
		default:
			return nil, fmt.Errorf("planner: unexpected state %s", r.state)
		}
	}
}

func (r *run) transition(next State) {
	utils.Debug("Planner state", "from", r.state.String(), "to", next.String(), "turn", r.turns)
	r.state = next
}

func (r *run) fail(err error) {
	r.err = err
	r.recorder.EndTurn()
	r.transition(StateFailed)
}

func (r *run) modelTurn(ctx context.Context) {
	if r.turns >= MaxModelTurns {
		r.fail(&BudgetError{Turns: r.turns})
		return
	}

	forced := r.state == StateForcedToolTurn
	choice := llm.ToolChoice{Mode: llm.ToolChoiceAuto}
	format := llm.FormatJSONObject
	if forced {
		choice = llm.ForceTool(r.o.toolName)
		format = ""
	}

	opts := []llm.GenerateOption{
		llm.WithTools(r.o.registry.GetDefinitions()),
		llm.WithToolChoice(choice),
	}
	if format != "" {
		opts = append(opts, llm.WithFormat(format))
	}

	r.turns++
	resp, ok := r.call(ctx, r.history, choice, format, opts)
	if !ok {
		return
	}

	if resp.HasToolCalls() {
		r.history = append(r.history, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		r.pending = resp.ToolCalls
		r.transition(StateToolExecution)
		return
	}

	if forced {
		utils.Warn("Model skipped the forced tool call, parsing text answer", "tool", r.o.toolName)
	}

	content := resp.Content
	if content == "" {
		content = "{}"
	}
	parsed, err := ParseModelJSON(content)
	r.recorder.EndTurn()
	if err != nil {
		utils.Warn("Model answer is not valid JSON, retrying strictly",
			"turn", r.turns,
			"error", err,
			"preview", utils.Preview(strings.TrimSpace(resp.Content), r.o.cfg.PreviewChars))
		r.invalidContent = resp.Content
		r.transition(StateStrictRetry)
		return
	}
	r.finish(parsed)
}

func (r *run) executeTools(ctx context.Context) {
	calls := r.pending
	r.pending = nil

	for _, tc := range calls {
		if err := ctx.Err(); err != nil {
			r.fail(err)
			return
		}

		sig := tc.Signature()
		if _, dup := r.seen[sig]; dup {
			utils.Info("Duplicate tool call skipped", "tool", tc.Name, "call_id", tc.ID)
			r.recorder.RecordDedupSkip(sig)
			r.appendToolResult(tc, duplicateCallNotice)
			continue
		}
		r.seen[sig] = struct{}{}

		r.appendToolResult(tc, r.runTool(ctx, tc))
	}

	r.recorder.EndTurn()
	r.transition(StateModelTurn)
}

// runTool выполняет инструмент. Ошибки инструмента не фатальны:
// модель получает их текстом и продолжает.
func (r *run) runTool(ctx context.Context, tc llm.ToolCall) string {
	tool, err := r.o.registry.Get(tc.Name)
	if err != nil {
		utils.Warn("Model called unknown tool", "tool", tc.Name)
		return unknownToolResult
	}

	start := time.Now()
	result, err := tool.Execute(ctx, tc.Args)
	duration := time.Since(start)
	r.executed++

	exec := debug.ToolExecution{
		Name:     tc.Name,
		Args:     tc.Args,
		Result:   result,
		Duration: duration.Milliseconds(),
		Success:  err == nil,
	}
	if err != nil {
		exec.Error = err.Error()
		result = "Error: " + err.Error()
		utils.Warn("Tool execution failed", "tool", tc.Name, "error", err)
	} else {
		utils.Info("Tool executed",
			"tool", tc.Name,
			"result_chars", len([]rune(result)),
			"duration_ms", duration.Milliseconds())
	}
	r.recorder.RecordToolExecution(exec)

	return result
}

func (r *run) appendToolResult(tc llm.ToolCall, content string) {
	r.history = append(r.history, llm.Message{
		Role:       llm.RoleTool,
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    content,
	})
}

// strictRetry повторяет запрос один раз: история + невалидный ответ +
// корректирующая инструкция. Инструменты запрещены, формат json_object.
func (r *run) strictRetry(ctx context.Context) {
	r.retried = true

	messages := make([]llm.Message, 0, len(r.history)+2)
	messages = append(messages, r.history...)
	messages = append(messages,
		llm.Message{Role: llm.RoleAssistant, Content: r.invalidContent},
		llm.Message{Role: llm.RoleUser, Content: retryInstruction},
	)

	choice := llm.ToolChoice{Mode: llm.ToolChoiceNone}
	opts := []llm.GenerateOption{
		llm.WithTools(r.o.registry.GetDefinitions()),
		llm.WithToolChoice(choice),
		llm.WithFormat(llm.FormatJSONObject),
	}

	resp, ok := r.call(ctx, messages, choice, llm.FormatJSONObject, opts)
	if !ok {
		return
	}
	r.recorder.EndTurn()

	parsed, err := ParseModelJSON(resp.Content)
	if err != nil {
		r.fail(&ParseError{
			Preview: utils.Preview(strings.TrimSpace(resp.Content), r.o.cfg.PreviewChars),
			Err:     err,
		})
		return
	}
	r.finish(parsed)
}

// call выполняет один запрос к модели и пишет его в трейс.
// При ошибке провайдера переводит запуск в Failed и возвращает false.
func (r *run) call(ctx context.Context, messages []llm.Message, choice llm.ToolChoice, format string, opts []llm.GenerateOption) (llm.Message, bool) {
	r.calls++
	r.recorder.StartTurn(r.calls, r.state.String(), choiceLabel(choice), format, len(messages))

	start := time.Now()
	resp, err := r.o.provider.Generate(ctx, messages, opts...)
	duration := time.Since(start)

	trace := debug.LLMResponse{Duration: duration.Milliseconds()}
	if err != nil {
		trace.Error = err.Error()
		r.recorder.RecordLLMResponse(trace)
		r.fail(fmt.Errorf("planner %s (turn %d): %w", r.state, r.turns, err))
		return llm.Message{}, false
	}

	trace.Content = resp.Content
	for _, tc := range resp.ToolCalls {
		trace.ToolCalls = append(trace.ToolCalls, debug.ToolCallInfo{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	r.recorder.RecordLLMResponse(trace)

	utils.Info("Planner model turn",
		"state", r.state.String(),
		"turn", r.turns,
		"tool_choice", choiceLabel(choice),
		"tool_calls", len(resp.ToolCalls),
		"duration_ms", duration.Milliseconds())

	return resp, true
}

func (r *run) finish(parsed map[string]any) {
	raw, ok := parsed["workout_plan"]
	if !ok {
		raw = []any{}
	}
	items, ok := raw.([]any)
	if !ok {
		r.fail(fmt.Errorf("%w: got %T", ErrInvalidPlanFormat, raw))
		return
	}

	exercises, err := Normalize(items)
	if err != nil {
		r.fail(err)
		return
	}

	r.plan = &Plan{WorkoutPlan: exercises}
	r.transition(StateDone)
}

func choiceLabel(c llm.ToolChoice) string {
	if c.Mode == llm.ToolChoiceForced {
		return "forced:" + c.Name
	}
	return string(c.Mode)
}
