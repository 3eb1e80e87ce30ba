package planner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/debug"
	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/llm/llmtest"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/ilkoid/pilates-vision/pkg/tools/std"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetchTool подменяет fetch_pilates_exercises и считает выполнения.
type fakeFetchTool struct {
	mu    sync.Mutex
	args  []string
	err   error
	reply string
}

func (f *fakeFetchTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        std.FetchPilatesToolName,
		Description: "fake",
		Parameters:  tools.JSONSchema{"type": "object", "properties": map[string]any{}},
	}
}

func (f *fakeFetchTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.args = append(f.args, argsJSON)
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "Source: https://example.com\nHundred\nRoll Up", nil
}

func (f *fakeFetchTool) executions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.args)
}

func newTestOrchestrator(t *testing.T, provider llm.Provider, tool *fakeFetchTool, opts ...Option) *Orchestrator {
	t.Helper()
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(tool))

	o, err := New(provider, registry, config.PlannerConfig{}, opts...)
	require.NoError(t, err)
	return o
}

func fetchCall(id, args string) llm.Message {
	return llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: id, Name: std.FetchPilatesToolName, Args: args}},
	}
}

func answer(content string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: content}
}

func planJSON(names ...string) string {
	items := make([]map[string]string, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]string{
			"exercise_name":   n,
			"sets":            "3",
			"reps":            "10",
			"clinical_reason": "because",
		})
	}
	data, _ := json.Marshal(map[string]any{"workout_plan": items})
	return string(data)
}

var fiveNames = []string{"Hundred", "Roll Up", "Swan", "Saw", "Spine Stretch"}

func testRequest() Request {
	return Request{
		Profile:          map[string]any{"student_id": 1, "name": "Ana"},
		ClinicalAnalysis: "Detected deviations: Forward head",
		Language:         posture.LangEnglish,
		Subject:          "student-1",
	}
}

func TestGenerate_ForcedToolThenPlan(t *testing.T) {
	tool := &fakeFetchTool{}
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		answer(planJSON(fiveNames...)),
	}}

	plan, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, plan.WorkoutPlan, 5)
	assert.Equal(t, "Hundred", plan.WorkoutPlan[0].ExerciseName)
	assert.Equal(t, 1, tool.executions())

	calls := mock.Calls()
	require.Len(t, calls, 2)

	// Первый ход: принудительный вызов инструмента без json формата
	assert.Equal(t, llm.ToolChoiceForced, calls[0].Options.ToolChoice.Mode)
	assert.Equal(t, std.FetchPilatesToolName, calls[0].Options.ToolChoice.Name)
	assert.Empty(t, calls[0].Options.Format)
	require.Len(t, calls[0].Messages, 2)
	assert.Equal(t, llm.RoleSystem, calls[0].Messages[0].Role)
	assert.Contains(t, calls[0].Messages[0].Content, "Write the entire final workout_plan in English.")
	assert.Contains(t, calls[0].Messages[1].Content, `"name":"Ana"`)
	assert.Contains(t, calls[0].Messages[1].Content, "Clinical analysis:\nDetected deviations: Forward head")

	// Второй ход: auto + json_object, история содержит результат инструмента
	assert.Equal(t, llm.ToolChoiceAuto, calls[1].Options.ToolChoice.Mode)
	assert.Equal(t, llm.FormatJSONObject, calls[1].Options.Format)
	assert.Len(t, calls[1].Options.Tools, 1)

	msgs := calls[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
	assert.True(t, msgs[2].HasToolCalls())
	assert.Equal(t, llm.RoleTool, msgs[3].Role)
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
	assert.Contains(t, msgs[3].Content, "Source: https://example.com")
}

func TestGenerate_PortugueseSystemPrompt(t *testing.T) {
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("c1", "{}"),
		answer(planJSON(fiveNames...)),
	}}
	req := testRequest()
	req.Language = posture.LangPortuguese

	_, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, mock.Calls()[0].Messages[0].Content, "Portuguese (Brazil)")
}

func TestGenerate_DuplicateToolCallNotReExecuted(t *testing.T) {
	tool := &fakeFetchTool{}
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		fetchCall("call_2", "{}"),
		answer(planJSON(fiveNames...)),
	}}

	plan, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, plan.WorkoutPlan, 5)
	assert.Equal(t, 1, tool.executions())

	msgs := mock.Calls()[2].Messages
	last := msgs[len(msgs)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call_2", last.ToolCallID)
	assert.Equal(t, duplicateCallNotice, last.Content)
}

func TestGenerate_DifferentArgsExecuteAgain(t *testing.T) {
	tool := &fakeFetchTool{}
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		fetchCall("call_2", `{"urls":["https://example.com/a"]}`),
		answer(planJSON(fiveNames...)),
	}}

	_, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, tool.executions())
}

func TestGenerate_BudgetExceeded(t *testing.T) {
	tool := &fakeFetchTool{}
	mock := &llmtest.MockLLMProvider{
		Responses: []llm.Message{fetchCall("call_1", "{}")},
		Repeat:    true,
	}

	_, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.Equal(t, 6, MaxModelTurns)

	var budgetErr *BudgetError
	require.True(t, errors.As(err, &budgetErr))
	assert.Equal(t, 6, budgetErr.Turns)
	assert.Equal(t, 6, mock.CallCount())
	assert.Equal(t, 1, tool.executions())
}

func TestGenerate_StrictRetrySucceeds(t *testing.T) {
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		answer("Here are some ideas, no JSON today"),
		answer("```json\n" + planJSON(fiveNames...) + "\n```"),
	}}

	plan, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, plan.WorkoutPlan, 5)

	calls := mock.Calls()
	require.Len(t, calls, 3)

	retry := calls[2]
	assert.Equal(t, llm.ToolChoiceNone, retry.Options.ToolChoice.Mode)
	assert.Equal(t, llm.FormatJSONObject, retry.Options.Format)
	assert.NotEmpty(t, retry.Options.Tools)

	// История + невалидный ответ + корректирующая инструкция
	require.Len(t, retry.Messages, len(calls[1].Messages)+2)
	n := len(retry.Messages)
	assert.Equal(t, llm.RoleAssistant, retry.Messages[n-2].Role)
	assert.Equal(t, "Here are some ideas, no JSON today", retry.Messages[n-2].Content)
	assert.Equal(t, llm.RoleUser, retry.Messages[n-1].Role)
	assert.Equal(t, retryInstruction, retry.Messages[n-1].Content)

	// Результат инструмента остаётся в истории повтора
	var toolMessages int
	for _, m := range retry.Messages {
		if m.Role == llm.RoleTool {
			toolMessages++
		}
	}
	assert.Equal(t, 1, toolMessages)
}

func TestGenerate_StrictRetryFailsWithPreview(t *testing.T) {
	long := "  " + strings.Repeat("é", 400) + "  "
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		answer("not json"),
		answer(long),
	}}

	_, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJSON))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, strings.Repeat("é", 300), parseErr.Preview)
	assert.Equal(t, 3, mock.CallCount())
}

func TestGenerate_EmptyRetryContentFails(t *testing.T) {
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		answer("oops"),
		answer(""),
	}}

	_, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Empty(t, parseErr.Preview)
}

func TestGenerate_RetryIsNotCountedInBudget(t *testing.T) {
	// 5 ходов с разными аргументами + невалидный шестой + retry = 7 вызовов
	responses := []llm.Message{}
	for i := 0; i < 5; i++ {
		responses = append(responses, fetchCall("c", `{"urls":["https://example.com/`+string(rune('a'+i))+`"]}`))
	}
	responses = append(responses, answer("nope"), answer(planJSON(fiveNames...)))
	mock := &llmtest.MockLLMProvider{Responses: responses}

	plan, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, plan.WorkoutPlan, 5)
	assert.Equal(t, 7, mock.CallCount())
}

func TestGenerate_PlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		final   string
		wantIs  error
		wantCnt int
	}{
		{
			name:    "fewer than five after dedup",
			final:   planJSON("Hundred", "hundred", "Swan", "Saw"),
			wantIs:  ErrNotEnoughExercises,
			wantCnt: 3,
		},
		{
			name:    "missing workout_plan",
			final:   `{"plan": []}`,
			wantIs:  ErrNotEnoughExercises,
			wantCnt: 0,
		},
		{
			name:    "empty content is treated as empty object",
			final:   "",
			wantIs:  ErrNotEnoughExercises,
			wantCnt: 0,
		},
		{
			name:   "workout_plan is not a list",
			final:  `{"workout_plan": {"exercise_name": "Hundred"}}`,
			wantIs: ErrInvalidPlanFormat,
		},
		{
			name:   "workout_plan is null",
			final:  `{"workout_plan": null}`,
			wantIs: ErrInvalidPlanFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
				fetchCall("call_1", "{}"),
				answer(tt.final),
			}}

			_, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantIs))
			// Ошибки плана не повторяются
			assert.Equal(t, 2, mock.CallCount())

			var planErr *PlanError
			if errors.As(err, &planErr) {
				assert.Equal(t, tt.wantCnt, planErr.Count)
			}
		})
	}
}

func TestGenerate_SevenEntriesNormalizedToFive(t *testing.T) {
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		answer(planJSON("Hundred", "Roll Up", "HUNDRED", "Swan", "roll up", "Saw", "Teaser")),
	}}

	plan, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, plan.WorkoutPlan, 5)
	assert.Equal(t, "Teaser", plan.WorkoutPlan[4].ExerciseName)
}

func TestGenerate_ToolErrorsAreInlined(t *testing.T) {
	tool := &fakeFetchTool{err: errors.New("invalid arguments")}
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", `{"urls": 5}`),
		answer(planJSON(fiveNames...)),
	}}

	_, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.NoError(t, err)

	msgs := mock.Calls()[1].Messages
	assert.Equal(t, "Error: invalid arguments", msgs[len(msgs)-1].Content)
}

func TestGenerate_UnknownTool(t *testing.T) {
	tool := &fakeFetchTool{}
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "c1", Name: std.FetchPilatesToolName, Args: "{}"},
			{ID: "c2", Name: "delete_database", Args: "{}"},
		}},
		answer(planJSON(fiveNames...)),
	}}

	_, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, tool.executions())

	msgs := mock.Calls()[1].Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, "c2", msgs[4].ToolCallID)
	assert.Equal(t, unknownToolResult, msgs[4].Content)
}

func TestGenerate_ForcedTurnAnsweredWithText(t *testing.T) {
	tool := &fakeFetchTool{}
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		answer(planJSON(fiveNames...)),
	}}

	plan, err := newTestOrchestrator(t, mock, tool).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, plan.WorkoutPlan, 5)
	assert.Equal(t, 0, tool.executions())
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := &llmtest.MockLLMProvider{Err: errors.New("connection refused")}

	_, err := newTestOrchestrator(t, mock, &fakeFetchTool{}).Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "forced_tool_turn")
	assert.Equal(t, 1, mock.CallCount())
}

func TestGenerate_WritesDebugTrace(t *testing.T) {
	dir := t.TempDir()
	mock := &llmtest.MockLLMProvider{Responses: []llm.Message{
		fetchCall("call_1", "{}"),
		fetchCall("call_2", "{}"),
		answer("bad"),
		answer(planJSON(fiveNames...)),
	}}

	_, err := newTestOrchestrator(t, mock, &fakeFetchTool{}, WithDebugTraces(debug.RecorderConfig{LogsDir: dir})).
		Generate(context.Background(), testRequest())
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "plan_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	var trace debug.DebugLog
	require.NoError(t, json.Unmarshal(data, &trace))
	require.Len(t, trace.Turns, 4)
	assert.Equal(t, "forced:"+std.FetchPilatesToolName, trace.Turns[0].ToolChoice)
	assert.Equal(t, "strict_retry", trace.Turns[3].State)
	assert.Equal(t, "none", trace.Turns[3].ToolChoice)
	assert.Equal(t, 1, trace.Summary.TotalDedupSkips)
	assert.Equal(t, 1, trace.Summary.TotalToolsExecuted)
	assert.True(t, trace.Summary.StrictRetryUsed)
	assert.Equal(t, "5 exercises", trace.FinalResult)
}

func TestNew_RequiresFetchTool(t *testing.T) {
	_, err := New(&llmtest.MockLLMProvider{}, tools.NewRegistry(), config.PlannerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), std.FetchPilatesToolName)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "forced_tool_turn", StateForcedToolTurn.String())
	assert.Equal(t, "strict_retry", StateStrictRetry.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "state(42)", State(42).String())
}
