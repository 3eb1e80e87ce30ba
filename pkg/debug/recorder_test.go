package debug

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_FinalizeWritesTrace(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(RecorderConfig{
		LogsDir:            dir,
		IncludeToolArgs:    true,
		IncludeToolResults: true,
		MaxResultSize:      5,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.GetRunID(), "plan_"))

	rec.Start("student-1", "English")

	rec.StartTurn(1, "forced_tool_turn", "forced:fetch_pilates_exercises", "", 2)
	rec.RecordLLMResponse(LLMResponse{
		ToolCalls: []ToolCallInfo{{ID: "c1", Name: "fetch_pilates_exercises", Args: "{}"}},
		Duration:  12,
	})
	rec.RecordToolExecution(ToolExecution{Name: "fetch_pilates_exercises", Args: "{}", Result: "Source: página", Duration: 3, Success: true})
	rec.EndTurn()

	rec.StartTurn(2, "model_turn", "auto", "json_object", 4)
	rec.RecordLLMResponse(LLMResponse{
		ToolCalls: []ToolCallInfo{{ID: "c2", Name: "fetch_pilates_exercises", Args: "{}"}},
		Duration:  8,
	})
	rec.RecordDedupSkip("fetch_pilates_exercises:{}")
	rec.EndTurn()

	rec.StartTurn(3, "strict_retry", "none", "json_object", 6)
	rec.RecordLLMResponse(LLMResponse{Content: "nope", Error: "parse failed"})

	path, err := rec.Finalize("", errors.New("invalid json"), 40*time.Millisecond)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got DebugLog
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "student-1", got.Subject)
	assert.Equal(t, "invalid json", got.Error)
	assert.Equal(t, int64(40), got.Duration)
	require.Len(t, got.Turns, 3)
	assert.Equal(t, "strict_retry", got.Turns[2].State)

	exec := got.Turns[0].ToolsExecuted[0]
	assert.Equal(t, "Sourc... (truncated)", exec.Result)
	assert.True(t, exec.ResultTruncated)

	assert.Equal(t, 3, got.Summary.TotalLLMCalls)
	assert.Equal(t, 1, got.Summary.TotalToolsExecuted)
	assert.Equal(t, 1, got.Summary.TotalDedupSkips)
	assert.True(t, got.Summary.StrictRetryUsed)
	assert.Equal(t, int64(20), got.Summary.TotalLLMDuration)
	assert.Equal(t, []string{"fetch_pilates_exercises"}, got.Summary.VisitedTools)
	assert.Len(t, got.Summary.Errors, 1)
}

func TestRecorder_OmitsToolPayloadByDefault(t *testing.T) {
	rec, err := NewRecorder(RecorderConfig{LogsDir: t.TempDir()})
	require.NoError(t, err)

	rec.StartTurn(1, "forced_tool_turn", "forced:x", "", 1)
	rec.RecordToolExecution(ToolExecution{Name: "x", Args: `{"a":1}`, Result: "big", Success: true})
	rec.EndTurn()

	assert.Empty(t, rec.log.Turns[0].ToolsExecuted[0].Args)
	assert.Empty(t, rec.log.Turns[0].ToolsExecuted[0].Result)
}

func TestRecorder_NilSafe(t *testing.T) {
	var rec *Recorder

	assert.NotPanics(t, func() {
		rec.Start("s", "English")
		rec.StartTurn(1, "model_turn", "auto", "", 1)
		rec.RecordLLMResponse(LLMResponse{})
		rec.RecordToolExecution(ToolExecution{})
		rec.RecordDedupSkip("x:{}")
		rec.EndTurn()
	})

	path, err := rec.Finalize("", nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, rec.GetRunID())
}
