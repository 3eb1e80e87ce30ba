package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Recorder записывает трейс запуска планировщика и сохраняет в JSON файл.
//
// Потокобезопасен. Все методы допускают nil-получатель: оркестратор
// вызывает их безусловно, а трейсинг включается созданием Recorder.
type Recorder struct {
	mu sync.Mutex

	config RecorderConfig
	log    DebugLog

	// currentTurn — текущий ход (заполняется по мере выполнения)
	currentTurn *Turn

	visitedTools map[string]struct{}
	errors       []string
}

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir — директория для сохранения трейсов
	LogsDir string

	// IncludeToolArgs — включать аргументы инструментов в лог
	IncludeToolArgs bool

	// IncludeToolResults — включать результаты инструментов в лог
	IncludeToolResults bool

	// MaxResultSize — максимальный размер результата в символах.
	// 0 означает без ограничений.
	MaxResultSize int
}

// NewRecorder создает новый Recorder с заданной конфигурацией.
//
// Если LogsDir не существует, пытается создать её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	return &Recorder{
		config: cfg,
		log: DebugLog{
			RunID:     "plan_" + uuid.NewString(),
			Timestamp: time.Now(),
		},
		visitedTools: make(map[string]struct{}),
	}, nil
}

// Start фиксирует описание запроса и язык плана.
func (r *Recorder) Start(subject, language string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Subject = subject
	r.log.Language = language
	r.log.Timestamp = time.Now()
}

// StartTurn начинает запись нового хода модели.
func (r *Recorder) StartTurn(num int, state, toolChoice, format string, messagesCount int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentTurn = &Turn{
		Number:        num,
		State:         state,
		ToolChoice:    toolChoice,
		Format:        format,
		MessagesCount: messagesCount,
	}
	if state == "strict_retry" {
		r.log.Summary.StrictRetryUsed = true
	}
}

// RecordLLMResponse записывает ответ от LLM.
func (r *Recorder) RecordLLMResponse(resp LLMResponse) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTurn == nil {
		return
	}
	r.currentTurn.Response = resp
	if resp.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("LLM error: %s", resp.Error))
	}
}

// RecordToolExecution записывает выполнение инструмента.
func (r *Recorder) RecordToolExecution(exec ToolExecution) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTurn == nil {
		return
	}

	if !r.config.IncludeToolArgs {
		exec.Args = ""
	}
	if !r.config.IncludeToolResults {
		exec.Result = ""
	} else if r.config.MaxResultSize > 0 && utf8.RuneCountInString(exec.Result) > r.config.MaxResultSize {
		exec.Result = string([]rune(exec.Result)[:r.config.MaxResultSize]) + "... (truncated)"
		exec.ResultTruncated = true
	}

	r.currentTurn.ToolsExecuted = append(r.currentTurn.ToolsExecuted, exec)
	r.visitedTools[exec.Name] = struct{}{}

	if !exec.Success && exec.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("Tool %s: %s", exec.Name, exec.Error))
	}
}

// RecordDedupSkip отмечает повторный вызов, который не выполнялся.
func (r *Recorder) RecordDedupSkip(signature string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTurn != nil {
		r.currentTurn.DedupSkipped = append(r.currentTurn.DedupSkipped, signature)
	}
}

// EndTurn завершает текущий ход.
func (r *Recorder) EndTurn() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTurn != nil {
		r.log.Turns = append(r.log.Turns, *r.currentTurn)
		r.currentTurn = nil
	}
}

// Finalize завершает запись и сохраняет лог в файл.
//
// runErr — итоговая ошибка запуска (nil при успехе).
// Возвращает путь к сохраненному файлу.
func (r *Recorder) Finalize(finalResult string, runErr error, duration time.Duration) (string, error) {
	if r == nil {
		return "", nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Незакрытый ход (например, ошибка провайдера) тоже попадает в трейс
	if r.currentTurn != nil {
		r.log.Turns = append(r.log.Turns, *r.currentTurn)
		r.currentTurn = nil
	}

	r.log.FinalResult = finalResult
	r.log.Duration = duration.Milliseconds()
	if runErr != nil {
		r.log.Error = runErr.Error()
	}
	r.buildSummary()

	data, err := json.MarshalIndent(r.log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal debug log: %w", err)
	}

	filePath := r.getFilePath()
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write debug log: %w", err)
	}

	return filePath, nil
}

// buildSummary формирует агрегированную статистику.
func (r *Recorder) buildSummary() {
	summary := Summary{
		StrictRetryUsed: r.log.Summary.StrictRetryUsed,
		Errors:          r.errors,
		VisitedTools:    make([]string, 0, len(r.visitedTools)),
	}

	for tool := range r.visitedTools {
		summary.VisitedTools = append(summary.VisitedTools, tool)
	}
	sort.Strings(summary.VisitedTools)

	for _, turn := range r.log.Turns {
		summary.TotalLLMCalls++
		summary.TotalLLMDuration += turn.Response.Duration
		summary.TotalDedupSkips += len(turn.DedupSkipped)

		for _, tool := range turn.ToolsExecuted {
			summary.TotalToolsExecuted++
			summary.TotalToolDuration += tool.Duration
		}
	}

	r.log.Summary = summary
}

func (r *Recorder) getFilePath() string {
	if r.config.LogsDir != "" {
		return filepath.Join(r.config.LogsDir, r.log.RunID+".json")
	}
	return r.log.RunID + ".json"
}

// GetRunID возвращает идентификатор текущего запуска.
func (r *Recorder) GetRunID() string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.RunID
}
