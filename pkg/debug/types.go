// Package debug записывает трейсы запусков оркестратора плана упражнений.
//
// Трейс сохраняется в JSON файл и позволяет разобрать, какие ходы сделала
// модель, какие инструменты были выполнены и почему запуск завершился так,
// как завершился.
package debug

import "time"

// DebugLog представляет полный трейс одного запуска планировщика.
type DebugLog struct {
	// RunID — уникальный идентификатор запуска (используется в имени файла)
	RunID string `json:"run_id"`

	// Timestamp — время начала выполнения
	Timestamp time.Time `json:"timestamp"`

	// Subject — краткое описание запроса (например, ID студента)
	Subject string `json:"subject"`

	// Language — язык итогового плана
	Language string `json:"language,omitempty"`

	// Duration — общая длительность выполнения в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Turns — ходы модели по порядку, включая strict retry
	Turns []Turn `json:"turns"`

	// Summary — агрегированная статистика выполнения
	Summary Summary `json:"summary"`

	// FinalResult — итог запуска (например, "5 exercises")
	FinalResult string `json:"final_result,omitempty"`

	// Error — ошибка если выполнение завершилось неудачно
	Error string `json:"error,omitempty"`
}

// Turn представляет один вызов модели.
type Turn struct {
	// Number — номер хода (начиная с 1)
	Number int `json:"turn"`

	// State — состояние оркестратора, в котором сделан ход
	State string `json:"state"`

	// ToolChoice — режим выбора инструмента: auto, none или forced:<name>
	ToolChoice string `json:"tool_choice"`

	// Format — формат ответа (например, "json_object")
	Format string `json:"format,omitempty"`

	// MessagesCount — количество сообщений в запросе
	MessagesCount int `json:"messages_count"`

	// Response — ответ модели
	Response LLMResponse `json:"response"`

	// ToolsExecuted — инструменты, реально выполненные по итогам хода
	ToolsExecuted []ToolExecution `json:"tools_executed,omitempty"`

	// DedupSkipped — сигнатуры повторных вызовов, которые не выполнялись
	DedupSkipped []string `json:"dedup_skipped,omitempty"`
}

// LLMResponse содержит ответ от LLM.
type LLMResponse struct {
	// Content — текстовый ответ
	Content string `json:"content,omitempty"`

	// ToolCalls — список вызовов инструментов
	ToolCalls []ToolCallInfo `json:"tool_calls,omitempty"`

	// Duration — длительность генерации в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Error — ошибка если произошла
	Error string `json:"error,omitempty"`
}

// ToolCallInfo описывает вызов инструмента от LLM.
type ToolCallInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// ToolExecution описывает выполнение одного инструмента.
type ToolExecution struct {
	// Name — имя инструмента
	Name string `json:"name"`

	// Args — аргументы (если включено в конфиге)
	Args string `json:"args,omitempty"`

	// Result — результат выполнения (может быть обрезан по MaxResultSize)
	Result string `json:"result,omitempty"`

	// ResultTruncated — true если результат был обрезан
	ResultTruncated bool `json:"result_truncated,omitempty"`

	// Duration — длительность выполнения в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Success — true если выполнение прошло успешно
	Success bool `json:"success"`

	// Error — описание ошибки если неуспешно
	Error string `json:"error,omitempty"`
}

// Summary содержит агрегированную статистику выполнения.
type Summary struct {
	TotalLLMCalls      int      `json:"total_llm_calls"`
	TotalToolsExecuted int      `json:"total_tools_executed"`
	TotalDedupSkips    int      `json:"total_dedup_skips"`
	StrictRetryUsed    bool     `json:"strict_retry_used"`
	TotalLLMDuration   int64    `json:"total_llm_duration_ms"`
	TotalToolDuration  int64    `json:"total_tool_duration_ms"`
	Errors             []string `json:"errors,omitempty"`
	VisitedTools       []string `json:"visited_tools,omitempty"`
}
