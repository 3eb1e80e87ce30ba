// Package llmtest содержит мок llm.Provider для тестов.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/ilkoid/pilates-vision/pkg/llm"
)

// Call — один зафиксированный вызов Generate.
type Call struct {
	Messages []llm.Message
	Options  llm.GenerateOptions
}

// MockLLMProvider — мок LLM провайдера для детерминированного тестирования.
//
// Возвращает Responses по порядку. Если Responses закончились, возвращает
// последний ответ (Repeat) или ошибку.
type MockLLMProvider struct {
	// Responses — последовательность ответов для возврата
	Responses []llm.Message
	// Err — ошибка, возвращаемая вместо ответа
	Err error
	// Repeat — повторять последний ответ, когда Responses закончились
	Repeat bool

	mu    sync.Mutex
	calls []Call
}

var _ llm.Provider = (*MockLLMProvider)(nil)

// Generate реализует llm.Provider интерфейс.
func (m *MockLLMProvider) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := append([]llm.Message(nil), messages...)
	m.calls = append(m.calls, Call{Messages: snapshot, Options: llm.ApplyOptions(opts...)})

	if m.Err != nil {
		return llm.Message{}, m.Err
	}

	idx := len(m.calls) - 1
	if idx >= len(m.Responses) {
		if m.Repeat && len(m.Responses) > 0 {
			return m.Responses[len(m.Responses)-1], nil
		}
		return llm.Message{}, errors.New("unexpected call: no more responses")
	}
	return m.Responses[idx], nil
}

// Calls возвращает копию истории вызовов.
func (m *MockLLMProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount — количество вызовов Generate.
func (m *MockLLMProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
