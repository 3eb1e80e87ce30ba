// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider — абстракция над LLM API.
//
// Реализации: pkg/llm/openai (OpenAI-совместимые API), pkg/llm/gemini.
type Provider interface {
	// Generate принимает контекст и историю сообщений.
	// Возвращает ответ модели в унифицированном формате Message.
	// opts — инструменты, режим выбора инструмента, формат ответа и т.д.
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)
}
