// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Role — роль автора сообщения в диалоге.
type Role string

// Роли сообщений (совпадают с Chat Completions API).
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение диалога.
//
// Для assistant-сообщений ToolCalls заполнен, если модель решила вызвать функции.
// Для tool-сообщений ToolCallID связывает результат с вызовом, а Name хранит
// имя инструмента (нужно провайдерам без ID вызовов, например Gemini).
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall — запрос модели на вызов инструмента.
type ToolCall struct {
	ID   string
	Name string
	Args string // сырой JSON аргументов, как его прислала модель
}

// Signature возвращает ключ дедупликации вызова: имя + сериализованные аргументы.
func (tc ToolCall) Signature() string {
	return tc.Name + ":" + tc.Args
}

// HasToolCalls сообщает, запросила ли модель вызов инструментов.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
