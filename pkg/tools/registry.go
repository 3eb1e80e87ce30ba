package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// toolNamePattern — ограничение имён функций у OpenAI и Gemini.
var toolNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]{0,63}$`)

// Registry — потокобезопасный набор инструментов, доступных модели.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register добавляет инструмент. Невалидная схема или повторное имя — ошибка.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()
	if err := validateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = tool
	return nil
}

// Get ищет инструмент по имени. Неизвестное имя — ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Has сообщает, зарегистрирован ли инструмент.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// GetDefinitions возвращает определения, отсортированные по имени:
// одинаковый набор инструментов даёт одинаковый запрос к модели.
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// validateDefinition проверяет имя и корень схемы аргументов.
func validateDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if !toolNamePattern.MatchString(def.Name) {
		return fmt.Errorf("tool '%s': name must match %s", def.Name, toolNamePattern)
	}
	if def.Parameters == nil {
		return fmt.Errorf("tool '%s': parameters cannot be nil", def.Name)
	}

	// Через JSON: схема может быть собрана из []string, map[string]any и т.п.
	raw, err := json.Marshal(def.Parameters)
	if err != nil {
		return fmt.Errorf("tool '%s': failed to marshal parameters: %w", def.Name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return fmt.Errorf("tool '%s': parameters must be a JSON object: %w", def.Name, err)
	}

	if typ, _ := params["type"].(string); typ != "object" {
		return fmt.Errorf("tool '%s': parameters.type must be 'object', got %v", def.Name, params["type"])
	}

	if props, exists := params["properties"]; exists {
		if _, ok := props.(map[string]any); !ok {
			return fmt.Errorf("tool '%s': parameters.properties must be an object", def.Name)
		}
	}

	if req, exists := params["required"]; exists {
		list, ok := req.([]any)
		if !ok {
			return fmt.Errorf("tool '%s': parameters.required must be an array", def.Name)
		}
		for i, item := range list {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("tool '%s': parameters.required[%d] must be a string, got %T", def.Name, i, item)
			}
		}
	}

	return nil
}
