package prompts

import (
	"context"
	"errors"
	"fmt"
)

// SourceRegistry — реестр источников промптов с fallback chain.
//
// Источники пробуются по порядку добавления. Первый успешный Load()
// возвращается. "Не найдено" переходит к следующему источнику,
// любая другая ошибка прерывает поиск.
type SourceRegistry struct {
	sources []PromptSource
}

// NewSourceRegistry создаёт новый реестр источников.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		sources: make([]PromptSource, 0),
	}
}

// AddSource добавляет источник в fallback chain.
func (r *SourceRegistry) AddSource(source PromptSource) {
	r.sources = append(r.sources, source)
}

// Load загружает текст шаблона из первого источника, где он есть.
func (r *SourceRegistry) Load(ctx context.Context, name string) (string, error) {
	if len(r.sources) == 0 {
		return "", fmt.Errorf("no sources configured for prompt '%s'", name)
	}

	for i, source := range r.sources {
		text, err := source.Load(ctx, name)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return "", fmt.Errorf("source %d: %w", i, err)
		}
	}

	return "", fmt.Errorf("%w: '%s'", ErrTemplateNotFound, name)
}

// LoadTemplate загружает и компилирует шаблон.
func (r *SourceRegistry) LoadTemplate(ctx context.Context, name string) (*Template, error) {
	text, err := r.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return Parse(name, text)
}

// HasSources проверяет, есть ли хотя бы один источник.
func (r *SourceRegistry) HasSources() bool {
	return len(r.sources) > 0
}
