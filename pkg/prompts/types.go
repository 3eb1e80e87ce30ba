package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/ilkoid/pilates-vision/pkg/prompts/sources"
)

// ErrTemplateNotFound возвращается, когда ни один источник не содержит шаблон.
var ErrTemplateNotFound = sources.ErrNotFound

// Template — загруженный шаблон системного промпта.
//
// Единственная переменная подстановки — {{.OutputLanguage}}.
type Template struct {
	Name string
	tmpl *template.Template
}

// templateData — данные для рендеринга шаблона.
type templateData struct {
	OutputLanguage string
}

// Parse компилирует текст шаблона. Пустой текст — ошибка конфигурации.
func Parse(name, text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt template %q is empty", name)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %q: %w", name, err)
	}
	return &Template{Name: name, tmpl: tmpl}, nil
}

// Render подставляет язык вывода ("English", "Portuguese (Brazil)").
func (t *Template) Render(outputLanguage string) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, templateData{OutputLanguage: outputLanguage}); err != nil {
		return "", fmt.Errorf("render prompt template %q: %w", t.Name, err)
	}
	return buf.String(), nil
}
