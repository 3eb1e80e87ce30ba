// Package clinical — интерпретация углов осанки через LLM и конвейер анализа.
package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/prompts"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// DefaultTemperature — температура запроса интерпретации.
const DefaultTemperature = 0.2

// Interpreter выполняет один structured-output запрос к модели.
//
// Шаблон системного промпта загружается один раз при создании.
type Interpreter struct {
	provider    llm.Provider
	template    *prompts.Template
	temperature float64
}

// NewInterpreter создаёт Interpreter с уже загруженным шаблоном.
func NewInterpreter(provider llm.Provider, template *prompts.Template) *Interpreter {
	return &Interpreter{
		provider:    provider,
		template:    template,
		temperature: DefaultTemperature,
	}
}

// LoadInterpreter загружает шаблон из реестра источников и создаёт Interpreter.
// Отсутствующий шаблон — ошибка конфигурации (prompts.ErrTemplateNotFound).
func LoadInterpreter(ctx context.Context, provider llm.Provider, registry *prompts.SourceRegistry, promptName string) (*Interpreter, error) {
	tmpl, err := registry.LoadTemplate(ctx, promptName)
	if err != nil {
		return nil, fmt.Errorf("load analysis prompt: %w", err)
	}
	return NewInterpreter(provider, tmpl), nil
}

// Interpret запрашивает у модели отклонения и клинический анализ для углов.
func (i *Interpreter) Interpret(ctx context.Context, angles posture.AngleSet, lang posture.Language) (Interpretation, error) {
	start := time.Now()

	system, err := i.template.Render(lang.OutputLanguage())
	if err != nil {
		return Interpretation{}, err
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: BuildUserMessage(angles, lang)},
	}

	resp, err := i.provider.Generate(ctx, messages,
		llm.WithFormat(llm.FormatJSONObject),
		llm.WithTemperature(i.temperature),
	)
	if err != nil {
		return Interpretation{}, fmt.Errorf("interpretation request: %w", err)
	}

	result, err := DecodeInterpretation(resp.Content)
	if err != nil {
		return Interpretation{}, err
	}

	utils.Info("Posture interpreted",
		"language", string(lang),
		"deviations", len(result.DetectedDeviations),
		"analysis_length", len(result.ClinicalAnalysis),
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// BuildUserMessage встраивает сводку углов в пользовательское сообщение.
func BuildUserMessage(angles posture.AngleSet, lang posture.Language) string {
	return "Analyze these posture angles and return the JSON object.\n\n" +
		"Postural angles:\n" + posture.Summarize(angles, lang)
}
