// Package llm provides options pattern for LLM generation parameters.
//
// Defaults come from config.yaml (ModelDef); callers override them per request.
package llm

import "github.com/ilkoid/pilates-vision/pkg/tools"

// FormatJSONObject включает structured-output режим "json_object".
const FormatJSONObject = "json_object"

// ToolChoiceMode определяет, как модель выбирает инструменты.
type ToolChoiceMode string

const (
	// ToolChoiceAuto — модель сама решает, вызывать ли инструмент.
	ToolChoiceAuto ToolChoiceMode = "auto"
	// ToolChoiceNone — вызов инструментов запрещён, только текст.
	ToolChoiceNone ToolChoiceMode = "none"
	// ToolChoiceForced — модель обязана вызвать конкретный инструмент.
	ToolChoiceForced ToolChoiceMode = "forced"
)

// ToolChoice описывает режим выбора инструмента для одного запроса.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string // заполнен только для ToolChoiceForced
}

// ForceTool возвращает ToolChoice, обязывающий модель вызвать name.
func ForceTool(name string) ToolChoice {
	return ToolChoice{Mode: ToolChoiceForced, Name: name}
}

// GenerateOptions holds parameters for LLM generation.
type GenerateOptions struct {
	// Temperature controls randomness in responses. Zero keeps the model default.
	Temperature float64

	// Format specifies response format (FormatJSONObject for structured output).
	Format string

	// Tools are declared to the model for function calling.
	Tools []tools.ToolDefinition

	// ToolChoice is only meaningful when Tools is non-empty.
	// Zero value means "auto".
	ToolChoice ToolChoice
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// ApplyOptions собирает итоговые опции запроса.
func ApplyOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ToolChoice.Mode == "" {
		o.ToolChoice.Mode = ToolChoiceAuto
	}
	return o
}

// WithTemperature sets the temperature for generation.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithFormat sets the response format for generation.
// Use FormatJSONObject for structured JSON output.
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}

// WithTools declares tools for function calling.
func WithTools(defs []tools.ToolDefinition) GenerateOption {
	return func(o *GenerateOptions) {
		o.Tools = defs
	}
}

// WithToolChoice sets how the model may pick tools on this request.
func WithToolChoice(choice ToolChoice) GenerateOption {
	return func(o *GenerateOptions) {
		o.ToolChoice = choice
	}
}
