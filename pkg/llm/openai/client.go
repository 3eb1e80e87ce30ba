// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Поддерживает Function Calling (tools), принудительный выбор инструмента
// (tool_choice) и structured output (response_format=json_object).
// Работает только через интерфейс llm.Provider.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/ilkoid/pilates-vision/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// Проверка что Client реализует llm.Provider
var _ llm.Provider = (*Client)(nil)

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// Timeout из ModelDef ограничивает каждый отдельный HTTP вызов: оркестратор
// своих таймаутов не вводит.
func NewClient(modelDef config.ModelDef) *Client {
	// Поддержка custom BaseURL для non-OpenAI провайдеров (Zai, DeepSeek и т.д.)
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}
	if modelDef.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: modelDef.Timeout}
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       modelDef.ModelName,
		temperature: modelDef.Temperature,
		maxTokens:   modelDef.MaxTokens,
	}
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// Алгоритм:
//  1. Конвертирует внутренние сообщения в формат OpenAI SDK
//  2. Применяет опции (tools, tool_choice, response_format)
//  3. Вызывает API
//  4. Конвертирует ответ обратно, извлекая ToolCalls
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	options := llm.ApplyOptions(opts...)

	req := c.buildRequest(messages, options)

	utils.Debug("LLM request started",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(options.Tools),
		"tool_choice", string(options.ToolChoice.Mode),
		"format", options.Format)

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", req.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", req.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// buildRequest собирает ChatCompletionRequest из сообщений и опций.
func (c *Client) buildRequest(messages []llm.Message, options llm.GenerateOptions) openai.ChatCompletionRequest {
	openaiMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		openaiMsgs[i] = mapToOpenAI(m)
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: openaiMsgs,
	}

	temperature := c.temperature
	if options.Temperature != 0 {
		temperature = options.Temperature
	}
	// Нулевая температура означает "дефолт модели": reasoning модели
	// отвергают явное значение.
	if temperature != 0 {
		req.Temperature = float32(temperature)
	}

	if c.maxTokens > 0 {
		req.MaxCompletionTokens = c.maxTokens
	}

	if options.Format == llm.FormatJSONObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if len(options.Tools) > 0 {
		req.Tools = convertToolsToOpenAI(options.Tools)
		req.ToolChoice = convertToolChoice(options.ToolChoice)
	}

	return req
}

// mapToOpenAI конвертирует наше внутреннее сообщение в формат SDK.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:       string(m.Role),
		ToolCallID: m.ToolCallID,
	}

	if len(m.ToolCalls) > 0 {
		msg.ToolCalls = make([]openai.ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			msg.ToolCalls[i] = openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			}
		}
	}

	msg.Content = m.Content
	return msg
}

// mapFromOpenAI конвертирует ответ SDK в наше сообщение.
func mapFromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}
	if result.Role == "" {
		result.Role = llm.RoleAssistant
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}
	return result
}

// convertToolsToOpenAI конвертирует определения инструментов во внутреннем формате
// в формат OpenAI Function Calling.
//
// ToolDefinition.Parameters уже является JSON Schema объектом, он напрямую
// передаётся в SDK.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}

// convertToolChoice переводит режим выбора инструмента в значение tool_choice.
//
//	auto   → "auto"
//	none   → "none"
//	forced → {"type":"function","function":{"name":...}}
func convertToolChoice(choice llm.ToolChoice) any {
	switch choice.Mode {
	case llm.ToolChoiceNone:
		return "none"
	case llm.ToolChoiceForced:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: choice.Name},
		}
	default:
		return "auto"
	}
}
