// Package gemini реализует адаптер LLM провайдера для Google Gemini.
//
// Поддерживает function calling (tools + tool_config) и JSON ответы
// (response_mime_type=application/json). Работает только через llm.Provider.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/ilkoid/pilates-vision/pkg/utils"
	"google.golang.org/api/option"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// ErrEmptyResponse возвращается, когда Gemini не вернул ни одного кандидата.
var ErrEmptyResponse = errors.New("no response from Gemini API")

// Client реализует llm.Provider поверх genai SDK.
type Client struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

var _ llm.Provider = (*Client)(nil)

// NewClient создаёт клиента Gemini по определению модели.
func NewClient(ctx context.Context, modelDef config.ModelDef) (*Client, error) {
	if modelDef.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	model := modelDef.ModelName
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(modelDef.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:      client,
		model:       model,
		temperature: modelDef.Temperature,
		maxTokens:   modelDef.MaxTokens,
		timeout:     modelDef.Timeout,
	}, nil
}

// Close освобождает соединение SDK.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate выполняет один запрос к Gemini.
//
// Системные сообщения уходят в SystemInstruction, история передаётся
// в chat session, последнее сообщение отправляется через SendMessage.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	options := llm.ApplyOptions(opts...)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(c.model)
	configureModel(model, c.temperature, c.maxTokens, options)

	system, contents := toContents(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(contents) == 0 {
		return llm.Message{}, errors.New("gemini: no messages to send")
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	utils.Debug("LLM request started",
		"provider", "gemini",
		"model", c.model,
		"messages_count", len(messages),
		"tools_count", len(options.Tools),
		"tool_choice", string(options.ToolChoice.Mode))

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		utils.Error("LLM API request failed",
			"provider", "gemini",
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("gemini api error: %w", err)
	}

	msg, err := fromResponse(resp)
	if err != nil {
		return llm.Message{}, err
	}

	utils.Debug("LLM response received",
		"provider", "gemini",
		"tool_calls", len(msg.ToolCalls),
		"content_length", len(msg.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return msg, nil
}

// configureModel переносит опции запроса на GenerativeModel.
//
// Gemini не принимает application/json вместе с активными функциями,
// поэтому JSON режим включается, только когда инструменты не объявлены
// или их вызов запрещён (tool_choice none).
func configureModel(model *genai.GenerativeModel, temperature float64, maxTokens int, options llm.GenerateOptions) {
	if options.Temperature != 0 {
		temperature = options.Temperature
	}
	if temperature != 0 {
		model.SetTemperature(float32(temperature))
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	toolsActive := len(options.Tools) > 0 && options.ToolChoice.Mode != llm.ToolChoiceNone
	if toolsActive {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(options.Tools)}}
		model.ToolConfig = toToolConfig(options.ToolChoice)
	}
	if options.Format == llm.FormatJSONObject && !toolsActive {
		model.ResponseMIMEType = "application/json"
	}
}

func toToolConfig(choice llm.ToolChoice) *genai.ToolConfig {
	cfg := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto}
	switch choice.Mode {
	case llm.ToolChoiceForced:
		cfg.Mode = genai.FunctionCallingAny
		cfg.AllowedFunctionNames = []string{choice.Name}
	case llm.ToolChoiceNone:
		cfg.Mode = genai.FunctionCallingNone
	}
	return &genai.ToolConfig{FunctionCallingConfig: cfg}
}

func toDeclarations(defs []tools.ToolDefinition) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		result = append(result, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  toSchema(map[string]any(def.Parameters)),
		})
	}
	return result
}

// toSchema конвертирует JSON Schema (map) в genai.Schema.
// Поддерживаются type, description, enum, items, properties, required.
func toSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		s.Type = schemaType(t)
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	s.Enum = stringList(m["enum"])
	s.Required = stringList(m["required"])

	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toSchema(items)
	}
	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				s.Properties[name] = toSchema(prop)
			}
		}
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toContents конвертирует историю в формат Gemini.
//
// Системные сообщения склеиваются в одну инструкцию. Подряд идущие
// сообщения одной роли объединяются в один Content: Gemini требует
// чередования user/model, а результаты нескольких вызовов инструментов
// должны прийти одним ходом.
func toContents(messages []llm.Message) (string, []*genai.Content) {
	var system string
	var contents []*genai.Content

	for _, msg := range messages {
		var role string
		var parts []genai.Part

		switch msg.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		case llm.RoleAssistant:
			role = roleModel
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: decodeArgs(tc.Args)})
			}
		case llm.RoleTool:
			role = roleUser
			parts = append(parts, genai.FunctionResponse{
				Name:     msg.Name,
				Response: map[string]any{"content": msg.Content},
			})
		default:
			role = roleUser
			parts = append(parts, genai.Text(msg.Content))
		}

		if len(parts) == 0 {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return system, contents
}

func decodeArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		utils.Warn("Invalid tool call arguments in history", "error", err)
	}
	return args
}

// fromResponse собирает llm.Message из первого кандидата.
// Gemini не присваивает вызовам ID, поэтому ID строится из имени и позиции.
func fromResponse(resp *genai.GenerateContentResponse) (llm.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.Message{}, ErrEmptyResponse
	}

	msg := llm.Message{Role: llm.RoleAssistant}
	for i, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			msg.Content += string(p)
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return llm.Message{}, fmt.Errorf("marshal gemini function args: %w", err)
			}
			if p.Args == nil {
				args = []byte("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:   fmt.Sprintf("%s_%d", p.Name, i),
				Name: p.Name,
				Args: string(args),
			})
		}
	}
	return msg, nil
}
