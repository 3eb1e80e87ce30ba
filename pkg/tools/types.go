// Package tools — инструменты, которые модель может вызывать через function calling.
package tools

import (
	"context"
	"errors"
)

var (
	// ErrToolNotFound — модель запросила незарегистрированный инструмент.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool — инструмент с таким именем уже зарегистрирован.
	ErrDuplicateTool = errors.New("tool already registered")
)

// JSONSchema — схема аргументов инструмента в формате function calling.
type JSONSchema map[string]any

// ToolDefinition — то, что видит модель: имя, описание и схема аргументов.
//
// Одно и то же определение уходит и в OpenAI (tools), и в Gemini
// (FunctionDeclaration), поэтому схема ограничена общим подмножеством:
// type, description, properties, items, enum, required.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// Tool — инструмент планировщика.
type Tool interface {
	Definition() ToolDefinition

	// Execute получает сырые JSON аргументы из ответа модели и возвращает
	// текст, который уйдёт обратно модели сообщением роли tool.
	Execute(ctx context.Context, argsJSON string) (string, error)
}
