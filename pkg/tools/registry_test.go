package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	def ToolDefinition
}

func (s stubTool) Definition() ToolDefinition { return s.def }

func (s stubTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	return "ok", nil
}

func TestRegistry_RegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		def     ToolDefinition
		wantErr string
	}{
		{
			name:    "empty name",
			def:     ToolDefinition{Parameters: JSONSchema{"type": "object"}},
			wantErr: "name cannot be empty",
		},
		{
			name:    "nil parameters",
			def:     ToolDefinition{Name: "x"},
			wantErr: "parameters cannot be nil",
		},
		{
			name:    "non-object type",
			def:     ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "array"}},
			wantErr: "must be 'object'",
		},
		{
			name:    "required not array",
			def:     ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "object", "required": "urls"}},
			wantErr: "required must be an array",
		},
		{
			name:    "name with spaces",
			def:     ToolDefinition{Name: "fetch pilates", Parameters: JSONSchema{"type": "object"}},
			wantErr: "name must match",
		},
		{
			name:    "properties not object",
			def:     ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "object", "properties": []string{"a"}}},
			wantErr: "properties must be an object",
		},
		{
			name: "valid with empty required",
			def: ToolDefinition{Name: "x", Parameters: JSONSchema{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(stubTool{def: tt.def})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_GetAndDefinitions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{def: ToolDefinition{Name: "b_tool", Parameters: JSONSchema{"type": "object"}}}))
	require.NoError(t, r.Register(stubTool{def: ToolDefinition{Name: "a_tool", Parameters: JSONSchema{"type": "object"}}}))

	tool, err := r.Get("a_tool")
	require.NoError(t, err)
	assert.Equal(t, "a_tool", tool.Definition().Name)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrToolNotFound)

	defs := r.GetDefinitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "a_tool", defs[0].Name)
	assert.Equal(t, "b_tool", defs[1].Name)

	assert.True(t, r.Has("b_tool"))
	assert.False(t, r.Has("c_tool"))
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	def := ToolDefinition{Name: "fetch_pilates_exercises", Parameters: JSONSchema{"type": "object"}}
	require.NoError(t, r.Register(stubTool{def: def}))

	err := r.Register(stubTool{def: def})
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Len(t, r.GetDefinitions(), 1)
}
