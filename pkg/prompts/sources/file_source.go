package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotFound возвращается когда источник не содержит промпт.
var ErrNotFound = errors.New("prompt template not found")

// PromptData — YAML форма промпта: текст в поле system.
type PromptData struct {
	System   string         `yaml:"system"`
	Metadata map[string]any `yaml:"metadata"`
}

// FileSource — загрузка промптов из директории.
//
// Ищет <baseDir>/<name>.txt (текст как есть), затем <baseDir>/<name>.yaml
// (поле system).
type FileSource struct {
	baseDir string
}

// NewFileSource создаёт FileSource с указанной базовой директорией.
//
// baseDir обычно берётся из cfg.Posture.PromptsDir.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{
		baseDir: baseDir,
	}
}

// Load загружает текст шаблона.
func (s *FileSource) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	txtPath := filepath.Join(s.baseDir, name+".txt")
	data, err := os.ReadFile(txtPath)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}

	yamlPath := filepath.Join(s.baseDir, name+".yaml")
	data, err = os.ReadFile(yamlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, txtPath)
		}
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}

	return parseYAML(data)
}

func parseYAML(data []byte) (string, error) {
	var file PromptData
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("failed to parse prompt YAML: %w", err)
	}
	return file.System, nil
}
