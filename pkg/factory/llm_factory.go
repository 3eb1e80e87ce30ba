package factory

import (
	"context"
	"fmt"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/llm/gemini"
	"github.com/ilkoid/pilates-vision/pkg/llm/openai"
)

// NewLLMProvider создает провайдера на основе конфигурации модели
func NewLLMProvider(ctx context.Context, modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "", "zai", "openai", "deepseek":
		return openai.NewClient(modelDef), nil

	case "gemini":
		return gemini.NewClient(ctx, modelDef)

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
