package prompts

import (
	"fmt"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/prompts/sources"
	"github.com/ilkoid/pilates-vision/pkg/s3storage"
)

// CreateSourceRegistry создаёт реестр источников промптов из конфигурации.
//
// prompt_source=s3: сначала бакет, затем локальная директория как резерв.
// prompt_source=file: только директория prompts_dir.
// s3 может быть nil, если prompt_source=file.
func CreateSourceRegistry(cfg *config.AppConfig, s3 s3storage.ClientInterface) (*SourceRegistry, error) {
	registry := NewSourceRegistry()
	posture := cfg.Posture.GetDefaults()

	switch posture.PromptSource {
	case "s3":
		if s3 == nil {
			return nil, fmt.Errorf("prompt_source=s3 requires an s3 client")
		}
		registry.AddSource(sources.NewS3Source(s3, "prompts/"))
	case "file":
	default:
		return nil, fmt.Errorf("unknown prompt source type '%s'", posture.PromptSource)
	}

	registry.AddSource(sources.NewFileSource(posture.PromptsDir))
	return registry, nil
}
