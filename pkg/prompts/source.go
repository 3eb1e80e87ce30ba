package prompts

import "context"

// PromptSource — интерфейс для загрузки текста шаблона из источника.
//
// Реализации: sources.FileSource (директория промптов),
// sources.S3Source (бакет объектного хранилища).
type PromptSource interface {
	// Load загружает шаблон по имени (без расширения).
	// Отсутствие шаблона — ошибка, совместимая с ErrTemplateNotFound.
	Load(ctx context.Context, name string) (string, error)
}
