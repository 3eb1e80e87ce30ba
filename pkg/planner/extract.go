package planner

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ilkoid/pilates-vision/pkg/utils"
)

var errEmptyContent = errors.New("empty model content")

// ParseModelJSON извлекает JSON объект из ответа модели и разбирает его.
//
// Кандидат ищется через utils.ExtractJSONObject: markdown блок,
// затем фрагмент от первой "{" до последней "}", затем весь текст.
// Ошибка возвращается для пустого ответа, невалидного JSON и JSON,
// который не является объектом.
func ParseModelJSON(content string) (map[string]any, error) {
	text := utils.ExtractJSONObject(content)
	if text == "" {
		return nil, errEmptyContent
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}
