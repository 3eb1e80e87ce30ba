package clinical

import (
	"encoding/json"
	"fmt"

	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// Interpretation — клиническая интерпретация углов.
type Interpretation struct {
	DetectedDeviations []string `json:"detected_deviations"`
	ClinicalAnalysis   string   `json:"clinical_analysis"`
}

// DecodeInterpretation разбирает ответ модели с допуском к дрейфу формата.
//
// Пустой ответ эквивалентен {}. Поле неверного типа заменяется пустым
// значением. Строки detected_deviations сохраняются как есть (включая
// пустые), нестроковые элементы отбрасываются.
// Ошибка только если текст вообще не JSON объект.
func DecodeInterpretation(content string) (Interpretation, error) {
	raw := utils.ExtractJSONObject(content)
	if raw == "" {
		raw = "{}"
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Interpretation{}, fmt.Errorf("interpretation is not a JSON object: %w", err)
	}

	result := Interpretation{DetectedDeviations: []string{}}

	if list, ok := fields["detected_deviations"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				result.DetectedDeviations = append(result.DetectedDeviations, s)
			}
		}
	}

	if s, ok := fields["clinical_analysis"].(string); ok {
		result.ClinicalAnalysis = s
	}

	return result, nil
}
