package planner

import (
	"strconv"
	"strings"
)

// PlanSize — ровно столько упражнений содержит готовый план.
const PlanSize = 5

const (
	defaultSets = "3"
	defaultReps = "10-12"
)

// ExerciseItem — одно упражнение плана.
type ExerciseItem struct {
	ExerciseName   string `json:"exercise_name"`
	Sets           string `json:"sets"`
	Reps           string `json:"reps"`
	ClinicalReason string `json:"clinical_reason"`
}

// Normalize приводит сырой workout_plan модели к ровно пяти упражнениям.
//
// Элементы, не являющиеся объектами, и элементы без имени пропускаются.
// Повторы имени (без учёта регистра) отбрасываются, выигрывает первый.
// Пустые sets/reps заменяются на "3" и "10-12". Обработка останавливается
// на пятом упражнении. Если набралось меньше пяти, возвращается *PlanError.
func Normalize(items []any) ([]ExerciseItem, error) {
	result := make([]ExerciseItem, 0, PlanSize)
	seen := make(map[string]struct{}, len(items))

	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		name := field(obj, "exercise_name")
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		result = append(result, ExerciseItem{
			ExerciseName:   name,
			Sets:           orDefault(field(obj, "sets"), defaultSets),
			Reps:           orDefault(field(obj, "reps"), defaultReps),
			ClinicalReason: field(obj, "clinical_reason"),
		})

		if len(result) == PlanSize {
			break
		}
	}

	if len(result) != PlanSize {
		return nil, &PlanError{Count: len(result)}
	}
	return result, nil
}

// field возвращает строковое представление значения после TrimSpace.
// Модели нередко присылают sets/reps числами.
func field(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
