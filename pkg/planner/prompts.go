package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// planSchema — пример структуры ответа, который видит модель.
const planSchema = `{"workout_plan":[{"exercise_name":"...","sets":"...","reps":"...","clinical_reason":"..."}]}`

// retryInstruction — корректирующее сообщение для strict retry.
const retryInstruction = "Your previous answer was invalid. Return ONLY valid JSON with this schema: " + planSchema

// duplicateCallNotice — ответ на повторный вызов инструмента с теми же аргументами.
const duplicateCallNotice = "Duplicate call skipped: the result for these arguments is already in the conversation."

// unknownToolResult — ответ на вызов инструмента, которого нет в реестре.
const unknownToolResult = "Unknown tool."

func buildSystemPrompt(toolName, outputLanguage string) string {
	return fmt.Sprintf(
		"You are a Clinical Pilates Instructor. You must FIRST call the %s tool to read "+
			"the Pilates exercises from the web. THEN prescribe exactly %d distinct exercises based on the full "+
			"patient profile and the clinical analysis. "+
			"Write the entire final workout_plan in %s.",
		toolName, PlanSize, outputLanguage)
}

func buildUserPrompt(profile any, clinicalAnalysis string) (string, error) {
	profileJSON, err := marshalProfile(profile)
	if err != nil {
		return "", fmt.Errorf("marshal student profile: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Student profile:\n")
	sb.WriteString(profileJSON)
	sb.WriteString("\n\nClinical analysis:\n")
	sb.WriteString(clinicalAnalysis)
	sb.WriteString("\n\nReturn only valid JSON with this structure: ")
	sb.WriteString(planSchema)
	return sb.String(), nil
}

// marshalProfile сериализует профиль без экранирования HTML символов,
// чтобы имена и заметки попадали к модели как есть.
func marshalProfile(profile any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(profile); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
