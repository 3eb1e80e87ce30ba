package posture

import (
	"fmt"
	"strings"
)

// Language — язык вывода для сводки и промптов.
type Language string

const (
	LangEnglish    Language = "en"
	LangPortuguese Language = "pt"
)

// ParseLanguage нормализует тег языка. Неизвестный тег — английский.
func ParseLanguage(tag string) Language {
	if strings.EqualFold(strings.TrimSpace(tag), string(LangPortuguese)) {
		return LangPortuguese
	}
	return LangEnglish
}

// OutputLanguage возвращает название языка для подстановки в промпт.
func (l Language) OutputLanguage() string {
	if l == LangPortuguese {
		return "Portuguese (Brazil)"
	}
	return "English"
}

type unitKind int

const (
	unitDegrees unitKind = iota
	unitCentimeters
)

type metricLabel struct {
	en, pt string
	unit   unitKind
}

var metricLabels = map[string]metricLabel{
	ShoulderTiltDeg:     {"Shoulder tilt", "Inclinação dos ombros", unitDegrees},
	PelvicTiltDeg:       {"Pelvic tilt", "Inclinação pélvica", unitDegrees},
	ShoulderRotationCm:  {"Shoulder rotation", "Rotação dos ombros", unitCentimeters},
	PelvicRotationCm:    {"Pelvic rotation", "Rotação pélvica", unitCentimeters},
	HeadProtractionDeg:  {"Head protraction", "Protração de cabeça", unitDegrees},
	HeadTiltDeg:         {"Head tilt", "Inclinação da cabeça", unitDegrees},
	TrunkInclinationDeg: {"Trunk inclination", "Inclinação de tronco", unitDegrees},
	ShoulderMidDepthCm:  {"Shoulder midpoint depth", "Profundidade do ponto médio dos ombros", unitCentimeters},
	EarMidDepthCm:       {"Ear midpoint depth", "Profundidade do ponto médio das orelhas", unitCentimeters},
}

func (u unitKind) label(lang Language) string {
	switch {
	case u == unitCentimeters:
		return "cm"
	case lang == LangPortuguese:
		return "graus"
	default:
		return "deg"
	}
}

// Summarize формирует текстовую сводку углов для промпта модели.
//
// Одна строка на метрику в порядке набора: "- Shoulder tilt: 1.25 deg".
// Метрики без подписи выводятся как "- key: value".
func Summarize(set AngleSet, lang Language) string {
	lines := make([]string, 0, len(set))
	for _, m := range set {
		value := fmt.Sprintf("%.2f", Round2(m.Value))

		label, ok := metricLabels[m.Key]
		if !ok {
			lines = append(lines, fmt.Sprintf("- %s: %s", m.Key, value))
			continue
		}

		text := label.en
		if lang == LangPortuguese {
			text = label.pt
		}
		lines = append(lines, fmt.Sprintf("- %s: %s %s", text, value, label.unit.label(lang)))
	}
	return strings.Join(lines, "\n")
}
