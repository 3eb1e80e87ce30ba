// Package utils предоставляет вспомогательные функции для обработки данных.
//
// Включает извлечение JSON объекта из свободного текста модели
// (в том числе из markdown блока) и превью длинных ответов.
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// fencedJSON находит JSON объект внутри markdown блока ```json ... ```.
var fencedJSON = regexp.MustCompile("(?i)```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")

// ExtractJSONObject возвращает кандидат на JSON объект из ответа модели.
//
// Порядок эвристик:
//  1. markdown блок с объектом внутри
//  2. подстрока от первой "{" до последней "}"
//  3. весь текст после TrimSpace
//
// Пустой ввод даёт пустую строку. Валидность JSON не проверяется,
// для этого используйте json.Unmarshal().
func ExtractJSONObject(s string) string {
	text := strings.TrimSpace(s)
	if text == "" {
		return ""
	}

	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return text
}

// Preview обрезает строку до n символов (рун) для логов и сообщений об ошибках.
func Preview(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
