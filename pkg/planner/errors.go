// Package planner предоставляет ошибки оркестратора плана упражнений.
//
// Ошибки возвращаются вверх по стеку, никаких panic. Типизированные ошибки
// несут диагностику и поддерживают errors.Is() с соответствующими sentinel.
package planner

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded возвращается, когда модель не завершила план за лимит ходов.
var ErrBudgetExceeded = errors.New("exceeded tool-calling iterations while generating workout plan")

// ErrInvalidJSON возвращается, когда ответ модели не разобран даже после strict retry.
var ErrInvalidJSON = errors.New("model returned invalid JSON after retry")

// ErrInvalidPlanFormat возвращается, когда workout_plan не является списком.
var ErrInvalidPlanFormat = errors.New("invalid workout_plan format returned by model")

// ErrNotEnoughExercises возвращается, когда после нормализации осталось меньше пяти упражнений.
var ErrNotEnoughExercises = errors.New("model did not return 5 distinct exercises")

// BudgetError — ошибка исчерпания лимита ходов с их количеством.
type BudgetError struct {
	Turns int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s (turns: %d)", ErrBudgetExceeded.Error(), e.Turns)
}

// Is проверяет что ошибка является ErrBudgetExceeded.
func (e *BudgetError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// ParseError — ответ модели не разобран после повторной попытки.
//
// Preview содержит начало сырого ответа повторной попытки (после TrimSpace).
type ParseError struct {
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v. Raw preview: %s", ErrInvalidJSON.Error(), e.Err, e.Preview)
}

// Is проверяет что ошибка является ErrInvalidJSON.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidJSON
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PlanError — нормализация дала не пять упражнений.
type PlanError struct {
	Count int
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s (got %d)", ErrNotEnoughExercises.Error(), e.Count)
}

// Is проверяет что ошибка является ErrNotEnoughExercises.
func (e *PlanError) Is(target error) bool {
	return target == ErrNotEnoughExercises
}
