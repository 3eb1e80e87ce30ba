// Package store хранит профили студентов и результаты анализа в sqlite.
package store

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда студент с таким ID не существует.
var ErrNotFound = errors.New("student not found")

// ErrDuplicateCPF возвращается при повторном CPF.
var ErrDuplicateCPF = errors.New("a student with this CPF already exists")

// Student — профиль студента.
//
// LatestDetectedDeviations и LatestWorkoutPlan хранятся JSON текстом,
// как их отдаёт API.
type Student struct {
	ID                       int64  `json:"id"`
	Name                     string `json:"name"`
	TaxIDCPF                 string `json:"tax_id_cpf"`
	DateOfBirth              string `json:"date_of_birth"` // YYYY-MM-DD
	Phone                    string `json:"phone"`
	MedicalNotes             string `json:"medical_notes"`
	Goals                    string `json:"goals"`
	LatestDetectedDeviations string `json:"latest_detected_deviations"`
	LatestClinicalAnalysis   string `json:"latest_clinical_analysis"`
	LatestWorkoutPlan        string `json:"latest_workout_plan"`
}

// Repository — операции над студентами, нужные сервисам и API.
type Repository interface {
	Create(ctx context.Context, s *Student) (*Student, error)
	Get(ctx context.Context, id int64) (*Student, error)
	// List возвращает студентов по убыванию ID. Непустой search фильтрует
	// по подстроке в имени, CPF или телефоне.
	List(ctx context.Context, search string) ([]Student, error)
	SaveAnalysis(ctx context.Context, id int64, deviations []string, analysis string) error
	SavePlan(ctx context.Context, id int64, plan any) error
	Ping(ctx context.Context) error
	Close() error
}
