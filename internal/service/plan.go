package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ilkoid/pilates-vision/internal/store"
	"github.com/ilkoid/pilates-vision/pkg/planner"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

const noRecentAnalysis = "No recent postural analysis"

// Profile — профиль студента, который видит модель.
// Порядок полей задаёт порядок ключей в JSON.
type Profile struct {
	StudentID                int64    `json:"student_id"`
	Name                     string   `json:"name"`
	Age                      int      `json:"age"`
	Goal                     string   `json:"goal"`
	MedicalNotes             string   `json:"medical_notes"`
	Phone                    string   `json:"phone"`
	TaxIDCPF                 string   `json:"tax_id_cpf"`
	LatestDetectedDeviations []string `json:"latest_detected_deviations"`
	LatestClinicalAnalysis   string   `json:"latest_clinical_analysis"`
}

// PlanService генерирует план упражнений для студента и сохраняет его.
type PlanService struct {
	repo      store.Repository
	generator PlanGenerator
	now       func() time.Time
}

// NewPlanService создаёт сервис генерации плана.
func NewPlanService(repo store.Repository, generator PlanGenerator) *PlanService {
	return &PlanService{repo: repo, generator: generator, now: time.Now}
}

// Generate строит профиль и клинический текст из сохранённого анализа,
// запускает оркестратор и сохраняет итоговый план.
func (s *PlanService) Generate(ctx context.Context, studentID int64, lang posture.Language) (*planner.Plan, error) {
	st, err := s.repo.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	deviations := ParseDeviations(st.LatestDetectedDeviations)
	req := planner.Request{
		Profile:          BuildProfile(st, deviations, s.now()),
		ClinicalAnalysis: ClinicalText(st.LatestClinicalAnalysis, deviations),
		Language:         lang,
		Subject:          fmt.Sprintf("student-%d", studentID),
	}

	plan, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workout plan: %w", err)
	}

	if err := s.repo.SavePlan(ctx, studentID, plan.WorkoutPlan); err != nil {
		return nil, fmt.Errorf("save workout plan: %w", err)
	}

	utils.Info("Workout plan saved", "student_id", studentID, "exercises", len(plan.WorkoutPlan))
	return plan, nil
}

// ParseDeviations разбирает сохранённый JSON список отклонений.
// Невалидный JSON или не список дают пустой список; нестроковые элементы отбрасываются.
func ParseDeviations(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ClinicalText возвращает сохранённый анализ или сводку отклонений,
// если анализа нет.
func ClinicalText(analysis string, deviations []string) string {
	if text := strings.TrimSpace(analysis); text != "" {
		return text
	}
	if len(deviations) == 0 {
		return "Detected deviations: " + noRecentAnalysis
	}
	return "Detected deviations: " + strings.Join(deviations, ", ")
}

// BuildProfile собирает профиль для модели. Возраст — разница лет
// между текущей датой и датой рождения; неразобранная дата даёт 0.
func BuildProfile(st *store.Student, deviations []string, now time.Time) Profile {
	age := 0
	if dob, err := time.Parse(time.DateOnly, st.DateOfBirth); err == nil {
		age = now.Year() - dob.Year()
	}

	return Profile{
		StudentID:                st.ID,
		Name:                     st.Name,
		Age:                      age,
		Goal:                     st.Goals,
		MedicalNotes:             st.MedicalNotes,
		Phone:                    st.Phone,
		TaxIDCPF:                 st.TaxIDCPF,
		LatestDetectedDeviations: deviations,
		LatestClinicalAnalysis:   st.LatestClinicalAnalysis,
	}
}
