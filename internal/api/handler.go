// Package api — HTTP слой: студенты, анализ осанки, генерация плана.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ilkoid/pilates-vision/internal/store"
	"github.com/ilkoid/pilates-vision/pkg/clinical"
	"github.com/ilkoid/pilates-vision/pkg/planner"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// defaultMaxUpload — предел размера multipart запроса /analyze.
const defaultMaxUpload = 20 << 20

// PostureAnalyzer реализуется service.AnalysisService.
type PostureAnalyzer interface {
	Analyze(ctx context.Context, studentID int64, image []byte, lang posture.Language) (*clinical.Result, error)
}

// WorkoutPlanner реализуется service.PlanService.
type WorkoutPlanner interface {
	Generate(ctx context.Context, studentID int64, lang posture.Language) (*planner.Plan, error)
}

// Handler держит зависимости HTTP обработчиков.
type Handler struct {
	students  store.Repository
	analyzer  PostureAnalyzer
	planner   WorkoutPlanner
	validate  *validator.Validate
	maxUpload int64
}

// NewHandler создаёт Handler.
func NewHandler(students store.Repository, analyzer PostureAnalyzer, planner WorkoutPlanner) *Handler {
	return &Handler{
		students:  students,
		analyzer:  analyzer,
		planner:   planner,
		validate:  validator.New(),
		maxUpload: defaultMaxUpload,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		utils.Error("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response in {"detail": "..."} form.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"detail": message})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
