package api

import (
	"encoding/json"
	"net/http"

	"github.com/ilkoid/pilates-vision/pkg/posture"
)

// GeneratePlanRequest — тело POST /generate_plan.
type GeneratePlanRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Language  string `json:"language" validate:"omitempty,oneof=pt en"`
}

func (h *Handler) generatePlan(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.Language == "" {
		req.Language = string(posture.LangEnglish)
	}

	plan, err := h.planner.Generate(r.Context(), req.StudentID, posture.Language(req.Language))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, plan)
}
