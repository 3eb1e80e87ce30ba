package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/ilkoid/pilates-vision/internal/store"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// StudentCreateRequest — тело POST /students.
type StudentCreateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=120"`
	TaxIDCPF     string `json:"tax_id_cpf" validate:"required,min=11,max=14"`
	DateOfBirth  string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Phone        string `json:"phone" validate:"required,min=8,max=20"`
	MedicalNotes string `json:"medical_notes"`
	Goals        string `json:"goals"`
}

func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	created, err := h.students.Create(r.Context(), &store.Student{
		Name:         req.Name,
		TaxIDCPF:     req.TaxIDCPF,
		DateOfBirth:  req.DateOfBirth,
		Phone:        req.Phone,
		MedicalNotes: req.MedicalNotes,
		Goals:        req.Goals,
	})
	if errors.Is(err, store.ErrDuplicateCPF) {
		Error(w, http.StatusBadRequest, "A student with this CPF already exists")
		return
	}
	if err != nil {
		utils.Error("Create student failed", "request_id", GetRequestID(r.Context()), "error", err)
		Error(w, http.StatusInternalServerError, "failed to create student")
		return
	}

	JSON(w, http.StatusCreated, created)
}

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utils.Error("List students failed", "request_id", GetRequestID(r.Context()), "error", err)
		Error(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	JSON(w, http.StatusOK, students)
}

func (h *Handler) getStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid student id")
		return
	}

	st, err := h.students.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "Student not found")
		return
	}
	if err != nil {
		utils.Error("Get student failed", "request_id", GetRequestID(r.Context()), "error", err)
		Error(w, http.StatusInternalServerError, "failed to load student")
		return
	}
	JSON(w, http.StatusOK, st)
}

// validationMessage превращает ошибки validator в строку "field: tag, ...".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}
