package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ilkoid/pilates-vision/internal/store"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// analyzeForm — поля multipart формы /analyze кроме файла.
type analyzeForm struct {
	StudentID int64  `validate:"required,gt=0"`
	Language  string `validate:"oneof=pt en"`
}

// analyze принимает multipart: image (файл), student_id, language (pt|en).
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		Error(w, http.StatusBadRequest, "Invalid file type. Please upload an image.")
		return
	}

	form := analyzeForm{Language: r.FormValue("language")}
	if form.Language == "" {
		form.Language = string(posture.LangEnglish)
	}
	form.StudentID, _ = strconv.ParseInt(r.FormValue("student_id"), 10, 64)
	if err := h.validate.Struct(form); err != nil {
		Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if _, err := h.students.Get(r.Context(), form.StudentID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		Error(w, http.StatusBadRequest, "failed to read uploaded image")
		return
	}
	if len(image) == 0 {
		Error(w, http.StatusBadRequest, "Uploaded image is empty.")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), form.StudentID, image, posture.Language(form.Language))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// writeServiceError отображает ошибки сервисов в HTTP статусы:
// неизвестный студент 404, ошибки ввода 422, остальное 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "Student not found")
	case posture.IsInputError(err):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		utils.Error("Request failed", "request_id", GetRequestID(r.Context()), "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
