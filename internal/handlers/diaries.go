package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sitediary/db"
	"sitediary/internal/export"
	"sitediary/models"
)

// parseDiaryID читает {id} из пути; при ошибке ответ уже отправлен
func parseDiaryID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeInvalid(w, models.NewValidationError("id", "Id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// CreateDiaryHandler обрабатывает POST /diary
func (h *Handler) CreateDiaryHandler(w http.ResponseWriter, r *http.Request) {
	var payload models.DiaryPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeInvalid(w, err)
		return
	}
	if err := payload.Validate(); err != nil {
		h.rejectPayload(w, r, err)
		return
	}

	diary, err := payload.ToDiary()
	if err != nil {
		writeInvalid(w, err)
		return
	}
	if err := h.Store.CreateDiary(r.Context(), &diary); err != nil {
		h.internalError(w, r, "Internal Server Error", err)
		return
	}

	writeData(w, http.StatusCreated, diary)
}

// GetDiaryHandler обрабатывает GET /diary/{id}
func (h *Handler) GetDiaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDiaryID(w, r)
	if !ok {
		return
	}

	diary, err := h.Store.GetDiary(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "Diary entry not found")
			return
		}
		h.internalError(w, r, "Failed to fetch diary", err)
		return
	}

	writeData(w, http.StatusOK, diary)
}

// UpdateDiaryHandler обрабатывает PATCH /diary/{id}.
// Тело содержит полный набор полей; id в теле должен совпадать с путем.
func (h *Handler) UpdateDiaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDiaryID(w, r)
	if !ok {
		return
	}

	var payload models.UpdatePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeInvalid(w, err)
		return
	}
	if err := payload.Validate(); err != nil {
		h.rejectPayload(w, r, err)
		return
	}
	if *payload.ID != id {
		writeInvalid(w, models.NewValidationError("id", "Id does not match the diary being updated"))
		return
	}

	diary, err := payload.ToDiary()
	if err != nil {
		writeInvalid(w, err)
		return
	}
	diary.ID = id
	if err := h.Store.UpdateDiary(r.Context(), &diary); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "Diary entry not found")
			return
		}
		h.internalError(w, r, "Failed to update diary", err)
		return
	}

	writeData(w, http.StatusOK, diary)
}

// DeleteDiaryHandler обрабатывает DELETE /diary/{id}
func (h *Handler) DeleteDiaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDiaryID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteDiary(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "Diary entry not found")
			return
		}
		h.internalError(w, r, "Failed to delete diary", err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"message": "Diary entry deleted successfully"})
}

// ListDiariesHandler обрабатывает GET /diary с фильтрами из query
func (h *Handler) ListDiariesHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := models.ParseFilters(r.URL.Query(), h.Location)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	diaries, err := h.Store.ListDiaries(r.Context(), filters)
	if err != nil {
		h.internalError(w, r, "Failed to fetch diaries", err)
		return
	}
	if diaries == nil {
		diaries = []models.SiteDiary{}
	}

	writeData(w, http.StatusOK, diaries)
}

// ExportDiariesHandler обрабатывает GET /diary/export: тот же список, но в xlsx
func (h *Handler) ExportDiariesHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := models.ParseFilters(r.URL.Query(), h.Location)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	diaries, err := h.Store.ListDiaries(r.Context(), filters)
	if err != nil {
		h.internalError(w, r, "Failed to fetch diaries", err)
		return
	}

	data, err := export.Workbook(diaries, filters.Location)
	if err != nil {
		h.internalError(w, r, "Failed to export diaries", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// rejectPayload отвечает 400 на нарушения схемы, прочее считает внутренней ошибкой
func (h *Handler) rejectPayload(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := models.AsValidationError(err); ok {
		writeInvalid(w, err)
		return
	}
	h.internalError(w, r, "Internal Server Error", err)
}
