package handlers

import (
	"errors"
	"net/http"
	"strings"

	"sitediary/internal/uploads"
	"sitediary/models"
)

const (
	maxUploadBytes   = 32 << 20
	multipartMemory  = 8 << 20
	uploadsFormField = "file"
)

// UploadPhotosHandler обрабатывает POST /uploads (multipart, поле file)
func (h *Handler) UploadPhotosHandler(w http.ResponseWriter, r *http.Request) {
	if h.Uploads == nil {
		h.internalError(w, r, "Uploads are not configured", errors.New("upload store is nil"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeInvalid(w, models.NewValidationError(uploadsFormField, "Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	saved, err := h.Uploads.Save(r.MultipartForm.File[uploadsFormField])
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrNoFiles),
			errors.Is(err, uploads.ErrTooMany),
			errors.Is(err, uploads.ErrTooLarge),
			errors.Is(err, uploads.ErrNotImage):
			writeInvalid(w, models.NewValidationError(uploadsFormField, err.Error()))
		default:
			h.internalError(w, r, "Failed to store upload", err)
		}
		return
	}

	writeData(w, http.StatusCreated, saved)
}

// uploadsFileServer раздает сохраненные фотографии без листинга каталогов
func uploadsFileServer(dir string) http.Handler {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			writeError(w, http.StatusNotFound, CodeNotFound, "File not found")
			return
		}
		fs.ServeHTTP(w, r)
	})
}
