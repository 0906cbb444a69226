package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sitediary/models"
)

// Коды ошибок в ответах API
const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeInternalServer = "INTERNAL_SERVER_ERROR"
)

const maxBodyBytes = 1048576

// Handler оборачивает Storage и внешние сервисы
type Handler struct {
	Store    StorageInterface
	Weather  WeatherService
	Uploads  UploadStore
	Log      *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

// NewHandler создает новый Handler. Weather и Uploads подключаются отдельно.
func NewHandler(store StorageInterface, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Log: log, Location: time.UTC, Now: time.Now}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Warn("storage ping failed", zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Issues  []models.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, dataResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeInvalid отдает 400 со списком нарушений
func writeInvalid(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Code: CodeInvalidInput, Message: "Invalid input"}
	if ve, ok := models.AsValidationError(err); ok {
		resp.Issues = ve.Issues
	} else {
		resp.Issues = []models.Issue{{Path: "", Message: err.Error()}}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// internalError пишет причину в лог, клиенту уходит только message
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.Log.Error(message,
		zap.Error(err),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	writeError(w, http.StatusInternalServerError, CodeInternalServer, message)
}

// decodeJSON читает тело с ограничением размера.
// Ошибки разбора превращаются в *models.ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.NewValidationError("", "Request body is too large")
		}
		return models.NewValidationError("", "Failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return models.NewValidationError("", "Request body is missing")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return models.NewValidationError(typeErr.Field, "Expected "+typeErr.Type.String()+", received "+typeErr.Value)
		}
		return models.NewValidationError("", "Invalid JSON format")
	}
	return nil
}
