package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"murmur/internal/logging"
	"murmur/internal/queue"
	"murmur/internal/services"
)

type envelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the payload of a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: ErrorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps store and validation errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, queue.ErrDuplicateFolder):
		writeError(w, http.StatusConflict, "DUPLICATE_FOLDER", err.Error())
	case errors.Is(err, queue.ErrFolderNotFound):
		writeError(w, http.StatusNotFound, "FOLDER_NOT_FOUND", err.Error())
	case errors.Is(err, queue.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		logging.WithContext(r.Context(), logger).Error("api request failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "api_request_failed"),
			logging.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}
