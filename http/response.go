package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/pitfall"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
// Client errors are logged at debug level; the body never carries err's text.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pitfall.ErrInvalidPath):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid file path")
	case errors.Is(err, pitfall.ErrInvalidInput):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, ErrMalformedBody):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
	case errors.Is(err, pitfall.ErrNotFound):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, pitfall.ErrUnauthorized):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Warn("request canceled", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "canceled", "Request canceled")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
