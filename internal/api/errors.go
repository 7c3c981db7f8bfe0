package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aristath/planner/internal/persistence"
	"github.com/aristath/planner/internal/project"
	"github.com/aristath/planner/internal/scheduler"
)

// ValidationError reports a request field outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	var validation *ValidationError
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError

	switch {
	case scheduler.IsClientError(err):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, project.ErrInvalidGraph):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &syntax), errors.As(err, &typeErr), errors.Is(err, errEmptyBody), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "malformed request body"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, persistence.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, persistence.ErrUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError sends err as a JSON error body. Server-side failures are logged
// with the underlying error, which never reaches the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
