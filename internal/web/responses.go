package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/remote"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

// writeRawJSON writes an already encoded JSON body
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeFailure writes a remote failure. The API's own status is kept for
// rejections; an unreachable API is a bad gateway.
func writeFailure(w http.ResponseWriter, f *remote.Failure) {
	status := http.StatusBadGateway
	if f.Kind == remote.FailureRemote && f.Status >= 400 && f.Status < 500 {
		status = f.Status
	}
	writeJSON(w, status, ErrorResponse{
		Error:  f.Message,
		Code:   f.Code(),
		Detail: f.Detail,
	})
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		code = domain.ErrCodeInvalidCredentials
		message = err.Error()
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrInvalidHours),
		errors.Is(err, domain.ErrInvalidLogType),
		errors.Is(err, domain.ErrIndexUnsupported):
		status = http.StatusBadRequest
		code = domain.ErrorCode(err)
		message = err.Error()
	default:
		// For unknown errors, log the actual error but return a sanitized message
		slog.Error("internal error", "error", err)
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
