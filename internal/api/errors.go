package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/event"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// writeServiceError maps a session or event error onto the error envelope.
// Anything unrecognized is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		if authErr.Status >= http.StatusInternalServerError {
			slog.Error("session failure", "code", authErr.Code, "error", err,
				"request_id", RequestIDFromContext(r.Context()))
		}
		auth.WriteError(w, authErr)
		return
	}

	var te *event.TransitionError
	switch {
	case errors.Is(err, event.ErrNotFound):
		writeError(w, http.StatusNotFound, "EVENT_NOT_FOUND", "event not found")
	case errors.Is(err, event.ErrPastDate):
		writeError(w, http.StatusBadRequest, "EVENT_DATE_IN_PAST", "event date must be in the future")
	case errors.Is(err, event.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, event.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, "ALREADY_JOINED", "already on the roster")
	case errors.Is(err, event.ErrNotParticipant):
		writeError(w, http.StatusConflict, "NOT_A_PARTICIPANT", "not on the roster")
	case errors.Is(err, event.ErrNotJoinable):
		writeError(w, http.StatusConflict, "EVENT_NOT_JOINABLE", "event is not open for joining")
	case errors.As(err, &te):
		writeError(w, http.StatusConflict, "ILLEGAL_STATUS_TRANSITION", te.Error())
	case errors.Is(err, event.ErrConflict):
		writeError(w, http.StatusConflict, "CONCURRENT_MODIFICATION", "event changed concurrently, retry")
	case errors.Is(err, event.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err,
			"request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
