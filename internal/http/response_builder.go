package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budget/internal/ports"
	"budget/internal/services"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps service errors onto status codes: validation failures are
// 422, missing records 404, duplicate IDs 409, malformed input 400 and
// everything else 500.
// Internal error details are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		writeJSONError(w, http.StatusBadRequest, bad.Error())
	case errors.Is(err, services.ErrValidation):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ports.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		slog.WarnContext(r.Context(), "Request cancelled", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
