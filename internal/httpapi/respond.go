package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

const maxBodyBytes = 1 << 20

// WriteResponse writes response as JSON with the given status. An optional
// location sets the Location header.
func WriteResponse(w http.ResponseWriter, statusCode int, response any, location ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// StatusCode maps a service error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends {"error": msg}. Unclassified errors are logged and
// replaced by a generic message; invariant violations keep theirs.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, models.ErrInvariantViolation) {
		h.logger.Error("Unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	WriteResponse(w, status, api.Error{Error: msg})
}

// decode reads a JSON body into v. Anything unreadable is a validation
// error.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty: %w", models.ErrValidation)
		}
		return fmt.Errorf("invalid request body: %v: %w", err, models.ErrValidation)
	}
	return nil
}
