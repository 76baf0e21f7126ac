package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error details returned to clients.
const (
	detailInvalidCredentials = "Incorrect username or password"
	detailUnauthenticated    = "Invalid authentication credentials"
	detailSessionNotFound    = "Session not found or already logged out"
	detailDuplicateItemCode  = "Item with this item_code already exists"
	detailItemNotFound       = "Item not found"
	detailItemCodeMismatch   = "Item code in path and body must match"
	detailInternal           = "Internal server error"
)

// errorResponse is the body of every error response.
type errorResponse struct {
	Detail string `json:"detail"`
}

// messageResponse is the body of responses that carry no resource.
type messageResponse struct {
	Message string `json:"message"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	jsonResponse(w, status, errorResponse{Detail: detail})
}

// writeError maps a session, store or validation error to its status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		jsonError(w, http.StatusUnauthorized, detailInvalidCredentials)
	case errors.Is(err, auth.ErrUnauthenticated):
		jsonError(w, http.StatusUnauthorized, detailUnauthenticated)
	case errors.Is(err, auth.ErrSessionNotFound):
		jsonError(w, http.StatusBadRequest, detailSessionNotFound)
	case errors.Is(err, store.ErrDuplicateItemCode):
		jsonError(w, http.StatusBadRequest, detailDuplicateItemCode)
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, detailItemNotFound)
	case errors.Is(err, store.ErrItemCodeMismatch):
		jsonError(w, http.StatusBadRequest, detailItemCodeMismatch)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, detailInternal)
	}
}

// decodeJSON decodes a size-limited JSON request body into target. Decoding
// failures are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return &model.ValidationError{Reason: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}
