package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campuslend/lendhub/internal/lifecycle"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON sends v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// lifecycleError maps an engine failure to its HTTP response. Precondition
// failures are conflicts or lookups gone stale, never server faults.
// ErrAuditWriteFailed is not handled here: the mutation committed, so the
// caller reports success with a degraded-guarantee warning instead.
func lifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		JSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrUnauthorized):
		JSONError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, lifecycle.ErrItemInactive):
		JSONError(w, "item not available", http.StatusConflict)
	case errors.Is(err, lifecycle.ErrOutOfStock):
		JSONError(w, "item out of stock", http.StatusConflict)
	case errors.Is(err, lifecycle.ErrAlreadyProcessed):
		JSONError(w, "request already processed", http.StatusConflict)
	case errors.Is(err, lifecycle.ErrNotApproved):
		JSONError(w, "request must be approved to be returned", http.StatusConflict)
	default:
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
