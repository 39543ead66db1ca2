package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/deception-server/internal/domain"
)

// writeError maps domain errors onto HTTP statuses. Unclassified errors are
// logged and reported as a plain 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrPermission):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrBadTiming):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrPartySize),
		errors.Is(err, domain.ErrCardPool),
		errors.Is(err, domain.ErrInvalidTestimony),
		errors.Is(err, domain.ErrInvalidAction):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Printf("ERROR [%s] %v", op, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
