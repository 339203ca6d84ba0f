// ABOUTME: JSON response helpers and the mapping from domain errors to status codes.
// ABOUTME: Every error body is {"message": "..."}.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harperreed/medrec/internal/auth"
	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps err to a status code. notFound is the message for a
// missing resource and fallback the message for anything unexpected.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound, fallback string) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeMessage(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFound)
	case errors.Is(err, storage.ErrConflict):
		writeMessage(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	default:
		s.serverError(w, r, fallback, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg, "method", r.Method, "path", r.URL.Path, "err", err)
	writeMessage(w, http.StatusInternalServerError, msg)
}
