// Package api exposes the service layer as a JSON HTTP API.
package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/splitledger/splitledger/internal/service"
)

// emailRegex validates email addresses (simplified RFC 5322).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	rooms *service.RoomService
	users *service.UserService
}

// NewHandler creates a new Handler over the service layer.
func NewHandler(rooms *service.RoomService, users *service.UserService) *Handler {
	return &Handler{rooms: rooms, users: users}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// ServiceError maps a service error onto an HTTP status and sends it.
func (h *Handler) ServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch service.KindOf(err) {
	case service.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case service.KindForbidden, service.KindNotAdmin:
		status, message = http.StatusForbidden, err.Error()
	case service.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case service.KindConflict:
		status, message = http.StatusConflict, err.Error()
	}

	h.Error(w, status, message)
}

// decode parses the request body into dst, rejecting unknown fields.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// isValidEmail validates email addresses for registration.
func isValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}
