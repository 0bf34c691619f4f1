package api

import (
	"net/http"
	"time"

	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          models.UserID `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	CreatedAt   string        `json:"created_at"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   time.Unix(u.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !isValidEmail(req.Email) {
		h.Error(w, http.StatusBadRequest, "invalid email address")
		return
	}

	session, err := h.users.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, sessionResponse{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}

// Me handles GET /me, returning the authenticated user's stored profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.ServiceError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toUserResponse(user))
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if service.KindOf(err) == service.KindForbidden {
			h.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, sessionResponse{
		User:  toUserResponse(session.User),
		Token: session.Token,
	})
}
