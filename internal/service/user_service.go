package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/splitledger/splitledger/internal/auth"
	"github.com/splitledger/splitledger/internal/models"
)

// Session is the result of a successful registration or login.
type Session struct {
	User  *models.User
	Token string
}

// UserService handles account registration, login and profile lookup.
type UserService struct {
	authenticator *auth.Authenticator
	jwtManager    *auth.JWTManager
	users         auth.UserStore
}

// NewUserService creates a new user service.
func NewUserService(authenticator *auth.Authenticator, jwtManager *auth.JWTManager, users auth.UserStore) *UserService {
	return &UserService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
	}
}

// Register creates a new account and returns a session token for it.
func (s *UserService) Register(ctx context.Context, email, displayName, password string) (*Session, error) {
	if email == "" || displayName == "" {
		return nil, errf(KindValidation, "email and display name are required")
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrWeakPassword):
			return nil, wrap(KindValidation, err)
		}
		slog.Error("Registration failed", "email", email, "error", err)
		return nil, wrap(KindInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, wrap(KindInternal, err)
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials and returns a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, wrap(KindValidation, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.Warn("Login failed", "email", email)
		return nil, wrap(KindForbidden, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, wrap(KindInternal, err)
	}

	slog.Info("User logged in", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}

// GetUser returns the stored profile for a user ID.
func (s *UserService) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, wrap(KindInternal, err)
	}
	if user == nil {
		return nil, errf(KindNotFound, "user %s not found", id)
	}
	return user, nil
}
