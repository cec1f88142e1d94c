package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

// AuthService registers accounts and issues session tokens.
type AuthService struct {
	authenticator auth.Authenticator
	users         auth.UserStorage
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, users auth.UserStorage, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new user account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req api.RegisterRequest) (*models.User, string, error) {
	s.logger.Info("Register request", "email", req.Email)

	user, err := s.authenticator.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Email, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req api.LoginRequest) (*models.User, string, error) {
	s.logger.Info("Login request", "email", req.Email)

	if req.Email == "" || req.Password == "" {
		return nil, "", fmt.Errorf("email and password are required: %w", models.ErrValidation)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Email, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Me returns the account behind the session. A token whose account no
// longer exists is treated as invalid.
func (s *AuthService) Me(ctx context.Context, sess auth.Session) (*models.User, error) {
	s.logger.Info("GetCurrentUser request", "user_id", sess.UserID)

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
