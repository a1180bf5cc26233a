package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/apperrors"
	"github.com/comercio-labs/admin-console-service/internal/clients"
	"github.com/comercio-labs/admin-console-service/internal/models"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

// AuthService turns backend logins into console sessions.
type AuthService struct {
	gateway  clients.AuthGateway
	sessions session.Store
	orders   *OrderService
	logger   *zap.Logger
}

func NewAuthService(gateway clients.AuthGateway, sessions session.Store, orders *OrderService, logger *zap.Logger) *AuthService {
	return &AuthService{
		gateway:  gateway,
		sessions: sessions,
		orders:   orders,
		logger:   logger,
	}
}

// Login authenticates against the backend and opens a console session
// holding the returned bearer token.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (string, *models.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return "", nil, apperrors.NewValidationError("credentials", "email and password are required")
	}

	result, err := s.gateway.Login(ctx, creds)
	if err != nil {
		return "", nil, err
	}

	sessionID, err := s.sessions.Create(ctx, result.Token)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("session opened", zap.String("session_id", sessionID))
	user := result.User
	return sessionID, &user, nil
}

// Logout ends the session and discards its order workspace.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.orders.DropWorkspace(sessionID)
	s.logger.Info("session closed", zap.String("session_id", sessionID))
	return nil
}

// ListUsers returns the registered staff users for the console's user table.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.gateway.ListUsers(ctx)
	if err != nil {
		s.logger.Warn("user listing failed", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// Register creates a staff user in the backend.
func (s *AuthService) Register(ctx context.Context, user models.User) (*models.User, error) {
	if user.Email == "" || user.Password == "" {
		return nil, apperrors.NewValidationError("user", "email and password are required")
	}
	return s.gateway.Register(ctx, user)
}
