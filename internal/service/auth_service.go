package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkiprop/loanbook/internal/auth"
	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/repository"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "Admin@123"
)

// AuthService verifies credentials and issues session tokens.
type AuthService struct {
	userRepo repository.UserRepository
	sessions *auth.SessionManager
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, sessions *auth.SessionManager, logger *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions, logger: logger}
}

// Login checks the password and returns the user with a fresh session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", bizerr.WrapInvalidCredentials()
	}
	if err != nil {
		return nil, "", bizerr.WrapDatabaseError(err)
	}

	if !auth.VerifyPassword(password, user.Password) {
		return nil, "", bizerr.WrapInvalidCredentials()
	}

	token, err := s.sessions.Issue(user.Username)
	if err != nil {
		return nil, "", bizerr.WrapDatabaseError(err)
	}

	return user, token, nil
}

// ChangePassword replaces the user's password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, oldPassword, newPassword string) error {
	if !auth.VerifyPassword(oldPassword, user.Password) {
		return bizerr.WrapWrongPassword()
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return bizerr.WrapDatabaseError(err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return bizerr.WrapDatabaseError(err)
	}

	return nil
}

// EnsureAdmin seeds the default operator account on first boot.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	_, err := s.userRepo.GetByUsername(ctx, defaultAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}

	user := &domain.User{
		ID:        uuid.New(),
		Username:  defaultAdminUsername,
		Password:  hash,
		CreatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("seeded default admin user", zap.String("username", defaultAdminUsername))
	return nil
}
