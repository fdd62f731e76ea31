// Package services provides the business logic layer for the portal.
// This file implements credential verification and password hashing.
package services

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/kafkasder-portal/kafkas-sub000/internal/models"
	"github.com/kafkasder-portal/kafkas-sub000/internal/repository"
)

// AuthService handles authentication and password management operations.
// It sits between the HTTP handlers and the user repository.
//
// Security Notes:
//   - bcrypt with a configurable cost factor (default 12)
//   - Constant-time password comparison prevents timing attacks
//   - Never stores or logs plaintext passwords
type AuthService struct {
	userRepo   *repository.UserRepository
	bcryptCost int
}

// NewAuthService creates an AuthService hashing with the given bcrypt cost.
// A cost below bcrypt.MinCost falls back to cost 12.
func NewAuthService(bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = 12
	}
	return &AuthService{
		userRepo:   repository.NewUserRepository(),
		bcryptCost: bcryptCost,
	}
}

// Authenticate verifies credentials and returns the user record on success.
// The same generic failure is returned for unknown accounts and wrong
// passwords so responses do not reveal which accounts exist.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}
	return user, nil
}

// HashPassword generates a bcrypt hash of the provided plaintext password.
// Used when creating accounts or rotating passwords.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(hash), err
}
