// Package user exposes the back-office user directory consumed by the cash
// and payable services: lookup by username and bcrypt credential checks.
package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"tillbook/internal/user/models"
	"tillbook/pkg/domainerrors"
	"tillbook/pkg/platform/sentinel"
)

// Store is the persistence contract for user accounts.
type Store interface {
	Save(ctx context.Context, u models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Directory resolves users and verifies their credentials.
type Directory struct {
	users Store
}

func NewDirectory(users Store) *Directory {
	return &Directory{users: users}
}

// FindByUsername resolves a user account.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}
	return u, nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash.
func (d *Directory) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
