// Package user manages accounts, credentials and profiles.
package user

import (
	"context"
	"time"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/auth"
)

var (
	ErrNotFound           = apperr.NotFound("user not found")
	ErrEmailTaken         = apperr.Conflict("email already in use")
	ErrInvalidCredentials = apperr.Unauthorized("incorrect email or password")
	ErrPasswordMismatch   = apperr.Validation("password confirmation does not match")
	ErrWrongPassword      = apperr.Validation("current password is incorrect")
)

// User is a registered account.
type User struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      string
	Role              auth.Role
	Phone             string
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Repository persists users. Email uniqueness is enforced by the store and
// reported as ErrEmailTaken.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) ([]User, int, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
