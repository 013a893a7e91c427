// Package auth holds caller identities, the role policy, bearer token
// issuance and API key verification.
package auth

import (
	"context"
	"slices"
	"time"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

var (
	ErrMissingCredentials = apperr.Unauthorized("authentication required")
	ErrInvalidToken       = apperr.Unauthorized("invalid or expired token")
	ErrInvalidAPIKey      = apperr.Unauthorized("invalid api key")
	ErrForbidden          = apperr.Forbidden("not allowed to perform this action")

	// ErrAPIKeyNotFound is returned by an APIKeyRepository for unknown or
	// inactive keys.
	ErrAPIKeyNotFound = apperr.NotFound("api key not found")
)

// Role is the coarse permission level of a caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	// RoleService is held by API key callers; their permissions are the
	// key's scopes.
	RoleService Role = "service"
)

// Valid reports whether r is a role assignable to users.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is a verified caller.
type Identity struct {
	UserID string
	Email  string
	Role   Role
	// Scopes lists the actions granted to a service caller.
	Scopes []Action
	// TokenID and ExpiresAt describe the bearer token used, if any.
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller has the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Can reports whether the caller may perform action.
func (id Identity) Can(action Action) bool {
	if id.Role == RoleService {
		return slices.Contains(id.Scopes, action)
	}
	return Allow(id.Role, action)
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
