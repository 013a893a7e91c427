package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/auth"
)

const (
	minPasswordLen = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ProfileInput carries profile fields; nil pointers are left unchanged.
// Role is honoured only by admin updates.
type ProfileInput struct {
	Username *string
	Email    *string
	Phone    *string
	Role     *auth.Role
}

// Service implements account operations.
type Service struct {
	repo        Repository
	tokens      *auth.TokenManager
	revocations auth.Revocations
	cost        int
	now         func() time.Time
}

// NewService creates a user Service.
func NewService(repo Repository, tokens *auth.TokenManager, revocations auth.Revocations) *Service {
	if revocations == nil {
		revocations = auth.NopRevocations{}
	}
	return &Service{
		repo:        repo,
		tokens:      tokens,
		revocations: revocations,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("invalid email address")
	}
	return email, nil
}

func checkUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < 2 || n > 64 {
		return "", apperr.Validation("username must be between 2 and 64 characters")
	}
	return name, nil
}

func checkPassword(password, confirm string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return apperr.Validation("password must be between 6 and 72 characters")
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

// Register creates a user with the user role and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, *auth.Token, error) {
	username, err := checkUsername(in.Username)
	if err != nil {
		return nil, nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}
	if err := checkPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, nil, err
	}

	u, err := s.create(ctx, username, email, in.Password, auth.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

func (s *Service) create(ctx context.Context, username, email, password string, role auth.Role) (*User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *auth.Token, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, errors.Wrap(err, "get user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// Logout revokes the token the caller authenticated with.
func (s *Service) Logout(ctx context.Context, id auth.Identity) error {
	if id.TokenID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return errors.Wrap(err, "revoke token")
	}
	return nil
}

// Authenticate verifies a bearer token and resolves the current account.
// The role is taken from the stored user, not from the token.
func (s *Service) Authenticate(ctx context.Context, raw string) (auth.Identity, error) {
	if raw == "" {
		return auth.Identity{}, auth.ErrMissingCredentials
	}
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return auth.Identity{}, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return auth.Identity{}, errors.Wrap(err, "check revocation")
	}
	if revoked {
		return auth.Identity{}, auth.ErrInvalidToken
	}

	u, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Identity{}, auth.ErrInvalidToken
		}
		return auth.Identity{}, errors.Wrap(err, "get user")
	}
	if u.PasswordChangedAt != nil && u.PasswordChangedAt.Truncate(time.Second).After(claims.IssuedAt.Time) {
		return auth.Identity{}, apperr.Unauthorized("password changed, please log in again")
	}

	return auth.Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Get returns user id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of users ordered by creation time.
func (s *Service) List(ctx context.Context, page, limit int) ([]User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

// UpdateProfile applies in to the caller's own account. Role is ignored.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*User, error) {
	in.Role = nil
	return s.update(ctx, id, in)
}

// Update applies in to account id, including the role.
func (s *Service) Update(ctx context.Context, id string, in ProfileInput) (*User, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperr.Validation("role must be user or admin")
	}
	return s.update(ctx, id, in)
}

func (s *Service) update(ctx context.Context, id string, in ProfileInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		if u.Username, err = checkUsername(*in.Username); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if u.Email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Tokens issued before the change stop working; a fresh one is returned.
func (s *Service) ChangePassword(ctx context.Context, id, current, password, confirm string) (*auth.Token, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return nil, ErrWrongPassword
	}
	if err := checkPassword(password, confirm); err != nil {
		return nil, err
	}
	if u.PasswordHash, err = s.hash(password); err != nil {
		return nil, err
	}
	// Tokens carry second precision; step back one second so the token
	// issued below is not older than the change.
	changed := s.now().Truncate(time.Second).Add(-time.Second)
	u.PasswordChangedAt = &changed
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update password")
	}
	return s.tokens.Issue(u.ID, u.Role)
}

// Delete removes account id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// BootstrapAdmin creates an admin account, or promotes the existing account
// with that email. It reports whether a new account was created.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password, username string) (*User, bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Role = auth.RoleAdmin
		existing.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, errors.Wrap(err, "promote user")
		}
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, errors.Wrap(err, "get user")
	}

	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if username, err = checkUsername(username); err != nil {
		return nil, false, err
	}
	if err := checkPassword(password, password); err != nil {
		return nil, false, err
	}
	u, err := s.create(ctx, username, email, password, auth.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
