package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// APIKey is a machine credential, e.g. for a payment gateway callback.
// Only the HMAC of the key is stored.
type APIKey struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []Action
}

// APIKeyRepository provides lookup of API keys by their HMAC hash.
// FindByHash returns ErrAPIKeyNotFound for unknown keys.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
	Create(ctx context.Context, k *APIKey) error
}

// APIKeyVerifier authenticates raw API keys.
type APIKeyVerifier struct {
	keys   APIKeyRepository
	pepper []byte
}

// NewAPIKeyVerifier creates an APIKeyVerifier hashing with pepper.
func NewAPIKeyVerifier(keys APIKeyRepository, pepper []byte) *APIKeyVerifier {
	return &APIKeyVerifier{keys: keys, pepper: pepper}
}

// HashAPIKey returns the hex HMAC-SHA256 of key.
func HashAPIKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateAPIKey returns a new random key and its hash.
func GenerateAPIKey(pepper []byte) (key, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "read random")
	}
	key = "sk_" + hex.EncodeToString(buf)
	return key, HashAPIKey(pepper, key), nil
}

// Verify resolves raw to a service Identity.
func (v *APIKeyVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrMissingCredentials
	}
	hash := HashAPIKey(v.pepper, raw)

	k, err := v.keys.FindByHash(ctx, hash)
	switch {
	case errors.Is(err, ErrAPIKeyNotFound):
		return Identity{}, ErrInvalidAPIKey
	case err != nil:
		return Identity{}, errors.Wrap(err, "find api key")
	}

	// The stored row must match what we computed, compared in constant time.
	want, err := hex.DecodeString(hash)
	if err != nil {
		return Identity{}, ErrInvalidAPIKey
	}
	got, err := hex.DecodeString(k.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(want, got) != 1 {
		return Identity{}, ErrInvalidAPIKey
	}

	return Identity{UserID: "apikey:" + k.ID, Role: RoleService, Scopes: k.Scopes}, nil
}
