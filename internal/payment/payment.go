// Package payment creates hosted payment sessions for carts.
package payment

import (
	"context"
	"time"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = apperr.Unavailable("online payments are not configured")

// LineItem is one priced line of a session. Amount is in minor units.
type LineItem struct {
	Name     string
	Amount   int64
	Quantity int64
}

// SessionRequest describes a checkout session to create.
type SessionRequest struct {
	// Reference ties the session back to the cart being paid.
	Reference string
	// IdempotencyKey deduplicates retries of the same request.
	IdempotencyKey string
	CustomerEmail  string
	Currency       string
	Items          []LineItem
	Metadata       map[string]string
}

// Session is a created hosted checkout session.
type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// Provider creates checkout sessions.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// Disabled is the Provider used when no gateway is configured.
type Disabled struct{}

// CreateCheckoutSession always fails with ErrNotConfigured.
func (Disabled) CreateCheckoutSession(context.Context, SessionRequest) (*Session, error) {
	return nil, ErrNotConfigured
}
