package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes Value percent off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest removes the cost of one unit of the cheapest item.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeLowest:
		return true
	default:
		return false
	}
}

var (
	// ErrNotFound is returned when no coupon has the requested code or id.
	ErrNotFound = apperr.NotFound("coupon not found")
	// ErrInvalidCoupon is returned when a code cannot be applied to a cart,
	// either because it does not exist or the cart misses MinItems.
	ErrInvalidCoupon = apperr.Validation("invalid coupon code")
	// ErrCouponExpired is returned when the coupon expiry is in the past.
	ErrCouponExpired = apperr.Validation("coupon expired")
	// ErrCodeTaken is returned when creating a coupon whose code exists.
	ErrCodeTaken = apperr.Conflict("coupon code already exists")
)

// Rule is the discount part of a coupon. Carts keep a copy of the rule they
// were given so totals can be recomputed without another lookup.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
}

// Coupon is a named discount with an expiry.
type Coupon struct {
	ID string
	Rule
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the coupon can no longer be applied at now.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// Discount holds the computed discount amount.
type Discount struct {
	Amount decimal.Decimal
}

// Item represents a line item for discount calculation purposes.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Finder looks coupons up by code. Codes match exactly as stored.
type Finder interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}

// Repository provides coupon persistence.
type Repository interface {
	Finder
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	GetByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Delete(ctx context.Context, id string) error
	UpsertBatch(ctx context.Context, coupons []Coupon) (int64, error)
}
