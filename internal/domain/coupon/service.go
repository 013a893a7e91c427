package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

// Input carries the writable coupon fields. Nil pointers are left unchanged
// on update.
type Input struct {
	Code         *string
	DiscountType *DiscountType
	Value        *decimal.Decimal
	MinItems     *int
	ExpiresAt    *time.Time
}

// Service implements coupon administration.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates in and stores a new coupon.
func (s *Service) Create(ctx context.Context, in Input) (*Coupon, error) {
	if in.Code == nil || in.DiscountType == nil || in.ExpiresAt == nil {
		return nil, apperr.Validation("code, discountType and expiresAt are required")
	}
	if in.Value == nil && *in.DiscountType != DiscountFreeLowest {
		return nil, apperr.Validation("value is required")
	}

	now := s.now()
	c := &Coupon{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(c)
	if err := Validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// Update applies the non-nil fields of in to coupon id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	c.UpdatedAt = s.now()
	if err := Validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update coupon")
	}
	return c, nil
}

// Get returns coupon id.
func (s *Service) Get(ctx context.Context, id string) (*Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all coupons.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

// Delete removes coupon id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (in Input) apply(c *Coupon) {
	if in.Code != nil {
		c.Code = strings.TrimSpace(*in.Code)
	}
	if in.DiscountType != nil {
		c.DiscountType = *in.DiscountType
	}
	if in.Value != nil {
		c.Value = *in.Value
	}
	if in.MinItems != nil {
		c.MinItems = *in.MinItems
	}
	if in.ExpiresAt != nil {
		c.ExpiresAt = in.ExpiresAt.UTC()
	}
}

// Validate checks the rule and expiry of c.
func Validate(c *Coupon) error {
	switch {
	case c.Code == "":
		return apperr.Validation("code must not be empty")
	case !c.DiscountType.Valid():
		return apperr.Validation("discountType must be one of percentage, fixed, free_lowest")
	case c.Value.IsNegative():
		return apperr.Validation("value must not be negative")
	case c.DiscountType == DiscountPercentage && (c.Value.IsZero() || c.Value.GreaterThan(hundred)):
		return apperr.Validation("percentage value must be in (0, 100]")
	case c.DiscountType == DiscountFixed && c.Value.IsZero():
		return apperr.Validation("fixed value must be positive")
	case c.MinItems < 0:
		return apperr.Validation("minItems must not be negative")
	case c.ExpiresAt.IsZero():
		return apperr.Validation("expiresAt is required")
	}
	return nil
}
