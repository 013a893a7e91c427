package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/coupon"
	"github.com/xenking/shop-api/internal/domain/product"
)

// Catalog supplies current prices and existence checks.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Service implements cart operations. Each mutation runs inside
// Repository.Update, so operations on one user's cart are serialized.
type Service struct {
	repo     Repository
	products Catalog
	coupons  coupon.Validator
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(repo Repository, products Catalog, coupons coupon.Validator) *Service {
	return &Service{repo: repo, products: products, coupons: coupons, now: time.Now}
}

// Get returns the cart of userID. A user without a cart gets an empty one,
// which is not persisted.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return New(userID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// AddItem adds quantity units of productID at its current price.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if productID == "" {
		return nil, apperr.Validation("productId is required")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperr.Validation("product " + productID + " does not exist")
		}
		return nil, errors.Wrap(err, "get product")
	}

	return s.update(ctx, userID, func(c *Cart) error {
		return c.AddItem(p.ID, quantity, p.Price)
	})
}

// UpdateItemQuantity sets the quantity of productID; zero or less removes it.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	return s.update(ctx, userID, func(c *Cart) error {
		return c.SetQuantity(productID, quantity)
	})
}

// RemoveItem removes productID from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	return s.update(ctx, userID, func(c *Cart) error {
		return c.RemoveItem(productID)
	})
}

// Clear empties the cart. It succeeds on an already empty cart.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	return s.update(ctx, userID, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

// ApplyCoupon validates code and applies it to the cart. Unknown codes and
// rules that do not fit the cart fail with coupon.ErrInvalidCoupon; expired
// ones with coupon.ErrCouponExpired. The cart is untouched on failure.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (*Cart, error) {
	cp, err := s.coupons.Validate(ctx, code)
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		return nil, coupon.ErrInvalidCoupon
	case err != nil:
		return nil, err
	}

	return s.update(ctx, userID, func(c *Cart) error {
		return c.ApplyCoupon(cp.Rule)
	})
}

func (s *Service) update(ctx context.Context, userID string, op func(*Cart) error) (*Cart, error) {
	c, err := s.repo.Update(ctx, userID, func(c *Cart) error {
		if err := op(c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "update cart")
	}
	return c, nil
}
