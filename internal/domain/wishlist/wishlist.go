// Package wishlist keeps the products a user saved for later.
package wishlist

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/product"
)

// Repository persists wishlist entries. Add and Remove are idempotent.
type Repository interface {
	List(ctx context.Context, userID string) ([]product.Product, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// Products checks product existence.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Service implements wishlist operations.
type Service struct {
	repo     Repository
	products Products
}

// NewService creates a wishlist Service.
func NewService(repo Repository, products Products) *Service {
	return &Service{repo: repo, products: products}
}

// List returns the saved products of userID.
func (s *Service) List(ctx context.Context, userID string) ([]product.Product, error) {
	return s.repo.List(ctx, userID)
}

// Add saves productID and returns the updated list.
func (s *Service) Add(ctx context.Context, userID, productID string) ([]product.Product, error) {
	if productID == "" {
		return nil, apperr.Validation("productId is required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperr.Validation("product " + productID + " does not exist")
		}
		return nil, err
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return nil, errors.Wrap(err, "add to wishlist")
	}
	return s.repo.List(ctx, userID)
}

// Remove drops productID and returns the updated list.
func (s *Service) Remove(ctx context.Context, userID, productID string) ([]product.Product, error) {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return nil, errors.Wrap(err, "remove from wishlist")
	}
	return s.repo.List(ctx, userID)
}

// Clear empties the wishlist of userID.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}
