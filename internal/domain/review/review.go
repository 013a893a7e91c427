// Package review stores product ratings written by customers.
package review

import (
	"context"
	"time"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

var (
	ErrNotFound        = apperr.NotFound("review not found")
	ErrAlreadyReviewed = apperr.Conflict("you have already reviewed this product")
	ErrNotOwner        = apperr.Forbidden("only the author may change this review")
)

// Review is one customer's rating of a product.
type Review struct {
	ID        string
	UserID    string
	ProductID string
	Title     string
	Comment   string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists reviews. Each write also refreshes the product's
// rating aggregate in the same transaction. A second review of the same
// product by the same user is ErrAlreadyReviewed.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	// List returns reviews of productID, or all reviews when it is empty,
	// newest first.
	List(ctx context.Context, productID string, page, limit int) ([]Review, int, error)
	Delete(ctx context.Context, r *Review) error
}
