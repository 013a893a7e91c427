// Package banner manages the promotional banners shown on the storefront.
package banner

import (
	"context"
	"io"
	"time"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

var (
	ErrNotFound      = apperr.NotFound("banner not found")
	ErrImageRequired = apperr.Validation("image is required")
)

// Banner is an image with a caption.
type Banner struct {
	ID        string
	Title     string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists banners.
type Repository interface {
	Create(ctx context.Context, b *Banner) error
	Update(ctx context.Context, b *Banner) error
	Get(ctx context.Context, id string) (*Banner, error)
	// List returns banners newest first.
	List(ctx context.Context) ([]Banner, error)
	Delete(ctx context.Context, id string) error
}

// ImageStore resizes and stores an uploaded image, returning its public URL.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}
