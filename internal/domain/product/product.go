package product

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

var (
	// ErrNotFound is returned when a product does not exist.
	ErrNotFound = apperr.NotFound("product not found")
	// ErrInsufficientStock is returned when checkout would drive stock negative.
	ErrInsufficientStock = apperr.Validation("insufficient stock")
)

// Product is a catalog entry.
type Product struct {
	ID              string
	Title           string
	Slug            string
	Description     string
	Price           decimal.Decimal
	Quantity        int // units in stock
	Sold            int
	ImageCover      string
	Images          []string
	CategoryID      string
	SubcategoryIDs  []string
	RatingsAverage  float64
	RatingsQuantity int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Sort is a product list ordering.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price"
	SortPriceDesc Sort = "-price"
	SortTopSold   Sort = "-sold"
	SortTopRated  Sort = "-rating"
)

// Valid reports whether s is a known ordering.
func (s Sort) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortTopSold, SortTopRated:
		return true
	default:
		return false
	}
}

// ListParams filters and paginates product listings. Zero values mean
// "no filter".
type ListParams struct {
	Page          int
	Limit         int
	Sort          Sort
	Keyword       string
	CategoryID    string
	SubcategoryID string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

// Page is one page of a listing.
type Page struct {
	Items []Product
	Total int
	Page  int
	Limit int
}

// Repository provides product persistence.
type Repository interface {
	List(ctx context.Context, p ListParams) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// ImageStore persists uploaded product images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}
