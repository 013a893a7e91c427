// Package category manages the two-level product taxonomy.
package category

import (
	"context"
	"time"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

var (
	ErrNotFound            = apperr.NotFound("category not found")
	ErrSubcategoryNotFound = apperr.NotFound("subcategory not found")
	ErrNameTaken           = apperr.Conflict("name already exists")
)

// Category is a top-level catalog grouping.
type Category struct {
	ID        string
	Name      string
	Slug      string
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	ID         string
	Name       string
	Slug       string
	CategoryID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository persists categories and subcategories.
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateSubcategory(ctx context.Context, s *Subcategory) error
	UpdateSubcategory(ctx context.Context, s *Subcategory) error
	GetSubcategory(ctx context.Context, id string) (*Subcategory, error)
	// ListSubcategories returns all subcategories, or those of categoryID
	// when it is non-empty.
	ListSubcategories(ctx context.Context, categoryID string) ([]Subcategory, error)
	DeleteSubcategory(ctx context.Context, id string) error
}
