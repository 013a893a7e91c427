package product

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/category"
	"github.com/xenking/shop-api/pkg/slug"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxImages    = 5
)

// Input carries writable product fields. Nil pointers are left unchanged on
// update.
type Input struct {
	Title          *string
	Description    *string
	Price          *decimal.Decimal
	Quantity       *int
	CategoryID     *string
	SubcategoryIDs *[]string
}

// Taxonomy resolves the category tree a product is filed under.
type Taxonomy interface {
	GetCategory(ctx context.Context, id string) (*category.Category, error)
	GetSubcategory(ctx context.Context, id string) (*category.Subcategory, error)
}

// Service implements catalog product operations.
type Service struct {
	repo     Repository
	taxonomy Taxonomy
	images   ImageStore
	now      func() time.Time
}

// NewService creates a product Service.
func NewService(repo Repository, taxonomy Taxonomy, images ImageStore) *Service {
	return &Service{repo: repo, taxonomy: taxonomy, images: images, now: time.Now}
}

// List returns one page of products. Limit is clamped to MaxLimit.
func (s *Service) List(ctx context.Context, p ListParams) (*Page, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	p.Limit = min(p.Limit, MaxLimit)
	if p.Sort == "" {
		p.Sort = SortNewest
	}
	if !p.Sort.Valid() {
		return nil, apperr.Validation("unsupported sort " + string(p.Sort))
	}
	if p.MinPrice != nil && p.MaxPrice != nil && p.MinPrice.GreaterThan(*p.MaxPrice) {
		return nil, apperr.Validation("minPrice must not exceed maxPrice")
	}

	items, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return &Page{Items: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// Get returns product id.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new product.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if in.Title == nil || in.Price == nil || in.Quantity == nil || in.CategoryID == nil {
		return nil, apperr.Validation("title, price, quantity and categoryId are required")
	}
	now := s.now()
	p := &Product{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update applies the non-nil fields of in to product id.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// Delete removes product id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SetImages stores the uploaded images of product id. A nil cover keeps the
// current cover; a non-empty images list replaces the gallery.
func (s *Service) SetImages(ctx context.Context, id string, cover io.Reader, images []io.Reader) (*Product, error) {
	if cover == nil && len(images) == 0 {
		return nil, apperr.Validation("no images uploaded")
	}
	if len(images) > MaxImages {
		return nil, apperr.Validation("at most 5 images are allowed")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cover != nil {
		url, err := s.images.Save(ctx, cover)
		if err != nil {
			return nil, errors.Wrap(err, "save cover")
		}
		p.ImageCover = url
	}
	if len(images) > 0 {
		urls := make([]string, 0, len(images))
		for _, r := range images {
			url, err := s.images.Save(ctx, r)
			if err != nil {
				return nil, errors.Wrap(err, "save image")
			}
			urls = append(urls, url)
		}
		p.Images = urls
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product images")
	}
	return p, nil
}

func (s *Service) apply(ctx context.Context, p *Product, in Input) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if n := len([]rune(title)); n < 3 || n > 120 {
			return apperr.Validation("title must be between 3 and 120 characters")
		}
		p.Title, p.Slug = title, slug.Make(title)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return apperr.Validation("price must be positive")
		}
		p.Price = in.Price.Round(2)
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return apperr.Validation("quantity must not be negative")
		}
		p.Quantity = *in.Quantity
	}
	if in.CategoryID != nil {
		if _, err := s.taxonomy.GetCategory(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, category.ErrNotFound) {
				return apperr.Validation("category does not exist")
			}
			return err
		}
		p.CategoryID = *in.CategoryID
	}
	if in.SubcategoryIDs != nil {
		p.SubcategoryIDs = append([]string(nil), (*in.SubcategoryIDs)...)
	}
	for _, id := range p.SubcategoryIDs {
		sc, err := s.taxonomy.GetSubcategory(ctx, id)
		if err != nil {
			if errors.Is(err, category.ErrSubcategoryNotFound) {
				return apperr.Validation("subcategory " + id + " does not exist")
			}
			return err
		}
		if sc.CategoryID != p.CategoryID {
			return apperr.Validation("subcategory " + id + " does not belong to the product category")
		}
	}
	return nil
}
