package category

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/pkg/slug"
)

const (
	minNameLen = 2
	maxNameLen = 64
)

// Service implements catalog taxonomy operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a category Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < minNameLen || n > maxNameLen {
		return "", apperr.Validation("name must be between 2 and 64 characters")
	}
	return name, nil
}

// CreateCategory stores a new category.
func (s *Service) CreateCategory(ctx context.Context, name, image string) (*Category, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := &Category{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      slug.Make(name),
		Image:     image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return c, nil
}

// UpdateCategory renames category id and optionally replaces its image.
func (s *Service) UpdateCategory(ctx context.Context, id string, name, image *string) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n, err := checkName(*name)
		if err != nil {
			return nil, err
		}
		c.Name, c.Slug = n, slug.Make(n)
	}
	if image != nil {
		c.Image = *image
	}
	c.UpdatedAt = s.now()
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update category")
	}
	return c, nil
}

// GetCategory returns category id.
func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// DeleteCategory removes category id together with its subcategories.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

// CreateSubcategory stores a subcategory under categoryID, which must exist.
func (s *Service) CreateSubcategory(ctx context.Context, categoryID, name string) (*Subcategory, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	if categoryID == "" {
		return nil, apperr.Validation("categoryId is required")
	}
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Validation("category does not exist")
		}
		return nil, err
	}

	now := s.now()
	sc := &Subcategory{
		ID:         uuid.New().String(),
		Name:       name,
		Slug:       slug.Make(name),
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateSubcategory(ctx, sc); err != nil {
		return nil, errors.Wrap(err, "create subcategory")
	}
	return sc, nil
}

// UpdateSubcategory renames or moves subcategory id.
func (s *Service) UpdateSubcategory(ctx context.Context, id string, name, categoryID *string) (*Subcategory, error) {
	sc, err := s.repo.GetSubcategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n, err := checkName(*name)
		if err != nil {
			return nil, err
		}
		sc.Name, sc.Slug = n, slug.Make(n)
	}
	if categoryID != nil && *categoryID != sc.CategoryID {
		if _, err := s.repo.GetCategory(ctx, *categoryID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, apperr.Validation("category does not exist")
			}
			return nil, err
		}
		sc.CategoryID = *categoryID
	}
	sc.UpdatedAt = s.now()
	if err := s.repo.UpdateSubcategory(ctx, sc); err != nil {
		return nil, errors.Wrap(err, "update subcategory")
	}
	return sc, nil
}

// GetSubcategory returns subcategory id.
func (s *Service) GetSubcategory(ctx context.Context, id string) (*Subcategory, error) {
	return s.repo.GetSubcategory(ctx, id)
}

// ListSubcategories returns subcategories, filtered by categoryID when set.
// An unknown categoryID yields ErrNotFound rather than an empty list.
func (s *Service) ListSubcategories(ctx context.Context, categoryID string) ([]Subcategory, error) {
	if categoryID != "" {
		if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListSubcategories(ctx, categoryID)
}

// DeleteSubcategory removes subcategory id.
func (s *Service) DeleteSubcategory(ctx context.Context, id string) error {
	return s.repo.DeleteSubcategory(ctx, id)
}
