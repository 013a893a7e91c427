package review

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/product"
)

const (
	maxTitleLen   = 120
	maxCommentLen = 2000
)

// Input carries review fields; nil pointers are left unchanged on update.
type Input struct {
	Title   *string
	Comment *string
	Rating  *int
}

// Products checks that a reviewed product exists.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Service implements review operations.
type Service struct {
	repo     Repository
	products Products
	policy   *bluemonday.Policy
	now      func() time.Time
}

// NewService creates a review Service. Review text is stripped of all markup.
func NewService(repo Repository, products Products) *Service {
	return &Service{
		repo:     repo,
		products: products,
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// Create stores a review of productID by the caller.
func (s *Service) Create(ctx context.Context, author auth.Identity, productID string, in Input) (*Review, error) {
	if in.Rating == nil {
		return nil, apperr.Validation("rating is required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	now := s.now()
	r := &Review{
		ID:        ulid.Make().String(),
		UserID:    author.UserID,
		ProductID: productID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(r, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// Update changes review id. Only its author may update it.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id string, in Input) (*Review, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != caller.UserID {
		return nil, ErrNotOwner
	}
	if err := s.apply(r, in); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, errors.Wrap(err, "update review")
	}
	return r, nil
}

// Delete removes review id. Authors and moderators may delete.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id string) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != caller.UserID && !caller.Can(auth.ActionModerateReview) {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, r)
}

// Get returns review id.
func (s *Service) Get(ctx context.Context, id string) (*Review, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns reviews of productID, or of every product when empty.
func (s *Service) List(ctx context.Context, productID string, page, limit int) ([]Review, int, error) {
	if productID != "" {
		if _, err := s.products.GetByID(ctx, productID); err != nil {
			return nil, 0, err
		}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, productID, page, limit)
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(v))
}

func (s *Service) apply(r *Review, in Input) error {
	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return apperr.Validation("rating must be between 1 and 5")
		}
		r.Rating = *in.Rating
	}
	if in.Title != nil {
		r.Title = s.clean(*in.Title)
		if len([]rune(r.Title)) > maxTitleLen {
			return apperr.Validation("title is too long")
		}
	}
	if in.Comment != nil {
		r.Comment = s.clean(*in.Comment)
		if len([]rune(r.Comment)) > maxCommentLen {
			return apperr.Validation("comment is too long")
		}
	}
	return nil
}
