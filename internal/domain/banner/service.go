package banner

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

const maxTitleLen = 128

// Service implements banner management.
type Service struct {
	repo   Repository
	images ImageStore
	now    func() time.Time
}

// NewService creates a banner Service.
func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images, now: time.Now}
}

func checkTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title is required")
	}
	if len([]rune(title)) > maxTitleLen {
		return "", apperr.Validation("title must be at most 128 characters")
	}
	return title, nil
}

// Create stores a banner for the uploaded image.
func (s *Service) Create(ctx context.Context, title string, image io.Reader) (*Banner, error) {
	title, err := checkTitle(title)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, ErrImageRequired
	}
	url, err := s.images.Save(ctx, image)
	if err != nil {
		return nil, errors.Wrap(err, "save banner image")
	}

	now := s.now()
	b := &Banner{
		ID:        uuid.New().String(),
		Title:     title,
		ImageURL:  url,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, errors.Wrap(err, "create banner")
	}
	return b, nil
}

// Update changes the title and, when image is non-nil, replaces the image
// of banner id.
func (s *Service) Update(ctx context.Context, id string, title *string, image io.Reader) (*Banner, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		t, err := checkTitle(*title)
		if err != nil {
			return nil, err
		}
		b.Title = t
	}
	if image != nil {
		url, err := s.images.Save(ctx, image)
		if err != nil {
			return nil, errors.Wrap(err, "save banner image")
		}
		b.ImageURL = url
	}
	b.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, errors.Wrap(err, "update banner")
	}
	return b, nil
}

// Get returns banner id.
func (s *Service) Get(ctx context.Context, id string) (*Banner, error) {
	return s.repo.Get(ctx, id)
}

// List returns every banner.
func (s *Service) List(ctx context.Context) ([]Banner, error) {
	return s.repo.List(ctx)
}

// Delete removes banner id. The stored image file is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
