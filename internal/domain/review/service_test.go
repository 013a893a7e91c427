package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/product"
)

type memRepo struct {
	byID map[string]Review
}

func (m *memRepo) Create(_ context.Context, r *Review) error {
	for _, existing := range m.byID {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			return ErrAlreadyReviewed
		}
	}
	m.byID[r.ID] = *r
	return nil
}

func (m *memRepo) Update(_ context.Context, r *Review) error {
	m.byID[r.ID] = *r
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Review, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memRepo) List(_ context.Context, productID string, _, _ int) ([]Review, int, error) {
	var out []Review
	for _, r := range m.byID {
		if productID == "" || r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Delete(_ context.Context, r *Review) error {
	delete(m.byID, r.ID)
	return nil
}

type stubProducts struct{}

func (stubProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	if id != "P1" {
		return nil, product.ErrNotFound
	}
	return &product.Product{ID: id}, nil
}

func ptr[T any](v T) *T { return &v }

var (
	jane  = auth.Identity{UserID: "u1", Role: auth.RoleUser}
	bob   = auth.Identity{UserID: "u2", Role: auth.RoleUser}
	admin = auth.Identity{UserID: "a1", Role: auth.RoleAdmin}
)

func newTestService() (*Service, *memRepo) {
	repo := &memRepo{byID: map[string]Review{}}
	return NewService(repo, stubProducts{}), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, jane, "P1", Input{
		Title:   ptr("<b>Great</b> waffle"),
		Comment: ptr(`tasty<script>alert("x")</script>`),
		Rating:  ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Great waffle", r.Title)
	assert.Equal(t, "tasty", r.Comment)
	assert.Equal(t, "P1", r.ProductID)

	_, err = svc.Create(ctx, jane, "P1", Input{Rating: ptr(3)})
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.Create(ctx, bob, "P9", Input{Rating: ptr(3)})
	require.ErrorIs(t, err, product.ErrNotFound)

	_, err = svc.Create(ctx, bob, "P1", Input{Rating: ptr(6)})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, bob, "P1", Input{})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_Ownership(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, jane, "P1", Input{Rating: ptr(4)})
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, r.ID, Input{Rating: ptr(1)})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := svc.Update(ctx, jane, r.ID, Input{Rating: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	require.ErrorIs(t, svc.Delete(ctx, bob, r.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, admin, r.ID))
	assert.Empty(t, repo.byID)
}

func TestService_ListUnknownProduct(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.List(context.Background(), "P9", 1, 10)
	require.ErrorIs(t, err, product.ErrNotFound)
}
