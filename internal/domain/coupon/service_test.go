package coupon

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu   sync.Mutex
	byID map[string]Coupon
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]Coupon)}
}

func (m *memRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) Create(_ context.Context, c *Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Code == c.Code {
			return ErrCodeTaken
		}
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memRepo) Update(_ context.Context, c *Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[c.ID]; !ok {
		return ErrNotFound
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) List(_ context.Context) ([]Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Coupon, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) UpsertBatch(_ context.Context, coupons []Coupon) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range coupons {
		m.byID[c.ID] = c
	}
	return int64(len(coupons)), nil
}

func ptr[T any](v T) *T { return &v }

func TestService_Create(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		in       Input
		wantKind error
	}{
		{
			name: "percentage",
			in: Input{
				Code:         ptr("SAVE10"),
				DiscountType: ptr(DiscountPercentage),
				Value:        ptr(decimal.NewFromInt(10)),
				ExpiresAt:    &expires,
			},
		},
		{
			name: "free lowest without value",
			in: Input{
				Code:         ptr("FREELOW"),
				DiscountType: ptr(DiscountFreeLowest),
				ExpiresAt:    &expires,
			},
		},
		{
			name:     "missing code",
			in:       Input{DiscountType: ptr(DiscountFixed), Value: ptr(decimal.NewFromInt(1)), ExpiresAt: &expires},
			wantKind: apperr.ErrValidation,
		},
		{
			name: "percentage above 100",
			in: Input{
				Code:         ptr("TOO_MUCH"),
				DiscountType: ptr(DiscountPercentage),
				Value:        ptr(decimal.NewFromInt(150)),
				ExpiresAt:    &expires,
			},
			wantKind: apperr.ErrValidation,
		},
		{
			name: "unknown type",
			in: Input{
				Code:         ptr("BOGO"),
				DiscountType: ptr(DiscountType("bogo")),
				Value:        ptr(decimal.NewFromInt(1)),
				ExpiresAt:    &expires,
			},
			wantKind: apperr.ErrValidation,
		},
		{
			name: "negative min items",
			in: Input{
				Code:         ptr("NEG"),
				DiscountType: ptr(DiscountFixed),
				Value:        ptr(decimal.NewFromInt(1)),
				MinItems:     ptr(-1),
				ExpiresAt:    &expires,
			},
			wantKind: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMemRepo())
			got, err := svc.Create(context.Background(), tt.in)
			if tt.wantKind != nil {
				require.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, *tt.in.Code, got.Code)
		})
	}
}

func TestService_CreateDuplicateCode(t *testing.T) {
	svc := NewService(newMemRepo())
	expires := time.Now().Add(time.Hour)
	in := Input{
		Code:         ptr("SAVE10"),
		DiscountType: ptr(DiscountPercentage),
		Value:        ptr(decimal.NewFromInt(10)),
		ExpiresAt:    &expires,
	}

	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrCodeTaken)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_Update(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	expires := time.Now().Add(time.Hour)

	created, err := svc.Create(context.Background(), Input{
		Code:         ptr("SAVE10"),
		DiscountType: ptr(DiscountPercentage),
		Value:        ptr(decimal.NewFromInt(10)),
		ExpiresAt:    &expires,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, Input{Value: ptr(decimal.NewFromInt(20))})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(updated.Value))
	assert.Equal(t, "SAVE10", updated.Code)

	_, err = svc.Update(context.Background(), created.ID, Input{Value: ptr(decimal.NewFromInt(0))})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(context.Background(), "missing", Input{})
	require.ErrorIs(t, err, ErrNotFound)
}
