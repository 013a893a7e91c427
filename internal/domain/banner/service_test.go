package banner

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

// --- Mock implementations ---

type memRepo struct {
	banners map[string]Banner
}

func (m *memRepo) Create(_ context.Context, b *Banner) error {
	m.banners[b.ID] = *b
	return nil
}

func (m *memRepo) Update(_ context.Context, b *Banner) error {
	if _, ok := m.banners[b.ID]; !ok {
		return ErrNotFound
	}
	m.banners[b.ID] = *b
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*Banner, error) {
	b, ok := m.banners[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memRepo) List(_ context.Context) ([]Banner, error) {
	out := make([]Banner, 0, len(m.banners))
	for _, b := range m.banners {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.banners[id]; !ok {
		return ErrNotFound
	}
	delete(m.banners, id)
	return nil
}

// countingStore names each stored image after its upload order and rejects
// payloads that read "bad".
type countingStore struct {
	n int
}

func (s *countingStore) Save(_ context.Context, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	if string(data) == "bad" {
		return "", apperr.Validation("file is not a supported image")
	}
	s.n++
	return "/uploads/banner-" + strconv.Itoa(s.n) + ".jpeg", nil
}

// --- Helpers ---

func newTestService() (*Service, *memRepo, *countingStore) {
	repo := &memRepo{banners: map[string]Banner{}}
	store := &countingStore{}
	svc := NewService(repo, store)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, repo, store
}

func ptr(s string) *string { return &s }

// --- Tests ---

func TestService_Create(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		image    io.Reader
		wantKind error
		wantURL  string
	}{
		{name: "stored", title: "  Summer sale ", image: strings.NewReader("img"), wantURL: "/uploads/banner-1.jpeg"},
		{name: "blank title", title: "   ", image: strings.NewReader("img"), wantKind: apperr.ErrValidation},
		{name: "title too long", title: strings.Repeat("x", maxTitleLen+1), image: strings.NewReader("img"), wantKind: apperr.ErrValidation},
		{name: "missing image", title: "Sale", wantKind: apperr.ErrValidation},
		{name: "not an image", title: "Sale", image: strings.NewReader("bad"), wantKind: apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()

			b, err := svc.Create(context.Background(), tt.title, tt.image)
			if tt.wantKind != nil {
				require.ErrorIs(t, err, tt.wantKind)
				assert.Empty(t, repo.banners)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Summer sale", b.Title)
			assert.Equal(t, tt.wantURL, b.ImageURL)
			assert.Contains(t, repo.banners, b.ID)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	b, err := svc.Create(ctx, "Sale", strings.NewReader("img"))
	require.NoError(t, err)

	t.Run("title only keeps the image", func(t *testing.T) {
		got, err := svc.Update(ctx, b.ID, ptr("Winter sale"), nil)
		require.NoError(t, err)
		assert.Equal(t, "Winter sale", got.Title)
		assert.Equal(t, b.ImageURL, got.ImageURL)
		assert.True(t, got.UpdatedAt.After(b.UpdatedAt))
	})

	t.Run("new image", func(t *testing.T) {
		got, err := svc.Update(ctx, b.ID, nil, strings.NewReader("img"))
		require.NoError(t, err)
		assert.Equal(t, "/uploads/banner-2.jpeg", got.ImageURL)
		assert.Equal(t, "Winter sale", repo.banners[b.ID].Title)
	})

	t.Run("invalid title leaves the banner alone", func(t *testing.T) {
		_, err := svc.Update(ctx, b.ID, ptr(""), nil)
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, "Winter sale", repo.banners[b.ID].Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", ptr("x"), nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	first, err := svc.Create(ctx, "First", strings.NewReader("img"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, "Second", strings.NewReader("img"))
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Get(ctx, first.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, first.ID), ErrNotFound)
}
