package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/banner"
)

const (
	bannerColumns = `id, title, image_url, created_at, updated_at`

	createBannerSQL = `INSERT INTO banners (` + bannerColumns + `) VALUES ($1, $2, $3, $4, $5)`
	updateBannerSQL = `UPDATE banners SET title = $2, image_url = $3, updated_at = $4 WHERE id = $1`
	getBannerSQL    = `SELECT ` + bannerColumns + ` FROM banners WHERE id = $1`
	listBannersSQL  = `SELECT ` + bannerColumns + ` FROM banners ORDER BY created_at DESC, id`
	deleteBannerSQL = `DELETE FROM banners WHERE id = $1`
)

var _ banner.Repository = (*BannerRepository)(nil)

// BannerRepository implements banner.Repository backed by PostgreSQL.
type BannerRepository struct {
	pool *pgxpool.Pool
}

// NewBannerRepository returns a BannerRepository that uses the given pool.
func NewBannerRepository(pool *pgxpool.Pool) *BannerRepository {
	return &BannerRepository{pool: pool}
}

func (r *BannerRepository) Create(ctx context.Context, b *banner.Banner) error {
	if _, err := r.pool.Exec(ctx, createBannerSQL, b.ID, b.Title, b.ImageURL, b.CreatedAt, b.UpdatedAt); err != nil {
		return fmt.Errorf("creating banner %q: %w", b.Title, err)
	}
	return nil
}

func (r *BannerRepository) Update(ctx context.Context, b *banner.Banner) error {
	tag, err := r.pool.Exec(ctx, updateBannerSQL, b.ID, b.Title, b.ImageURL, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating banner %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return banner.ErrNotFound
	}
	return nil
}

func (r *BannerRepository) Get(ctx context.Context, id string) (*banner.Banner, error) {
	rows, err := r.pool.Query(ctx, getBannerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting banner %q: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBanner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, banner.ErrNotFound
		}
		return nil, fmt.Errorf("getting banner %q: %w", id, err)
	}
	return &b, nil
}

func (r *BannerRepository) List(ctx context.Context) ([]banner.Banner, error) {
	rows, err := r.pool.Query(ctx, listBannersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	return pgx.CollectRows(rows, scanBanner)
}

func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteBannerSQL, id)
	if err != nil {
		return fmt.Errorf("deleting banner %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return banner.ErrNotFound
	}
	return nil
}

func scanBanner(row pgx.CollectableRow) (banner.Banner, error) {
	var b banner.Banner
	err := row.Scan(&b.ID, &b.Title, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
