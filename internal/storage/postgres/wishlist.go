package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/wishlist"
)

const (
	listWishlistSQL = `SELECT p.id, p.title, p.slug, p.description, p.price, p.quantity, p.sold, p.image_cover,
			p.images, p.category_id, p.subcategory_ids, p.ratings_average, p.ratings_quantity,
			p.created_at, p.updated_at
		FROM wishlist_items w JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1 ORDER BY w.created_at, p.id`

	addWishlistSQL    = `INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	removeWishlistSQL = `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`
	clearWishlistSQL  = `DELETE FROM wishlist_items WHERE user_id = $1`
)

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

func (r *WishlistRepository) List(ctx context.Context, userID string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listWishlistSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) error {
	if _, err := r.pool.Exec(ctx, addWishlistSQL, userID, productID); err != nil {
		if isForeignKeyViolation(err) {
			return errUnknownProduct
		}
		return fmt.Errorf("adding %q to wishlist: %w", productID, err)
	}
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	if _, err := r.pool.Exec(ctx, removeWishlistSQL, userID, productID); err != nil {
		return fmt.Errorf("removing %q from wishlist: %w", productID, err)
	}
	return nil
}

func (r *WishlistRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, clearWishlistSQL, userID); err != nil {
		return fmt.Errorf("clearing wishlist of %q: %w", userID, err)
	}
	return nil
}
