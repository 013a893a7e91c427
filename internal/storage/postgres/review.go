package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/review"
)

const (
	reviewColumns = `id, user_id, product_id, title, comment, rating, created_at, updated_at`

	createReviewSQL = `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	updateReviewSQL = `UPDATE reviews SET title = $2, comment = $3, rating = $4, updated_at = $5 WHERE id = $1`
	getReviewSQL    = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`

	listReviewsSQL = `SELECT ` + reviewColumns + `, COUNT(*) OVER ()
		FROM reviews WHERE ($1 = '' OR product_id = $1)
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	refreshRatingsSQL = `UPDATE products SET
			ratings_average = COALESCE((SELECT ROUND(AVG(rating), 2)::float8 FROM reviews WHERE product_id = $1), 0),
			ratings_quantity = (SELECT COUNT(*) FROM reviews WHERE product_id = $1)
		WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	return r.write(ctx, rv.ProductID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createReviewSQL,
			rv.ID, rv.UserID, rv.ProductID, rv.Title, rv.Comment, rv.Rating, rv.CreatedAt, rv.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return review.ErrAlreadyReviewed
			}
			if isForeignKeyViolation(err) {
				return errUnknownProduct
			}
			return fmt.Errorf("creating review: %w", err)
		}
		return nil
	})
}

func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	return r.write(ctx, rv.ProductID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateReviewSQL, rv.ID, rv.Title, rv.Comment, rv.Rating, rv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("updating review %q: %w", rv.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return review.ErrNotFound
		}
		return nil
	})
}

func (r *ReviewRepository) Delete(ctx context.Context, rv *review.Review) error {
	return r.write(ctx, rv.ProductID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteReviewSQL, rv.ID)
		if err != nil {
			return fmt.Errorf("deleting review %q: %w", rv.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return review.ErrNotFound
		}
		return nil
	})
}

// write runs fn and recomputes the rating aggregate of productID in the
// same transaction.
func (r *ReviewRepository) write(ctx context.Context, productID string, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, refreshRatingsSQL, productID); err != nil {
			return fmt.Errorf("refreshing ratings of %q: %w", productID, err)
		}
		return nil
	})
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, getReviewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	return &rv, nil
}

func (r *ReviewRepository) List(ctx context.Context, productID string, page, limit int) ([]review.Review, int, error) {
	rows, err := r.pool.Query(ctx, listReviewsSQL, productID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("listing reviews: %w", err)
	}

	var total int
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.Review, error) {
		return scanReviewWith(row, &total)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, total, nil
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	return scanReviewWith(row)
}

func scanReviewWith(row pgx.CollectableRow, extra ...any) (review.Review, error) {
	var rv review.Review
	dest := append([]any{
		&rv.ID, &rv.UserID, &rv.ProductID, &rv.Title, &rv.Comment, &rv.Rating, &rv.CreatedAt, &rv.UpdatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return rv, err
}
