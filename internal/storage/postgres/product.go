package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/product"
)

const (
	productColumns = `id, title, slug, description, price, quantity, sold, image_cover, images,
		category_id, subcategory_ids, ratings_average, ratings_quantity, created_at, updated_at`

	getProductByIDSQL   = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	updateProductSQL = `UPDATE products
		SET title = $2, slug = $3, description = $4, price = $5, quantity = $6,
			image_cover = $7, images = $8, category_id = $9, subcategory_ids = $10, updated_at = $11
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var productOrder = map[product.Sort]string{
	product.SortNewest:    "created_at DESC, id",
	product.SortPriceAsc:  "price ASC, id",
	product.SortPriceDesc: "price DESC, id",
	product.SortTopSold:   "sold DESC, id",
	product.SortTopRated:  "ratings_average DESC, ratings_quantity DESC, id",
}

var (
	errUnknownCategory = apperr.Validation("category or subcategory does not exist")
	errUnknownProduct  = apperr.Validation("product does not exist")
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of products matching p and the number of matches
// across all pages.
func (r *ProductRepository) List(ctx context.Context, p product.ListParams) ([]product.Product, int, error) {
	query, args := buildProductQuery(p)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}

	var total int
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		return scanProductWith(row, &total)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

func buildProductQuery(p product.ListParams) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if p.Keyword != "" {
		n := arg("%" + escapeLike(p.Keyword) + "%")
		where = append(where, "(title ILIKE "+n+" OR description ILIKE "+n+")")
	}
	if p.CategoryID != "" {
		where = append(where, "category_id = "+arg(p.CategoryID))
	}
	if p.SubcategoryID != "" {
		where = append(where, arg(p.SubcategoryID)+" = ANY(subcategory_ids)")
	}
	if p.MinPrice != nil {
		where = append(where, "price >= "+arg(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		where = append(where, "price <= "+arg(*p.MaxPrice))
	}

	var b strings.Builder
	b.WriteString("SELECT " + productColumns + ", COUNT(*) OVER () FROM products")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	order, ok := productOrder[p.Sort]
	if !ok {
		order = productOrder[product.SortNewest]
	}
	b.WriteString(" ORDER BY " + order)
	b.WriteString(" LIMIT " + arg(p.Limit) + " OFFSET " + arg(offset(p.Page, p.Limit)))

	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create stores a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Title, p.Slug, p.Description, p.Price, p.Quantity, p.Sold, p.ImageCover, nonNil(p.Images),
		p.CategoryID, nonNil(p.SubcategoryIDs), p.RatingsAverage, p.RatingsQuantity, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errUnknownCategory
		}
		return fmt.Errorf("creating product %q: %w", p.Title, err)
	}
	return nil
}

// Update overwrites the editable product fields. Sales and rating
// aggregates are maintained by checkout and reviews.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.Slug, p.Description, p.Price, p.Quantity, p.ImageCover, nonNil(p.Images),
		p.CategoryID, nonNil(p.SubcategoryIDs), p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errUnknownCategory
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product. Cart lines, reviews and wishlist entries that
// reference it go with it.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	return scanProductWith(row)
}

func scanProductWith(row pgx.CollectableRow, extra ...any) (product.Product, error) {
	var p product.Product
	dest := append([]any{
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.Quantity, &p.Sold, &p.ImageCover, &p.Images,
		&p.CategoryID, &p.SubcategoryIDs, &p.RatingsAverage, &p.RatingsQuantity, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return p, err
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
