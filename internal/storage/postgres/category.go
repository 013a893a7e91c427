package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/category"
)

const (
	categoryColumns    = `id, name, slug, image, created_at, updated_at`
	subcategoryColumns = `id, name, slug, category_id, created_at, updated_at`

	createCategorySQL = `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	updateCategorySQL = `UPDATE categories SET name = $2, slug = $3, image = $4, updated_at = $5 WHERE id = $1`
	getCategorySQL    = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	listCategoriesSQL = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`

	createSubcategorySQL = `INSERT INTO subcategories (` + subcategoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	updateSubcategorySQL = `UPDATE subcategories SET name = $2, slug = $3, category_id = $4, updated_at = $5
		WHERE id = $1`
	getSubcategorySQL         = `SELECT ` + subcategoryColumns + ` FROM subcategories WHERE id = $1`
	listSubcategoriesSQL      = `SELECT ` + subcategoryColumns + ` FROM subcategories ORDER BY name`
	listSubcategoriesByCatSQL = `SELECT ` + subcategoryColumns + ` FROM subcategories
		WHERE category_id = $1 ORDER BY name`
	deleteSubcategorySQL = `DELETE FROM subcategories WHERE id = $1`
)

var errCategoryInUse = apperr.Conflict("category still has products")

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, c *category.Category) error {
	_, err := r.pool.Exec(ctx, createCategorySQL, c.ID, c.Name, c.Slug, c.Image, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, c *category.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Slug, c.Image, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// DeleteCategory removes a category and its subcategories. Categories that
// still own products cannot be deleted.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errCategoryInUse
		}
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) CreateSubcategory(ctx context.Context, s *category.Subcategory) error {
	_, err := r.pool.Exec(ctx, createSubcategorySQL, s.ID, s.Name, s.Slug, s.CategoryID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("creating subcategory %q: %w", s.Name, err)
	}
	return nil
}

func (r *CategoryRepository) UpdateSubcategory(ctx context.Context, s *category.Subcategory) error {
	tag, err := r.pool.Exec(ctx, updateSubcategorySQL, s.ID, s.Name, s.Slug, s.CategoryID, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("updating subcategory %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrSubcategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) GetSubcategory(ctx context.Context, id string) (*category.Subcategory, error) {
	rows, err := r.pool.Query(ctx, getSubcategorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting subcategory %q: %w", id, err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSubcategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("getting subcategory %q: %w", id, err)
	}
	return &s, nil
}

func (r *CategoryRepository) ListSubcategories(ctx context.Context, categoryID string) ([]category.Subcategory, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID == "" {
		rows, err = r.pool.Query(ctx, listSubcategoriesSQL)
	} else {
		rows, err = r.pool.Query(ctx, listSubcategoriesByCatSQL, categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}
	return pgx.CollectRows(rows, scanSubcategory)
}

func (r *CategoryRepository) DeleteSubcategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteSubcategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting subcategory %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrSubcategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanSubcategory(row pgx.CollectableRow) (category.Subcategory, error) {
	var s category.Subcategory
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.CategoryID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
