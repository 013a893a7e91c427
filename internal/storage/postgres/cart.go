package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/coupon"
)

const (
	cartColumns = `id, user_id, coupon_code, coupon_type, coupon_value, coupon_min_items,
		total_before_discount, total_after_discount, version, updated_at`

	getCartSQL           = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1`
	lockCartByUserSQL    = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1 FOR UPDATE`
	lockCartByIDOwnerSQL = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1 AND user_id = $2 FOR UPDATE`

	ensureCartSQL = `INSERT INTO carts (id, user_id, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`

	saveCartSQL = `UPDATE carts
		SET coupon_code = $2, coupon_type = $3, coupon_value = $4, coupon_min_items = $5,
			total_before_discount = $6, total_after_discount = $7, version = $8, updated_at = $9
		WHERE id = $1`

	listCartItemsSQL  = `SELECT product_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 ORDER BY position`
	clearCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`
	deleteCartSQL     = `DELETE FROM carts WHERE id = $1`
)

var cartItemColumns = []string{"cart_id", "product_id", "position", "quantity", "unit_price"}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. A cart
// row is locked with SELECT ... FOR UPDATE for the duration of a mutation,
// so concurrent requests of the same user are applied one at a time.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the cart of userID without locking it.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	c, err := loadCart(ctx, r.pool, getCartSQL, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart of %q: %w", userID, err)
	}
	return c, nil
}

// Update locks the cart of userID, creating it first when missing, and
// stores the result of fn. Nothing is written when fn fails, including the
// lazily created row.
func (r *CartRepository) Update(ctx context.Context, userID string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	var out *cart.Cart
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureCartSQL, uuid.New().String(), userID, time.Now()); err != nil {
			return fmt.Errorf("creating cart: %w", err)
		}

		c, err := loadCart(ctx, tx, lockCartByUserSQL, userID)
		if err != nil {
			return fmt.Errorf("locking cart: %w", err)
		}
		if err := fn(c); err != nil {
			return err
		}
		c.Version++

		if err := saveCart(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// loadCart reads the cart header selected by query and its items.
func loadCart(ctx context.Context, q querier, query string, args ...any) (*cart.Cart, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice)
		return it, err
	})
	if err != nil {
		return nil, err
	}
	c.Recalculate()
	return &c, nil
}

// saveCart writes the header and replaces the item rows of c.
func saveCart(ctx context.Context, tx pgx.Tx, c *cart.Cart) error {
	var (
		code, kind *string
		value      decimal.NullDecimal
		minItems   *int
	)
	if c.Coupon != nil {
		dt := string(c.Coupon.DiscountType)
		code, kind = &c.Coupon.Code, &dt
		value = decimal.NewNullDecimal(c.Coupon.Value)
		minItems = &c.Coupon.MinItems
	}

	_, err := tx.Exec(ctx, saveCartSQL,
		c.ID, code, kind, value, minItems,
		c.TotalBeforeDiscount, c.TotalAfterDiscount, c.Version, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving cart %q: %w", c.ID, err)
	}

	if _, err := tx.Exec(ctx, clearCartItemsSQL, c.ID); err != nil {
		return fmt.Errorf("clearing cart items: %w", err)
	}
	if len(c.Items) == 0 {
		return nil
	}

	rows := make([][]any, len(c.Items))
	for i, it := range c.Items {
		rows[i] = []any{c.ID, it.ProductID, i, it.Quantity, it.UnitPrice}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"cart_items"}, cartItemColumns, pgx.CopyFromRows(rows)); err != nil {
		if isForeignKeyViolation(err) {
			return errUnknownProduct
		}
		return fmt.Errorf("writing cart items: %w", err)
	}
	return nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c          cart.Cart
		code, kind *string
		value      decimal.NullDecimal
		minItems   *int
	)
	err := row.Scan(
		&c.ID, &c.UserID, &code, &kind, &value, &minItems,
		&c.TotalBeforeDiscount, &c.TotalAfterDiscount, &c.Version, &c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}
	if code != nil && kind != nil {
		rule := coupon.Rule{Code: *code, DiscountType: coupon.DiscountType(*kind), Value: value.Decimal}
		if minItems != nil {
			rule.MinItems = *minItems
		}
		c.Coupon = &rule
	}
	return c, nil
}
