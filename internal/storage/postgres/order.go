package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
)

const (
	orderColumns = `id, user_id, items, shipping_details, shipping_phone, shipping_city, shipping_postal_code,
		payment_method, coupon_code, subtotal, discount, tax_price, shipping_price, total_price,
		is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	getOrderSQL  = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	lockOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	listOrdersSQL = `SELECT ` + orderColumns + `, COUNT(*) OVER ()
		FROM orders WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	updateOrderStatusSQL = `UPDATE orders
		SET is_paid = $2, paid_at = $3, is_delivered = $4, delivered_at = $5, updated_at = $6
		WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	reserveStockSQL = `UPDATE products SET quantity = quantity - $2, sold = sold + $2
		WHERE id = $1 AND quantity >= $2`
)

// orderItemJSON is the JSONB representation of an order line.
type orderItemJSON struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Checkout converts the cart into an order in a single transaction. Stock
// rows are updated in product id order so concurrent checkouts sharing
// products cannot deadlock.
func (r *OrderRepository) Checkout(ctx context.Context, userID, cartID string, place order.PlaceFunc) (*order.Order, error) {
	var out *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := loadCart(ctx, tx, lockCartByIDOwnerSQL, cartID, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrNotFound
			}
			return fmt.Errorf("locking cart %q: %w", cartID, err)
		}

		o, err := place(c)
		if err != nil {
			return err
		}

		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}

		items := slices.Clone(o.Items)
		slices.SortFunc(items, func(a, b order.Item) int { return strings.Compare(a.ProductID, b.ProductID) })
		for _, it := range items {
			tag, err := tx.Exec(ctx, reserveStockSQL, it.ProductID, it.Quantity)
			if err != nil {
				return fmt.Errorf("reserving stock of %q: %w", it.ProductID, err)
			}
			if tag.RowsAffected() == 0 {
				return product.ErrInsufficientStock
			}
		}

		if _, err := tx.Exec(ctx, deleteCartSQL, c.ID); err != nil {
			return fmt.Errorf("deleting cart %q: %w", c.ID, err)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	items := make([]orderItemJSON, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemJSON{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	a := o.ShippingAddress
	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, a.Details, a.Phone, a.City, a.PostalCode,
		string(o.PaymentMethod), o.CouponCode, o.Subtotal, o.Discount, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns a page of orders, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, p order.ListParams) ([]order.Order, int, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, p.UserID, p.Limit, offset(p.Page, p.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	var total int
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		return scanOrderWith(row, &total)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// Transition locks the order row, applies fn and persists the status
// fields.
func (r *OrderRepository) Transition(ctx context.Context, id string, fn func(*order.Order) error) (*order.Order, error) {
	var out *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lockOrderSQL, id)
		if err != nil {
			return fmt.Errorf("locking order %q: %w", id, err)
		}
		o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return fmt.Errorf("locking order %q: %w", id, err)
		}

		if err := fn(&o); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, updateOrderStatusSQL, o.ID, o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("updating order %q: %w", id, err)
		}
		out = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an order. Stock is not restored.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	return scanOrderWith(row)
}

func scanOrderWith(row pgx.CollectableRow, extra ...any) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		method    string
	)
	a := &o.ShippingAddress
	dest := append([]any{
		&o.ID, &o.UserID, &itemsJSON, &a.Details, &a.Phone, &a.City, &a.PostalCode,
		&method, &o.CouponCode, &o.Subtotal, &o.Discount, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return o, err
	}
	o.PaymentMethod = order.PaymentMethod(method)

	var items []orderItemJSON
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Items = make([]order.Item, len(items))
	for i, it := range items {
		o.Items[i] = order.Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return o, nil
}
