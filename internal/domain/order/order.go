package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/cart"
)

var (
	// ErrNotFound is returned when an order does not exist or is not
	// visible to the caller.
	ErrNotFound = apperr.NotFound("order not found")
	// ErrDelivered is returned when paying for an order after delivery.
	ErrDelivered = apperr.Validation("order was already delivered")
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// ShippingAddress is where the order is delivered.
type ShippingAddress struct {
	Details    string
	Phone      string
	City       string
	PostalCode string
}

// Item is an immutable snapshot of a cart line.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is created from a cart at checkout. Only the payment and delivery
// status change afterwards.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	CouponCode      string
	Subtotal        decimal.Decimal // cart total before discount
	Discount        decimal.Decimal
	TaxPrice        decimal.Decimal
	ShippingPrice   decimal.Decimal
	TotalPrice      decimal.Decimal
	IsPaid          bool
	PaidAt          *time.Time
	IsDelivered     bool
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MarkPaid moves the order to paid at at. Paying a paid order keeps the
// original timestamp. A delivered order is never mutated again.
func (o *Order) MarkPaid(at time.Time) error {
	if o.IsPaid {
		return nil
	}
	if o.IsDelivered {
		return ErrDelivered
	}
	o.IsPaid, o.PaidAt, o.UpdatedAt = true, &at, at
	return nil
}

// MarkDelivered moves the order to delivered at at. Delivering a delivered
// order keeps the original timestamp.
func (o *Order) MarkDelivered(at time.Time) error {
	if o.IsDelivered {
		return nil
	}
	o.IsDelivered, o.DeliveredAt, o.UpdatedAt = true, &at, at
	return nil
}

// ListParams selects a page of orders. An empty UserID lists every order.
type ListParams struct {
	UserID string
	Page   int
	Limit  int
}

// Page is one page of orders, newest first.
type Page struct {
	Items []Order
	Total int
	Page  int
	Limit int
}

// PlaceFunc turns a locked cart into the order to store.
type PlaceFunc func(c *cart.Cart) (*Order, error)

// Repository persists orders.
type Repository interface {
	// Checkout locks cart cartID of userID and calls place with it. When
	// place succeeds the order is stored, product stock is decremented and
	// the cart is deleted, all in one transaction. A missing cart is
	// cart.ErrNotFound.
	Checkout(ctx context.Context, userID, cartID string, place PlaceFunc) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, p ListParams) ([]Order, int, error)
	// Transition locks order id, applies fn and stores the status fields.
	Transition(ctx context.Context, id string, fn func(*Order) error) (*Order, error)
	Delete(ctx context.Context, id string) error
}
