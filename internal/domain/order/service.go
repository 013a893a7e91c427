package order

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/payment"
)

var hundred = decimal.NewFromInt(100)

// CheckoutRequest holds the order fields supplied by the customer.
type CheckoutRequest struct {
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
}

func (r *CheckoutRequest) normalize() error {
	a := &r.ShippingAddress
	a.Details = strings.TrimSpace(a.Details)
	a.Phone = strings.TrimSpace(a.Phone)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	if a.Details == "" || a.Phone == "" || a.City == "" {
		return apperr.Validation("shippingAddress requires details, phone and city")
	}
	switch r.PaymentMethod {
	case "":
		r.PaymentMethod = PaymentCash
	case PaymentCash, PaymentCard:
	default:
		return apperr.Validation("paymentMethod must be cash or card")
	}
	return nil
}

// Pricing holds flat charges added to every order.
type Pricing struct {
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	Currency      string
}

// CartReader loads the caller's cart.
type CartReader interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
}

// Service implements checkout and order status transitions.
type Service struct {
	orders   Repository
	carts    CartReader
	payments payment.Provider
	pricing  Pricing
	now      func() time.Time
	newID    func() string

	placed  metric.Int64Counter
	revenue metric.Float64Counter
}

// NewService creates an order Service.
func NewService(
	orders Repository,
	carts CartReader,
	payments payment.Provider,
	pricing Pricing,
	meter metric.Meter,
) (*Service, error) {
	placed, err := meter.Int64Counter("shop.orders.placed",
		metric.WithDescription("Orders created at checkout"))
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	revenue, err := meter.Float64Counter("shop.orders.revenue",
		metric.WithDescription("Sum of order totals"))
	if err != nil {
		return nil, errors.Wrap(err, "revenue counter")
	}
	return &Service{
		orders:   orders,
		carts:    carts,
		payments: payments,
		pricing:  pricing,
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
		placed:   placed,
		revenue:  revenue,
	}, nil
}

// Checkout converts cart cartID of userID into an order and deletes the
// cart. Both happen or neither does.
func (s *Service) Checkout(ctx context.Context, userID, cartID string, req CheckoutRequest) (*Order, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	o, err := s.orders.Checkout(ctx, userID, cartID, func(c *cart.Cart) (*Order, error) {
		// Charge what the items add up to, never the stored header.
		c.Recalculate()
		if c.IsEmpty() {
			return nil, cart.ErrEmptyCart
		}
		return s.build(userID, c, req), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "checkout")
	}

	attrs := metric.WithAttributes(attribute.String("payment_method", string(o.PaymentMethod)))
	s.placed.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, o.TotalPrice.InexactFloat64(), attrs)
	return o, nil
}

func (s *Service) build(userID string, c *cart.Cart, req CheckoutRequest) *Order {
	items := make([]Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}

	payable := c.Payable()
	now := s.now()
	return &Order{
		ID:              s.newID(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      c.CouponCode(),
		Subtotal:        c.TotalBeforeDiscount,
		Discount:        c.TotalBeforeDiscount.Sub(payable),
		TaxPrice:        s.pricing.TaxPrice,
		ShippingPrice:   s.pricing.ShippingPrice,
		TotalPrice:      payable.Add(s.pricing.TaxPrice).Add(s.pricing.ShippingPrice).Round(2),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CreateCheckoutSession starts a hosted card payment for the caller's cart.
func (s *Service) CreateCheckoutSession(ctx context.Context, id auth.Identity, addr ShippingAddress) (*payment.Session, error) {
	c, err := s.carts.Get(ctx, id.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}

	total := c.Payable().Add(s.pricing.TaxPrice).Add(s.pricing.ShippingPrice)
	amount := total.Mul(hundred).Round(0).IntPart()

	sess, err := s.payments.CreateCheckoutSession(ctx, payment.SessionRequest{
		Reference:      c.ID,
		IdempotencyKey: c.ID + ":" + strconv.Itoa(c.Version),
		CustomerEmail:  id.Email,
		Currency:       s.pricing.Currency,
		Items:          []payment.LineItem{{Name: "Order for " + id.Email, Amount: amount, Quantity: 1}},
		Metadata: map[string]string{
			"user_id":     id.UserID,
			"address":     addr.Details,
			"city":        addr.City,
			"phone":       addr.Phone,
			"postal_code": addr.PostalCode,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	return sess, nil
}

// Get returns order id. Non-admin callers only see their own orders.
func (s *Service) Get(ctx context.Context, viewer auth.Identity, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && o.UserID != viewer.UserID {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns a page of orders, scoped to the caller unless admin.
func (s *Service) List(ctx context.Context, viewer auth.Identity, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	p := ListParams{Page: page, Limit: limit}
	if !viewer.IsAdmin() {
		p.UserID = viewer.UserID
	}
	items, total, err := s.orders.List(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return &Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// MarkPaid sets order id paid. Repeated calls return the first paidAt.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Order, error) {
	now := s.now()
	return s.orders.Transition(ctx, id, func(o *Order) error {
		return o.MarkPaid(now)
	})
}

// MarkDelivered sets order id delivered. Repeated calls return the first
// deliveredAt.
func (s *Service) MarkDelivered(ctx context.Context, id string) (*Order, error) {
	now := s.now()
	return s.orders.Transition(ctx, id, func(o *Order) error {
		return o.MarkDelivered(now)
	})
}

// Delete removes order id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}
