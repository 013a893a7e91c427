// Package cart implements the per-user shopping cart aggregate.
//
// Every mutation recomputes the totals from the current items; the stored
// totals are never adjusted incrementally.
package cart

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/coupon"
)

var (
	// ErrNotFound is returned when a cart does not exist for the caller.
	ErrNotFound = apperr.NotFound("cart not found")
	// ErrItemNotFound is returned when a product is not in the cart.
	ErrItemNotFound = apperr.NotFound("product is not in the cart")
	// ErrInvalidQuantity is returned when adding fewer than one unit.
	ErrInvalidQuantity = apperr.Validation("quantity must be at least 1")
	// ErrEmptyCart is returned when checking out a cart with no items.
	ErrEmptyCart = apperr.Validation("cart is empty")
	// ErrQuantityTooLarge is returned when a line would exceed MaxQuantity.
	ErrQuantityTooLarge = apperr.Validation("quantity must not exceed " + strconv.Itoa(MaxQuantity))
	// ErrTotalTooLarge is returned when the cart total would reach MaxTotal.
	ErrTotalTooLarge = apperr.Validation("cart total must be below " + MaxTotal.String())
)

// MaxQuantity bounds the units of one product in a cart.
const MaxQuantity = 10_000

// MaxTotal bounds the cart total, leaving room for tax and shipping within
// the stored NUMERIC(12,2) amounts.
var MaxTotal = decimal.New(1, 9)

// Item is a cart line. UnitPrice is the catalog price when the product was
// last added.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Cart is a user's selection awaiting checkout.
type Cart struct {
	ID     string
	UserID string
	Items  []Item
	// Coupon is the rule of the applied coupon, nil when none.
	Coupon              *coupon.Rule
	TotalBeforeDiscount decimal.Decimal
	// TotalAfterDiscount is unset unless a coupon is applied.
	TotalAfterDiscount decimal.NullDecimal
	Version            int
	UpdatedAt          time.Time
}

// New returns an empty cart owned by userID.
func New(userID string) *Cart {
	return &Cart{UserID: userID}
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CouponCode returns the applied coupon code or "".
func (c *Cart) CouponCode() string {
	if c.Coupon == nil {
		return ""
	}
	return c.Coupon.Code
}

// Payable is the amount due: the discounted total when a coupon is applied,
// the plain total otherwise.
func (c *Cart) Payable() decimal.Decimal {
	if c.TotalAfterDiscount.Valid {
		return c.TotalAfterDiscount.Decimal
	}
	return c.TotalBeforeDiscount
}

// NumItems returns the number of distinct products in the cart.
func (c *Cart) NumItems() int {
	return len(c.Items)
}

func (c *Cart) find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem adds quantity units of productID priced at unitPrice. An existing
// line is incremented and re-priced.
func (c *Cart) AddItem(productID string, quantity int, unitPrice decimal.Decimal) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}
	i := c.find(productID)
	if i >= 0 {
		quantity += c.Items[i].Quantity
		if quantity > MaxQuantity {
			return ErrQuantityTooLarge
		}
	}
	if err := c.checkTotal(productID, quantity, unitPrice); err != nil {
		return err
	}
	if i >= 0 {
		c.Items[i].Quantity = quantity
		c.Items[i].UnitPrice = unitPrice
	} else {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice})
	}
	c.Recalculate()
	return nil
}

// SetQuantity sets the quantity of productID. A quantity of zero or less
// removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.find(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	switch {
	case quantity <= 0:
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	case quantity > MaxQuantity:
		return ErrQuantityTooLarge
	default:
		if err := c.checkTotal(productID, quantity, c.Items[i].UnitPrice); err != nil {
			return err
		}
		c.Items[i].Quantity = quantity
	}
	c.Recalculate()
	return nil
}

// RemoveItem deletes the line for productID.
func (c *Cart) RemoveItem(productID string) error {
	i := c.find(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.Recalculate()
	return nil
}

// Clear removes every item and the applied coupon.
func (c *Cart) Clear() {
	c.Items = nil
	c.Coupon = nil
	c.Recalculate()
}

// ApplyCoupon attaches rule and recomputes the discounted total. The cart is
// unchanged when the rule does not apply to the current items.
func (c *Cart) ApplyCoupon(rule coupon.Rule) error {
	if _, err := coupon.Apply(rule, c.couponItems()); err != nil {
		return err
	}
	c.Coupon = &rule
	c.Recalculate()
	return nil
}

// checkTotal fails when setting the line of productID to quantity units at
// unitPrice would push the total to MaxTotal or beyond.
func (c *Cart) checkTotal(productID string, quantity int, unitPrice decimal.Decimal) error {
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	for _, it := range c.Items {
		if it.ProductID != productID {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	if total.GreaterThanOrEqual(MaxTotal) {
		return ErrTotalTooLarge
	}
	return nil
}

func (c *Cart) couponItems() []coupon.Item {
	items := make([]coupon.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = coupon.Item{ProductID: it.ProductID, Price: it.UnitPrice, Quantity: it.Quantity}
	}
	return items
}

// Recalculate recomputes both totals from the items. A coupon whose rule no
// longer holds for the remaining items is dropped. Stores call it after
// loading, since item rows can disappear underneath a stored header.
func (c *Cart) Recalculate() {
	items := c.couponItems()
	c.TotalBeforeDiscount = coupon.Subtotal(items).Round(2)
	c.TotalAfterDiscount = decimal.NullDecimal{}

	if c.Coupon == nil {
		return
	}
	d, err := coupon.Apply(*c.Coupon, items)
	if err != nil {
		c.Coupon = nil
		return
	}
	c.TotalAfterDiscount = decimal.NewNullDecimal(c.TotalBeforeDiscount.Sub(d.Amount))
}

// Repository persists carts.
type Repository interface {
	// Get returns the cart of userID or ErrNotFound.
	Get(ctx context.Context, userID string) (*Cart, error)
	// Update runs fn on the cart of userID while holding an exclusive
	// per-owner lock, creating the cart when missing. Changes are persisted
	// only when fn returns nil.
	Update(ctx context.Context, userID string, fn func(*Cart) error) (*Cart, error)
}
