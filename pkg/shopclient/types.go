package shopclient

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the result of register and login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// RegisterRequest creates a customer account.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Product is a catalog entry.
type Product struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Sold            int             `json:"sold"`
	ImageCover      string          `json:"imageCover,omitempty"`
	Images          []string        `json:"images"`
	CategoryID      string          `json:"categoryId"`
	SubcategoryIDs  []string        `json:"subcategoryIds"`
	RatingsAverage  float64         `json:"ratingsAverage"`
	RatingsQuantity int             `json:"ratingsQuantity"`
}

// ProductQuery filters a product listing. Zero fields are not sent.
type ProductQuery struct {
	Page        int
	Limit       int
	Sort        string
	Keyword     string
	Category    string
	Subcategory string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

// Page is one page of a listing.
type Page[T any] struct {
	Results int `json:"results"`
	Page    int `json:"page"`
	Limit   int `json:"limit"`
	Total   int `json:"total"`
	Data    []T `json:"data"`
}

// Line is a cart or order line.
type Line struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Cart is the caller's cart. TotalPriceAfterDiscount is set only while a
// coupon is applied.
type Cart struct {
	ID                       string           `json:"id,omitempty"`
	UserID                   string           `json:"userId"`
	Items                    []Line           `json:"items"`
	NumItems                 int              `json:"numOfCartItems"`
	CouponCode               string           `json:"couponCode,omitempty"`
	TotalPriceBeforeDiscount decimal.Decimal  `json:"totalPriceBeforeDiscount"`
	TotalPriceAfterDiscount  *decimal.Decimal `json:"totalPriceAfterDiscount,omitempty"`
	Version                  int              `json:"version"`
}

// Payable returns the amount due for the cart before tax and shipping.
func (c *Cart) Payable() decimal.Decimal {
	if c.TotalPriceAfterDiscount != nil {
		return *c.TotalPriceAfterDiscount
	}
	return c.TotalPriceBeforeDiscount
}

// Address is a shipping address.
type Address struct {
	Details    string `json:"details"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
}

// CheckoutRequest turns a cart into an order. PaymentMethod is "cash"
// (default) or "card".
type CheckoutRequest struct {
	ShippingAddress Address `json:"shippingAddress"`
	PaymentMethod   string  `json:"paymentMethod,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []Line          `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	CouponCode      string          `json:"couponCode,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CheckoutSession is a hosted card payment page.
type CheckoutSession struct {
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
