package shopclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
)

// Register creates a customer account and returns its session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Login exchanges credentials for a session. Use c.WithToken(s.Token) for
// authenticated calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context, q ProductQuery) (*Page[Product], error) {
	v := pageQuery(q.Page, q.Limit)
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("sort", q.Sort)
	set("keyword", q.Keyword)
	set("category", q.Category)
	set("subcategory", q.Subcategory)
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}

	var p Page[Product]
	if err := c.do(ctx, http.MethodGet, "/products", v, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Product returns product id.
func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) cart(ctx context.Context, method, path string, in any) (*Cart, error) {
	var out Cart
	if err := c.do(ctx, method, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cart returns the caller's cart, empty when none exists yet.
func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	return c.cart(ctx, http.MethodGet, "/cart", nil)
}

// AddToCart adds quantity units of productID.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}
	return c.cart(ctx, http.MethodPost, "/cart", map[string]any{"productId": productID, "quantity": quantity})
}

// SetCartQuantity sets the quantity of productID; zero removes the line.
func (c *Client) SetCartQuantity(ctx context.Context, productID string, quantity int) (*Cart, error) {
	return c.cart(ctx, http.MethodPatch, "/cart/"+url.PathEscape(productID), map[string]int{"quantity": quantity})
}

// RemoveFromCart removes the line of productID.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) (*Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productID), nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (*Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/cart", nil)
}

// ApplyCoupon applies code to the cart.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*Cart, error) {
	var out struct {
		Message string `json:"message"`
		Cart    Cart   `json:"cart"`
	}
	if err := c.do(ctx, http.MethodPatch, "/cart/apply-coupon", nil, map[string]string{"code": code}, &out); err != nil {
		return nil, err
	}
	return &out.Cart, nil
}

func (c *Client) order(ctx context.Context, method, path string, in any) (*Order, error) {
	var o Order
	if err := c.do(ctx, method, path, nil, in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Checkout places an order from cart cartID and empties it.
func (c *Client) Checkout(ctx context.Context, cartID string, req CheckoutRequest) (*Order, error) {
	return c.order(ctx, http.MethodPost, "/orders/"+url.PathEscape(cartID), req)
}

// CreateCheckoutSession starts a hosted card payment for the cart.
func (c *Client) CreateCheckoutSession(ctx context.Context, addr Address) (*CheckoutSession, error) {
	var s CheckoutSession
	in := map[string]Address{"shippingAddress": addr}
	if err := c.do(ctx, http.MethodPost, "/orders/checkout-session", nil, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Orders lists the caller's orders, or all orders for admins.
func (c *Client) Orders(ctx context.Context, page, limit int) (*Page[Order], error) {
	var p Page[Order]
	if err := c.do(ctx, http.MethodGet, "/orders", pageQuery(page, limit), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Order returns order id.
func (c *Client) Order(ctx context.Context, id string) (*Order, error) {
	return c.order(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil)
}

// MarkPaid marks order id as paid. Repeated calls keep the first paidAt.
func (c *Client) MarkPaid(ctx context.Context, id string) (*Order, error) {
	return c.order(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/is-paid", nil)
}

// MarkDelivered marks order id as delivered.
func (c *Client) MarkDelivered(ctx context.Context, id string) (*Order, error) {
	return c.order(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/is-delivered", nil)
}
