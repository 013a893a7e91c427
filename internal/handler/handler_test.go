package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/banner"
	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/coupon"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/internal/payment"
)

// --- Mock implementations ---

// Embedded interfaces leave methods a test does not stub nil; calling one
// panics, which fails the test loudly.

type mockUsers struct {
	UserService
	tokens      map[string]auth.Identity
	registered  *user.RegisterInput
	registerErr error
	loggedOut   []string
}

func (m *mockUsers) Authenticate(_ context.Context, raw string) (auth.Identity, error) {
	id, ok := m.tokens[raw]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

func (m *mockUsers) Register(_ context.Context, in user.RegisterInput) (*user.User, *auth.Token, error) {
	m.registered = &in
	if m.registerErr != nil {
		return nil, nil, m.registerErr
	}
	u := &user.User{ID: "u-new", Username: in.Username, Email: in.Email, Role: auth.RoleUser}
	return u, &auth.Token{Value: "jwt-new", ID: "t1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockUsers) Logout(_ context.Context, id auth.Identity) error {
	m.loggedOut = append(m.loggedOut, id.UserID)
	return nil
}

type mockAPIKeys struct {
	keys map[string]auth.Identity
	err  error
}

func (m *mockAPIKeys) Verify(_ context.Context, raw string) (auth.Identity, error) {
	if m.err != nil {
		return auth.Identity{}, m.err
	}
	id, ok := m.keys[raw]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidAPIKey
	}
	return id, nil
}

type mockCarts struct {
	CartService
	cart    *cart.Cart
	err     error
	added   []int
	coupons []string
}

func (m *mockCarts) Get(_ context.Context, userID string) (*cart.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return cart.New(userID), nil
	}
	return m.cart, nil
}

func (m *mockCarts) AddItem(_ context.Context, _, _ string, quantity int) (*cart.Cart, error) {
	m.added = append(m.added, quantity)
	return m.cart, m.err
}

func (m *mockCarts) UpdateItemQuantity(_ context.Context, _, _ string, _ int) (*cart.Cart, error) {
	return m.cart, m.err
}

func (m *mockCarts) ApplyCoupon(_ context.Context, _, code string) (*cart.Cart, error) {
	m.coupons = append(m.coupons, code)
	return m.cart, m.err
}

type mockOrders struct {
	OrderService
	order      *order.Order
	err        error
	sessionErr error
	checkout   struct {
		userID, cartID string
		req            order.CheckoutRequest
	}
}

func (m *mockOrders) Checkout(_ context.Context, userID, cartID string, req order.CheckoutRequest) (*order.Order, error) {
	m.checkout.userID, m.checkout.cartID, m.checkout.req = userID, cartID, req
	return m.order, m.err
}

func (m *mockOrders) CreateCheckoutSession(context.Context, auth.Identity, order.ShippingAddress) (*payment.Session, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return &payment.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (m *mockOrders) Get(_ context.Context, viewer auth.Identity, _ string) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !viewer.IsAdmin() && viewer.UserID != m.order.UserID {
		return nil, order.ErrNotFound
	}
	return m.order, nil
}

func (m *mockOrders) MarkPaid(context.Context, string) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now()
	o := *m.order
	o.IsPaid, o.PaidAt = true, &now
	return &o, nil
}

type mockProducts struct {
	ProductService
	params product.ListParams
	items  []product.Product
}

func (m *mockProducts) List(_ context.Context, p product.ListParams) (*product.Page, error) {
	m.params = p
	if p.Sort != "" && !p.Sort.Valid() {
		return nil, apperr.Validation("unsupported sort " + string(p.Sort))
	}
	return &product.Page{Items: m.items, Total: len(m.items), Page: 1, Limit: 20}, nil
}

// mockBanners records the last write it received.
type mockBanners struct {
	BannerService
	banner     *banner.Banner
	gotTitle   *string
	gotImage   []byte
	createErr  error
	notFoundID string
}

func (m *mockBanners) Create(_ context.Context, title string, image io.Reader) (*banner.Banner, error) {
	m.gotTitle = &title
	if image != nil {
		m.gotImage, _ = io.ReadAll(image)
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.banner, nil
}

func (m *mockBanners) Update(_ context.Context, id string, title *string, image io.Reader) (*banner.Banner, error) {
	if id == m.notFoundID {
		return nil, banner.ErrNotFound
	}
	m.gotTitle = title
	m.gotImage = nil
	if image != nil {
		m.gotImage, _ = io.ReadAll(image)
	}
	return m.banner, nil
}

func (m *mockBanners) Get(_ context.Context, id string) (*banner.Banner, error) {
	if id == m.notFoundID {
		return nil, banner.ErrNotFound
	}
	return m.banner, nil
}

func (m *mockBanners) List(context.Context) ([]banner.Banner, error) {
	return []banner.Banner{*m.banner}, nil
}

// --- Helpers ---

var (
	customer = auth.Identity{UserID: "u1", Email: "ann@example.com", Role: auth.RoleUser}
	admin    = auth.Identity{UserID: "a1", Email: "root@example.com", Role: auth.RoleAdmin}
)

func newTestUsers() *mockUsers {
	return &mockUsers{tokens: map[string]auth.Identity{
		"user-token":  customer,
		"admin-token": admin,
	}}
}

func sampleCart() *cart.Cart {
	c := &cart.Cart{
		ID:     "c1",
		UserID: customer.UserID,
		Items: []cart.Item{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ProductID: "p2", Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		},
		TotalBeforeDiscount: decimal.NewFromInt(25),
		Version:             3,
	}
	return c
}

func sampleOrder() *order.Order {
	return &order.Order{
		ID:     "o1",
		UserID: customer.UserID,
		Items:  []order.Item{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
		ShippingAddress: order.ShippingAddress{
			Details: "1 Main St", Phone: "555", City: "Cairo",
		},
		PaymentMethod: order.PaymentCash,
		Subtotal:      decimal.NewFromInt(20),
		Discount:      decimal.Zero,
		TaxPrice:      decimal.Zero,
		ShippingPrice: decimal.Zero,
		TotalPrice:    decimal.NewFromInt(20),
	}
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ptr(s string) *string { return &s }

func doMultipart(t *testing.T, h http.Handler, method, path, token string, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "banner.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

// --- Tests ---

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", cart.ErrEmptyCart, http.StatusBadRequest, "cart is empty"},
		{"wrapped validation", errors.Wrap(coupon.ErrInvalidCoupon, "apply"), http.StatusBadRequest, "invalid coupon code"},
		{"unauthorized", auth.ErrInvalidToken, http.StatusUnauthorized, "invalid or expired token"},
		{"forbidden", auth.ErrForbidden, http.StatusForbidden, "not allowed to perform this action"},
		{"not found", order.ErrNotFound, http.StatusNotFound, "order not found"},
		{"conflict", user.ErrEmailTaken, http.StatusConflict, "email already in use"},
		{"unavailable", payment.ErrNotConfigured, http.StatusServiceUnavailable, "online payments are not configured"},
		{"unclassified", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
		{"bare kind", apperr.ErrNotFound, http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	users := newTestUsers()
	h := New(Config{}, Services{
		Users:   users,
		APIKeys: &mockAPIKeys{keys: map[string]auth.Identity{"sk_ok": {UserID: "apikey:k1", Role: auth.RoleService, Scopes: []auth.Action{auth.ActionMarkPaid}}}},
		Carts:   &mockCarts{},
		Orders:  &mockOrders{order: sampleOrder()},
	}).Routes()

	t.Run("missing credentials", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "authentication required", errorMessage(t, rec))
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/cart", "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/cart", "user-token", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, customer.UserID, decodeBody[cartResponse](t, rec).UserID)
	})

	t.Run("token cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: "user-token"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("role lacks action", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/coupons", "user-token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("api key scopes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/orders/o1/is-paid", nil)
		req.Header.Set(apiKeyHeader, "sk_ok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(apiKeyHeader, "sk_ok")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("api key store down", func(t *testing.T) {
		h := New(Config{}, Services{
			Users:   users,
			APIKeys: &mockAPIKeys{err: errors.New("connection refused")},
			Carts:   &mockCarts{},
		}).Routes()
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(apiKeyHeader, "sk_ok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", errorMessage(t, rec))
	})

	t.Run("bad api key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(apiKeyHeader, "sk_bad")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid api key", errorMessage(t, rec))
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("register sets cookie", func(t *testing.T) {
		users := newTestUsers()
		h := New(Config{}, Services{Users: users}).Routes()

		rec := do(t, h, http.MethodPost, "/auth/register", "", registerRequest{
			Username: "ann", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody[authResponse](t, rec)
		assert.Equal(t, "jwt-new", resp.Token)
		assert.Equal(t, auth.RoleUser, resp.User.Role)
		require.NotNil(t, users.registered)
		assert.Equal(t, "secret1", users.registered.ConfirmPassword)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "token", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("register conflict", func(t *testing.T) {
		users := newTestUsers()
		users.registerErr = user.ErrEmailTaken
		h := New(Config{}, Services{Users: users}).Routes()

		rec := do(t, h, http.MethodPost, "/auth/register", "", registerRequest{Email: "ann@example.com"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := New(Config{}, Services{Users: newTestUsers()}).Routes()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", errorMessage(t, rec))
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		users := newTestUsers()
		h := New(Config{}, Services{Users: users}).Routes()

		rec := do(t, h, http.MethodPost, "/auth/logout", "user-token", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{customer.UserID}, users.loggedOut)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestCartRoutes(t *testing.T) {
	t.Run("get cart", func(t *testing.T) {
		carts := &mockCarts{cart: sampleCart()}
		h := New(Config{}, Services{Users: newTestUsers(), Carts: carts}).Routes()

		rec := do(t, h, http.MethodGet, "/cart", "user-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "c1", resp["id"])
		assert.EqualValues(t, 25, resp["totalPriceBeforeDiscount"])
		assert.EqualValues(t, 2, resp["numOfCartItems"])
		assert.NotContains(t, resp, "totalPriceAfterDiscount")
		assert.NotContains(t, resp, "couponCode")
	})

	t.Run("add defaults to one unit", func(t *testing.T) {
		carts := &mockCarts{cart: sampleCart()}
		h := New(Config{}, Services{Users: newTestUsers(), Carts: carts}).Routes()

		rec := do(t, h, http.MethodPost, "/cart", "user-token", map[string]any{"productId": "p1"})
		assert.Equal(t, http.StatusCreated, rec.Code)
		rec = do(t, h, http.MethodPost, "/cart", "user-token", map[string]any{"productId": "p1", "quantity": 4})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, []int{1, 4}, carts.added)
	})

	t.Run("apply coupon", func(t *testing.T) {
		c := sampleCart()
		c.Coupon = &coupon.Rule{Code: "SAVE10", DiscountType: coupon.DiscountPercentage, Value: decimal.NewFromInt(10)}
		c.TotalAfterDiscount = decimal.NewNullDecimal(decimal.RequireFromString("22.5"))
		carts := &mockCarts{cart: c}
		h := New(Config{}, Services{Users: newTestUsers(), Carts: carts}).Routes()

		rec := do(t, h, http.MethodPatch, "/cart/apply-coupon", "user-token", couponCodeRequest{Code: "SAVE10"})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[couponAppliedResponse](t, rec)
		assert.Equal(t, "Coupon applied successfully", resp.Message)
		assert.Equal(t, "SAVE10", resp.Cart.CouponCode)
		require.NotNil(t, resp.Cart.TotalPriceAfterDiscount)
		assert.Equal(t, "22.50", resp.Cart.TotalPriceAfterDiscount.StringFixed(2))
		assert.Equal(t, []string{"SAVE10"}, carts.coupons)
	})

	t.Run("invalid coupon", func(t *testing.T) {
		carts := &mockCarts{err: coupon.ErrInvalidCoupon}
		h := New(Config{}, Services{Users: newTestUsers(), Carts: carts}).Routes()

		rec := do(t, h, http.MethodPatch, "/cart/apply-coupon", "user-token", couponCodeRequest{Code: "NOPE"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid coupon code", errorMessage(t, rec))
	})

	t.Run("update missing item", func(t *testing.T) {
		carts := &mockCarts{err: cart.ErrItemNotFound}
		h := New(Config{}, Services{Users: newTestUsers(), Carts: carts}).Routes()

		rec := do(t, h, http.MethodPatch, "/cart/p9", "user-token", quantityRequest{Quantity: 2})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOrderRoutes(t *testing.T) {
	t.Run("checkout", func(t *testing.T) {
		orders := &mockOrders{order: sampleOrder()}
		h := New(Config{}, Services{Users: newTestUsers(), Orders: orders}).Routes()

		rec := do(t, h, http.MethodPost, "/orders/c1", "user-token", map[string]any{
			"shippingAddress": map[string]string{"details": "1 Main St", "phone": "555", "city": "Cairo"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "c1", orders.checkout.cartID)
		assert.Equal(t, customer.UserID, orders.checkout.userID)
		assert.Equal(t, "Cairo", orders.checkout.req.ShippingAddress.City)
		assert.Empty(t, orders.checkout.req.PaymentMethod)

		resp := decodeBody[orderResponse](t, rec)
		assert.Equal(t, "o1", resp.ID)
		assert.True(t, decimal.NewFromInt(20).Equal(resp.TotalPrice.Decimal), "total %s", resp.TotalPrice)
		assert.False(t, resp.IsPaid)
	})

	t.Run("checkout of empty cart", func(t *testing.T) {
		orders := &mockOrders{err: cart.ErrEmptyCart}
		h := New(Config{}, Services{Users: newTestUsers(), Orders: orders}).Routes()

		rec := do(t, h, http.MethodPost, "/orders/c1", "user-token", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other user's order is hidden", func(t *testing.T) {
		o := sampleOrder()
		o.UserID = "someone-else"
		h := New(Config{}, Services{Users: newTestUsers(), Orders: &mockOrders{order: o}}).Routes()

		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/orders/o1", "user-token", nil).Code)
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/orders/o1", "admin-token", nil).Code)
	})

	t.Run("mark paid is admin only", func(t *testing.T) {
		h := New(Config{}, Services{Users: newTestUsers(), Orders: &mockOrders{order: sampleOrder()}}).Routes()

		rec := do(t, h, http.MethodPatch, "/orders/o1/is-paid", "user-token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(t, h, http.MethodPatch, "/orders/o1/is-paid", "admin-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[orderResponse](t, rec)
		assert.True(t, resp.IsPaid)
		assert.NotNil(t, resp.PaidAt)
	})

	t.Run("checkout session without gateway", func(t *testing.T) {
		orders := &mockOrders{sessionErr: payment.ErrNotConfigured}
		h := New(Config{}, Services{Users: newTestUsers(), Orders: orders}).Routes()

		rec := do(t, h, http.MethodPost, "/orders/checkout-session", "user-token", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("checkout session", func(t *testing.T) {
		h := New(Config{}, Services{Users: newTestUsers(), Orders: &mockOrders{}}).Routes()

		rec := do(t, h, http.MethodPost, "/orders/checkout-session", "user-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cs_1", decodeBody[sessionResponse](t, rec).SessionID)
	})
}

func TestProductRoutes(t *testing.T) {
	items := []product.Product{{ID: "p1", Title: "Mug", Price: decimal.RequireFromString("9.99")}}

	tests := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, p product.ListParams)
	}{
		{
			name:   "filters",
			path:   "/products?page=2&limit=5&keyword=mug&category=c1&subcategory=s1&minPrice=1.5&maxPrice=20&sort=-price",
			status: http.StatusOK,
			check: func(t *testing.T, p product.ListParams) {
				assert.Equal(t, 2, p.Page)
				assert.Equal(t, 5, p.Limit)
				assert.Equal(t, "mug", p.Keyword)
				assert.Equal(t, "c1", p.CategoryID)
				assert.Equal(t, "s1", p.SubcategoryID)
				assert.Equal(t, product.SortPriceDesc, p.Sort)
				require.NotNil(t, p.MinPrice)
				assert.True(t, p.MinPrice.Equal(decimal.RequireFromString("1.5")))
				require.NotNil(t, p.MaxPrice)
			},
		},
		{
			name:   "top rated alias pins sort",
			path:   "/products/top-rated?sort=price",
			status: http.StatusOK,
			check: func(t *testing.T, p product.ListParams) {
				assert.Equal(t, product.SortTopRated, p.Sort)
			},
		},
		{
			name:   "top sold alias",
			path:   "/products/top-sold",
			status: http.StatusOK,
			check: func(t *testing.T, p product.ListParams) {
				assert.Equal(t, product.SortTopSold, p.Sort)
			},
		},
		{name: "bad page", path: "/products?page=zero", status: http.StatusBadRequest},
		{name: "bad price", path: "/products?minPrice=cheap", status: http.StatusBadRequest},
		{name: "unknown sort", path: "/products?sort=random", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := &mockProducts{items: items}
			h := New(Config{}, Services{Products: products}).Routes()

			rec := do(t, h, http.MethodGet, tt.path, "", nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.check == nil {
				return
			}
			tt.check(t, products.params)
			resp := decodeBody[listResponse[productResponse]](t, rec)
			assert.Equal(t, 1, resp.Results)
			assert.Equal(t, "9.99", resp.Data[0].Price.String())
			assert.Equal(t, []string{}, resp.Data[0].Images)
		})
	}
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	h := New(Config{}, Services{Users: newTestUsers()}).Routes()

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/products"},
		{http.MethodPatch, "/products/p1"},
		{http.MethodDelete, "/categories/c1"},
		{http.MethodPost, "/categories/c1/subcategories"},
		{http.MethodPost, "/products/p1/images"},
		{http.MethodPost, "/banners"},
		{http.MethodPatch, "/banners/b1"},
		{http.MethodDelete, "/banners/b1"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(t, h, tc.method, tc.path, "", nil).Code)
			assert.Equal(t, http.StatusForbidden, do(t, h, tc.method, tc.path, "user-token", nil).Code)
		})
	}
}

func TestMoneyIsExact(t *testing.T) {
	c := cart.New("u1")
	require.NoError(t, c.AddItem("p1", 1, decimal.RequireFromString("0.1")))
	require.NoError(t, c.AddItem("p2", 1, decimal.RequireFromString("0.2")))

	data, err := json.Marshal(toCart(c))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalPriceBeforeDiscount":0.30`)
	assert.Contains(t, string(data), `"unitPrice":0.10`)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.EqualValues(t, 0.3, generic["totalPriceBeforeDiscount"])
}

func TestBannerRoutes(t *testing.T) {
	sample := &banner.Banner{ID: "b1", Title: "Summer sale", ImageURL: "/uploads/image-1.jpeg"}

	t.Run("public list and get", func(t *testing.T) {
		h := New(Config{}, Services{Banners: &mockBanners{banner: sample, notFoundID: "gone"}}).Routes()

		rec := do(t, h, http.MethodGet, "/banners", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		list := decodeBody[listResponse[bannerResponse]](t, rec)
		require.Len(t, list.Data, 1)
		assert.Equal(t, "/uploads/image-1.jpeg", list.Data[0].ImageURL)

		rec = do(t, h, http.MethodGet, "/banners/b1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Summer sale", decodeBody[bannerResponse](t, rec).Title)

		rec = do(t, h, http.MethodGet, "/banners/gone", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "banner not found", errorMessage(t, rec))
	})

	tests := []struct {
		name       string
		method     string
		path       string
		fields     map[string]string
		image      []byte
		createErr  error
		wantStatus int
		wantTitle  *string
		wantImage  []byte
	}{
		{
			name: "create", method: http.MethodPost, path: "/banners",
			fields: map[string]string{"title": "Summer sale"}, image: []byte("png"),
			wantStatus: http.StatusCreated, wantTitle: ptr("Summer sale"), wantImage: []byte("png"),
		},
		{
			name: "create without image", method: http.MethodPost, path: "/banners",
			fields: map[string]string{"title": "Summer sale"}, createErr: banner.ErrImageRequired,
			wantStatus: http.StatusBadRequest, wantTitle: ptr("Summer sale"),
		},
		{
			name: "update title only", method: http.MethodPatch, path: "/banners/b1",
			fields:     map[string]string{"title": "Winter sale"},
			wantStatus: http.StatusOK, wantTitle: ptr("Winter sale"),
		},
		{
			name: "update image only", method: http.MethodPatch, path: "/banners/b1",
			image:      []byte("jpeg"),
			wantStatus: http.StatusOK, wantImage: []byte("jpeg"),
		},
		{
			name: "update unknown banner", method: http.MethodPatch, path: "/banners/gone",
			fields:     map[string]string{"title": "x"},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			banners := &mockBanners{banner: sample, createErr: tt.createErr, notFoundID: "gone"}
			h := New(Config{}, Services{Users: newTestUsers(), Banners: banners}).Routes()

			rec := doMultipart(t, h, tt.method, tt.path, "admin-token", tt.fields, tt.image)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantTitle, banners.gotTitle)
			assert.Equal(t, tt.wantImage, banners.gotImage)
		})
	}

	t.Run("non-multipart body is rejected", func(t *testing.T) {
		h := New(Config{}, Services{Users: newTestUsers(), Banners: &mockBanners{banner: sample}}).Routes()

		rec := do(t, h, http.MethodPost, "/banners", "admin-token", map[string]string{"title": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid multipart upload", errorMessage(t, rec))
	})
}
