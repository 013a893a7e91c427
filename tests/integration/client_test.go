//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/pkg/shopclient"
)

func TestClientCheckout(t *testing.T) {
	ctx := context.Background()
	kettle := createProduct(t, fmt.Sprintf("Client Kettle %d", time.Now().UnixNano()), "10.00", 5)
	mug := createProduct(t, fmt.Sprintf("Client Mug %d", time.Now().UnixNano()), "4.00", 5)
	code := fmt.Sprintf("CHEAPEST%d", time.Now().UnixNano())
	createCoupon(t, code, "free_lowest", "0", 3)

	anon := shopclient.New(baseURL + "/api")
	session, err := anon.Register(ctx, shopclient.RegisterRequest{
		Username:        "client",
		Email:           fmt.Sprintf("client-%d@shop.test", time.Now().UnixNano()),
		Password:        "client-password",
		ConfirmPassword: "client-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	c := anon.WithToken(session.Token)

	if _, err := c.AddToCart(ctx, kettle.ID, 2); err != nil {
		t.Fatalf("add kettle: %v", err)
	}
	cart, err := c.AddToCart(ctx, mug.ID, 1)
	if err != nil {
		t.Fatalf("add mug: %v", err)
	}

	cart, err = c.ApplyCoupon(ctx, code)
	if err != nil {
		t.Fatalf("apply coupon: %v", err)
	}
	if want := decimal.NewFromInt(20); !cart.Payable().Equal(want) {
		t.Fatalf("payable: got %s, want %s", cart.Payable(), want)
	}

	// Dropping below the minimum quantity withdraws the coupon.
	if cart, err = c.SetCartQuantity(ctx, kettle.ID, 1); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if cart.TotalPriceAfterDiscount != nil {
		t.Errorf("coupon still applied: %+v", cart)
	}

	req := shopclient.CheckoutRequest{
		ShippingAddress: shopclient.Address{Details: "1 Main St", Phone: "+1 555 0100", City: "Springfield"},
	}
	o, err := c.Checkout(ctx, cart.ID, req)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if want := decimal.NewFromInt(19); !o.TotalPrice.Equal(want) {
		t.Errorf("total: got %s, want %s", o.TotalPrice, want)
	}

	_, err = c.Checkout(ctx, cart.ID, req)
	if !shopclient.IsStatus(err, http.StatusNotFound) {
		t.Errorf("second checkout: got %v, want 404", err)
	}

	if _, err := c.MarkPaid(ctx, o.ID); !shopclient.IsStatus(err, http.StatusForbidden) {
		t.Errorf("customer mark paid: got %v, want 403", err)
	}
	paid, err := anon.WithToken(adminToken).MarkPaid(ctx, o.ID)
	if err != nil {
		t.Fatalf("admin mark paid: %v", err)
	}
	if !paid.IsPaid || paid.PaidAt == nil {
		t.Errorf("order not paid: %+v", paid)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := c.Cart(ctx); !shopclient.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("cart after logout: got %v, want 401", err)
	}
}
