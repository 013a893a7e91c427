package cart

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/coupon"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sumItems(c *Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func TestCart_AddItem(t *testing.T) {
	c := New("u1")

	require.NoError(t, c.AddItem("P1", 2, d("10")))
	require.NoError(t, c.AddItem("P2", 1, d("3.5")))
	require.NoError(t, c.AddItem("P1", 1, d("10")))

	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.True(t, d("33.5").Equal(c.TotalBeforeDiscount))
	assert.False(t, c.TotalAfterDiscount.Valid)

	require.ErrorIs(t, c.AddItem("P3", 0, d("1")), ErrInvalidQuantity)
	require.ErrorIs(t, c.AddItem("P3", -4, d("1")), ErrInvalidQuantity)
	assert.Len(t, c.Items, 2)
}

func TestCart_AddItemRepricesExistingLine(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 1, d("10")))
	require.NoError(t, c.AddItem("P1", 1, d("12")))

	assert.True(t, d("12").Equal(c.Items[0].UnitPrice))
	assert.True(t, d("24").Equal(c.TotalBeforeDiscount))
}

func TestCart_QuantityBounds(t *testing.T) {
	tests := []struct {
		name    string
		op      func(c *Cart) error
		wantErr error
	}{
		{
			name: "single add at the limit",
			op:   func(c *Cart) error { return c.AddItem("P2", MaxQuantity, d("1")) },
		},
		{
			name:    "single add above the limit",
			op:      func(c *Cart) error { return c.AddItem("P2", MaxQuantity+1, d("1")) },
			wantErr: ErrQuantityTooLarge,
		},
		{
			name:    "increment would overflow int",
			op:      func(c *Cart) error { return c.AddItem("P1", math.MaxInt, d("10")) },
			wantErr: ErrQuantityTooLarge,
		},
		{
			name:    "increment past the limit",
			op:      func(c *Cart) error { return c.AddItem("P1", MaxQuantity, d("10")) },
			wantErr: ErrQuantityTooLarge,
		},
		{
			name:    "set above the limit",
			op:      func(c *Cart) error { return c.SetQuantity("P1", math.MaxInt) },
			wantErr: ErrQuantityTooLarge,
		},
		{
			name:    "total reaches the cap",
			op:      func(c *Cart) error { return c.AddItem("P2", MaxQuantity, d("100000")) },
			wantErr: ErrTotalTooLarge,
		},
		{
			name:    "repriced increment reaches the cap",
			op:      func(c *Cart) error { return c.AddItem("P1", 1, d("500000000")) },
			wantErr: ErrTotalTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("u1")
			require.NoError(t, c.AddItem("P1", 1, d("10")))

			err := tt.op(c)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, apperr.ErrValidation)
			require.Equal(t, 1, c.Items[0].Quantity, "cart untouched")
			require.True(t, d("10").Equal(c.TotalBeforeDiscount))
			assert.Len(t, c.Items, 1)
		})
	}
}

func TestCart_RecalculateFixesStaleHeader(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 2, d("10")))
	require.NoError(t, c.AddItem("P2", 1, d("100")))
	require.NoError(t, c.ApplyCoupon(coupon.Rule{Code: "TEN", DiscountType: coupon.DiscountPercentage, Value: d("10")}))
	require.True(t, d("108").Equal(c.Payable()))

	c.Items = c.Items[:1]
	c.Recalculate()

	assert.True(t, d("20").Equal(c.TotalBeforeDiscount))
	assert.True(t, d("18").Equal(c.Payable()))
}

func TestCart_SetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		wantErr   error
		wantItems int
		wantTotal string
	}{
		{name: "increase", productID: "P1", quantity: 5, wantItems: 2, wantTotal: "52"},
		{name: "zero removes", productID: "P1", quantity: 0, wantItems: 1, wantTotal: "2"},
		{name: "negative removes", productID: "P2", quantity: -1, wantItems: 1, wantTotal: "20"},
		{name: "absent", productID: "P9", quantity: 1, wantErr: ErrItemNotFound, wantItems: 2, wantTotal: "22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("u1")
			require.NoError(t, c.AddItem("P1", 2, d("10")))
			require.NoError(t, c.AddItem("P2", 1, d("2")))

			err := c.SetQuantity(tt.productID, tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, c.Items, tt.wantItems)
			assert.True(t, d(tt.wantTotal).Equal(c.TotalBeforeDiscount), "total %s", c.TotalBeforeDiscount)
		})
	}
}

func TestCart_RemoveItemTwiceFails(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 1, d("10")))

	require.NoError(t, c.RemoveItem("P1"))
	require.ErrorIs(t, c.RemoveItem("P1"), ErrItemNotFound)
	assert.True(t, c.IsEmpty())
	assert.True(t, decimal.Zero.Equal(c.TotalBeforeDiscount))
}

func TestCart_ClearIsUnconditional(t *testing.T) {
	c := New("u1")
	c.Clear()
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.AddItem("P1", 1, d("10")))
	require.NoError(t, c.ApplyCoupon(coupon.Rule{Code: "SAVE10", DiscountType: coupon.DiscountPercentage, Value: d("10")}))
	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Coupon)
	assert.False(t, c.TotalAfterDiscount.Valid)
}

func TestCart_ApplyCouponScenario(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 2, d("10")))
	require.NoError(t, c.ApplyCoupon(coupon.Rule{Code: "SAVE10", DiscountType: coupon.DiscountPercentage, Value: d("10")}))

	assert.True(t, d("20").Equal(c.TotalBeforeDiscount))
	require.True(t, c.TotalAfterDiscount.Valid)
	assert.True(t, d("18").Equal(c.TotalAfterDiscount.Decimal))
	assert.True(t, d("18").Equal(c.Payable()))
	assert.Equal(t, "SAVE10", c.CouponCode())
}

func TestCart_CouponFollowsItemChanges(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 2, d("10")))
	require.NoError(t, c.ApplyCoupon(coupon.Rule{Code: "SAVE10", DiscountType: coupon.DiscountPercentage, Value: d("10")}))

	require.NoError(t, c.AddItem("P2", 1, d("30")))
	assert.True(t, d("45").Equal(c.TotalAfterDiscount.Decimal))

	require.NoError(t, c.SetQuantity("P1", 0))
	assert.True(t, d("27").Equal(c.TotalAfterDiscount.Decimal))
}

func TestCart_CouponDroppedBelowMinItems(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 3, d("10")))
	require.NoError(t, c.ApplyCoupon(coupon.Rule{Code: "BULK", DiscountType: coupon.DiscountFixed, Value: d("5"), MinItems: 3}))
	assert.True(t, d("25").Equal(c.Payable()))

	require.NoError(t, c.SetQuantity("P1", 2))
	assert.Nil(t, c.Coupon)
	assert.False(t, c.TotalAfterDiscount.Valid)
	assert.True(t, d("20").Equal(c.Payable()))
}

func TestCart_ApplyCouponFailureLeavesCartUntouched(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.AddItem("P1", 1, d("10")))

	err := c.ApplyCoupon(coupon.Rule{Code: "BULK", DiscountType: coupon.DiscountFixed, Value: d("5"), MinItems: 3})
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, c.Coupon)
	assert.False(t, c.TotalAfterDiscount.Valid)
}

func TestCart_TotalInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	products := []string{"P1", "P2", "P3", "P4"}
	prices := map[string]decimal.Decimal{
		"P1": d("10"), "P2": d("0.99"), "P3": d("149.5"), "P4": d("3"),
	}

	c := New("u1")
	for i := range 500 {
		p := products[rng.IntN(len(products))]
		switch rng.IntN(3) {
		case 0:
			_ = c.AddItem(p, rng.IntN(4), prices[p])
		case 1:
			_ = c.SetQuantity(p, rng.IntN(5)-1)
		case 2:
			_ = c.RemoveItem(p)
		}

		require.True(t, sumItems(c).Equal(c.TotalBeforeDiscount),
			"step %d: want %s, got %s", i, sumItems(c), c.TotalBeforeDiscount)

		seen := make(map[string]bool)
		for _, it := range c.Items {
			require.GreaterOrEqual(t, it.Quantity, 1)
			require.False(t, seen[it.ProductID], "duplicate %s", it.ProductID)
			seen[it.ProductID] = true
		}
	}
}
