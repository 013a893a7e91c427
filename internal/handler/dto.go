package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/banner"
	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/category"
	"github.com/xenking/shop-api/internal/domain/coupon"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/review"
	"github.com/xenking/shop-api/internal/domain/user"
)

// amount is money rendered as an exact JSON number with two fraction
// digits. Request bodies decode straight into decimal.Decimal, which
// accepts numbers and numeric strings.
type amount struct{ decimal.Decimal }

func money(d decimal.Decimal) amount { return amount{d} }

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUser(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type authResponse struct {
	tokenResponse
	User userResponse `json:"user"`
}

type bannerResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toBanner(b *banner.Banner) bannerResponse {
	return bannerResponse{
		ID:        b.ID,
		Title:     b.Title,
		ImageURL:  b.ImageURL,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type categoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toCategory(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		Image:     c.Image,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type subcategoryResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	CategoryID string    `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toSubcategory(s *category.Subcategory) subcategoryResponse {
	return subcategoryResponse{
		ID:         s.ID,
		Name:       s.Name,
		Slug:       s.Slug,
		CategoryID: s.CategoryID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

type productResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	Price           amount    `json:"price"`
	Quantity        int       `json:"quantity"`
	Sold            int       `json:"sold"`
	ImageCover      string    `json:"imageCover,omitempty"`
	Images          []string  `json:"images"`
	CategoryID      string    `json:"categoryId"`
	SubcategoryIDs  []string  `json:"subcategoryIds"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toProduct(p *product.Product) productResponse {
	images, subs := p.Images, p.SubcategoryIDs
	if images == nil {
		images = []string{}
	}
	if subs == nil {
		subs = []string{}
	}
	return productResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Description:     p.Description,
		Price:           money(p.Price),
		Quantity:        p.Quantity,
		Sold:            p.Sold,
		ImageCover:      p.ImageCover,
		Images:          images,
		CategoryID:      p.CategoryID,
		SubcategoryIDs:  subs,
		RatingsAverage:  p.RatingsAverage,
		RatingsQuantity: p.RatingsQuantity,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type couponResponse struct {
	ID           string              `json:"id"`
	Code         string              `json:"code"`
	DiscountType coupon.DiscountType `json:"discountType"`
	Value        amount              `json:"value"`
	MinItems     int                 `json:"minItems"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func toCoupon(c *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:           c.ID,
		Code:         c.Code,
		DiscountType: c.DiscountType,
		Value:        money(c.Value),
		MinItems:     c.MinItems,
		ExpiresAt:    c.ExpiresAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type lineResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice amount `json:"unitPrice"`
}

type cartResponse struct {
	ID                       string         `json:"id,omitempty"`
	UserID                   string         `json:"userId"`
	Items                    []lineResponse `json:"items"`
	NumItems                 int            `json:"numOfCartItems"`
	CouponCode               string         `json:"couponCode,omitempty"`
	TotalPriceBeforeDiscount amount         `json:"totalPriceBeforeDiscount"`
	TotalPriceAfterDiscount  *amount        `json:"totalPriceAfterDiscount,omitempty"`
	Version                  int            `json:"version"`
	UpdatedAt                *time.Time     `json:"updatedAt,omitempty"`
}

func toCart(c *cart.Cart) cartResponse {
	items := make([]lineResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = lineResponse{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: money(it.UnitPrice)}
	}
	resp := cartResponse{
		ID:                       c.ID,
		UserID:                   c.UserID,
		Items:                    items,
		NumItems:                 c.NumItems(),
		CouponCode:               c.CouponCode(),
		TotalPriceBeforeDiscount: money(c.TotalBeforeDiscount),
		Version:                  c.Version,
		UpdatedAt:                timePtr(c.UpdatedAt),
	}
	if c.TotalAfterDiscount.Valid {
		v := money(c.TotalAfterDiscount.Decimal)
		resp.TotalPriceAfterDiscount = &v
	}
	return resp
}

type addressBody struct {
	Details    string `json:"details"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
}

func (a addressBody) domain() order.ShippingAddress {
	return order.ShippingAddress{Details: a.Details, Phone: a.Phone, City: a.City, PostalCode: a.PostalCode}
}

type orderResponse struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Items           []lineResponse `json:"items"`
	ShippingAddress addressBody    `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	CouponCode      string         `json:"couponCode,omitempty"`
	Subtotal        amount         `json:"subtotal"`
	Discount        amount         `json:"discount"`
	TaxPrice        amount         `json:"taxPrice"`
	ShippingPrice   amount         `json:"shippingPrice"`
	TotalPrice      amount         `json:"totalPrice"`
	IsPaid          bool           `json:"isPaid"`
	PaidAt          *time.Time     `json:"paidAt,omitempty"`
	IsDelivered     bool           `json:"isDelivered"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toOrder(o *order.Order) orderResponse {
	items := make([]lineResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = lineResponse{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: money(it.UnitPrice)}
	}
	a := o.ShippingAddress
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: addressBody{Details: a.Details, Phone: a.Phone, City: a.City, PostalCode: a.PostalCode},
		PaymentMethod:   string(o.PaymentMethod),
		CouponCode:      o.CouponCode,
		Subtotal:        money(o.Subtotal),
		Discount:        money(o.Discount),
		TaxPrice:        money(o.TaxPrice),
		ShippingPrice:   money(o.ShippingPrice),
		TotalPrice:      money(o.TotalPrice),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type reviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReview(r *review.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Title:     r.Title,
		Comment:   r.Comment,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
