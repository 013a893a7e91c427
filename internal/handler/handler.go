// Package handler exposes the shop domain over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/banner"
	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/category"
	"github.com/xenking/shop-api/internal/domain/coupon"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/review"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/internal/domain/wishlist"
	"github.com/xenking/shop-api/internal/payment"
)

// UserService is the account surface used by the auth and user routes.
type UserService interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, *auth.Token, error)
	Login(ctx context.Context, email, password string) (*user.User, *auth.Token, error)
	Logout(ctx context.Context, id auth.Identity) error
	Authenticate(ctx context.Context, raw string) (auth.Identity, error)
	Get(ctx context.Context, id string) (*user.User, error)
	List(ctx context.Context, page, limit int) ([]user.User, int, error)
	UpdateProfile(ctx context.Context, id string, in user.ProfileInput) (*user.User, error)
	Update(ctx context.Context, id string, in user.ProfileInput) (*user.User, error)
	ChangePassword(ctx context.Context, id, current, password, confirm string) (*auth.Token, error)
	Delete(ctx context.Context, id string) error
}

// APIKeyVerifier authenticates machine callers.
type APIKeyVerifier interface {
	Verify(ctx context.Context, raw string) (auth.Identity, error)
}

// BannerService manages storefront banners.
type BannerService interface {
	Create(ctx context.Context, title string, image io.Reader) (*banner.Banner, error)
	Update(ctx context.Context, id string, title *string, image io.Reader) (*banner.Banner, error)
	Get(ctx context.Context, id string) (*banner.Banner, error)
	List(ctx context.Context) ([]banner.Banner, error)
	Delete(ctx context.Context, id string) error
}

// CategoryService manages the category tree.
type CategoryService interface {
	CreateCategory(ctx context.Context, name, image string) (*category.Category, error)
	UpdateCategory(ctx context.Context, id string, name, image *string) (*category.Category, error)
	GetCategory(ctx context.Context, id string) (*category.Category, error)
	ListCategories(ctx context.Context) ([]category.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CreateSubcategory(ctx context.Context, categoryID, name string) (*category.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id string, name, categoryID *string) (*category.Subcategory, error)
	GetSubcategory(ctx context.Context, id string) (*category.Subcategory, error)
	ListSubcategories(ctx context.Context, categoryID string) ([]category.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id string) error
}

// ProductService manages the catalog.
type ProductService interface {
	List(ctx context.Context, p product.ListParams) (*product.Page, error)
	Get(ctx context.Context, id string) (*product.Product, error)
	Create(ctx context.Context, in product.Input) (*product.Product, error)
	Update(ctx context.Context, id string, in product.Input) (*product.Product, error)
	Delete(ctx context.Context, id string) error
	SetImages(ctx context.Context, id string, cover io.Reader, images []io.Reader) (*product.Product, error)
}

// CouponService manages coupons.
type CouponService interface {
	Create(ctx context.Context, in coupon.Input) (*coupon.Coupon, error)
	Update(ctx context.Context, id string, in coupon.Input) (*coupon.Coupon, error)
	Get(ctx context.Context, id string) (*coupon.Coupon, error)
	List(ctx context.Context) ([]coupon.Coupon, error)
	Delete(ctx context.Context, id string) error
}

// CartService mutates the caller's cart.
type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) (*cart.Cart, error)
	ApplyCoupon(ctx context.Context, userID, code string) (*cart.Cart, error)
}

// OrderService places and tracks orders.
type OrderService interface {
	Checkout(ctx context.Context, userID, cartID string, req order.CheckoutRequest) (*order.Order, error)
	CreateCheckoutSession(ctx context.Context, id auth.Identity, addr order.ShippingAddress) (*payment.Session, error)
	Get(ctx context.Context, viewer auth.Identity, id string) (*order.Order, error)
	List(ctx context.Context, viewer auth.Identity, page, limit int) (*order.Page, error)
	MarkPaid(ctx context.Context, id string) (*order.Order, error)
	MarkDelivered(ctx context.Context, id string) (*order.Order, error)
	Delete(ctx context.Context, id string) error
}

// ReviewService manages product reviews.
type ReviewService interface {
	Create(ctx context.Context, author auth.Identity, productID string, in review.Input) (*review.Review, error)
	Update(ctx context.Context, caller auth.Identity, id string, in review.Input) (*review.Review, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
	Get(ctx context.Context, id string) (*review.Review, error)
	List(ctx context.Context, productID string, page, limit int) ([]review.Review, int, error)
}

// WishlistService manages the caller's wishlist.
type WishlistService interface {
	List(ctx context.Context, userID string) ([]product.Product, error)
	Add(ctx context.Context, userID, productID string) ([]product.Product, error)
	Remove(ctx context.Context, userID, productID string) ([]product.Product, error)
	Clear(ctx context.Context, userID string) error
}

var (
	_ UserService     = (*user.Service)(nil)
	_ APIKeyVerifier  = (*auth.APIKeyVerifier)(nil)
	_ BannerService   = (*banner.Service)(nil)
	_ CategoryService = (*category.Service)(nil)
	_ ProductService  = (*product.Service)(nil)
	_ CouponService   = (*coupon.Service)(nil)
	_ CartService     = (*cart.Service)(nil)
	_ OrderService    = (*order.Service)(nil)
	_ ReviewService   = (*review.Service)(nil)
	_ WishlistService = (*wishlist.Service)(nil)
)

// Services groups the domain dependencies of the Handler. APIKeys is
// optional.
type Services struct {
	Users      UserService
	APIKeys    APIKeyVerifier
	Banners    BannerService
	Categories CategoryService
	Products   ProductService
	Coupons    CouponService
	Carts      CartService
	Orders     OrderService
	Reviews    ReviewService
	Wishlist   WishlistService
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// CookieName is the cookie carrying the bearer token for browser clients.
	CookieName string
	// SecureCookie marks the token cookie Secure.
	SecureCookie bool
	// MaxUploadBytes bounds multipart image uploads.
	MaxUploadBytes int64
}

// Handler serves the shop HTTP API.
type Handler struct {
	svc Services
	cfg Config
}

// New creates a Handler.
func New(cfg Config, svc Services) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	return &Handler{svc: svc, cfg: cfg}
}

// Register mounts every API route on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.With(h.authenticate).Post("/logout", h.logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Group(func(r chi.Router) {
			r.Use(requireAction(auth.ActionManageProfile))
			r.Get("/my-profile", h.getMyProfile)
			r.Patch("/my-profile", h.updateMyProfile)
			r.Delete("/my-profile", h.deleteMyProfile)
			r.Patch("/my-password", h.changeMyPassword)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAction(auth.ActionManageUsers))
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Patch("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})
	})

	r.Route("/banners", func(r chi.Router) {
		r.Get("/", h.listBanners)
		r.Get("/{id}", h.getBanner)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, requireAction(auth.ActionManageCatalog))
			r.Post("/", h.createBanner)
			r.Patch("/{id}", h.updateBanner)
			r.Delete("/{id}", h.deleteBanner)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Get("/{id}", h.getCategory)
		r.Get("/{id}/subcategories", h.listSubcategories)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, requireAction(auth.ActionManageCatalog))
			r.Post("/", h.createCategory)
			r.Patch("/{id}", h.updateCategory)
			r.Delete("/{id}", h.deleteCategory)
			r.Post("/{id}/subcategories", h.createSubcategory)
		})
	})

	r.Route("/subcategories", func(r chi.Router) {
		r.Get("/", h.listSubcategories)
		r.Get("/{id}", h.getSubcategory)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, requireAction(auth.ActionManageCatalog))
			r.Post("/", h.createSubcategory)
			r.Patch("/{id}", h.updateSubcategory)
			r.Delete("/{id}", h.deleteSubcategory)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts(""))
		r.Get("/top-rated", h.listProducts(product.SortTopRated))
		r.Get("/top-sold", h.listProducts(product.SortTopSold))
		r.Get("/new-arrivals", h.listProducts(product.SortNewest))
		r.Get("/{id}", h.getProduct)
		r.Get("/{id}/reviews", h.listReviews)
		r.With(h.authenticate, requireAction(auth.ActionShop)).Post("/{id}/reviews", h.createReview)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, requireAction(auth.ActionManageCatalog))
			r.Post("/", h.createProduct)
			r.Patch("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
			r.Post("/{id}/images", h.uploadProductImages)
		})
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Get("/{id}", h.getReview)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, requireAction(auth.ActionShop))
			r.Patch("/{id}", h.updateReview)
			r.Delete("/{id}", h.deleteReview)
		})
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Use(h.authenticate, requireAction(auth.ActionManageCoupons))
		r.Get("/", h.listCoupons)
		r.Post("/", h.createCoupon)
		r.Get("/{id}", h.getCoupon)
		r.Patch("/{id}", h.updateCoupon)
		r.Delete("/{id}", h.deleteCoupon)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(h.authenticate, requireAction(auth.ActionShop))
		r.Get("/", h.getCart)
		r.Post("/", h.addToCart)
		r.Delete("/", h.clearCart)
		r.Patch("/apply-coupon", h.applyCoupon)
		r.Patch("/{productId}", h.updateCartItem)
		r.Delete("/{productId}", h.removeCartItem)
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Use(h.authenticate, requireAction(auth.ActionShop))
		r.Get("/", h.getWishlist)
		r.Post("/", h.addToWishlist)
		r.Delete("/", h.clearWishlist)
		r.Delete("/{productId}", h.removeFromWishlist)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Group(func(r chi.Router) {
			r.Use(requireAction(auth.ActionShop))
			r.Get("/", h.listOrders)
			r.Post("/checkout-session", h.createCheckoutSession)
			// The path id of a POST is the cart being checked out.
			r.Post("/{id}", h.checkout)
			r.Get("/{id}", h.getOrder)
		})
		r.With(requireAction(auth.ActionMarkPaid)).Patch("/{id}/is-paid", h.markPaid)
		r.With(requireAction(auth.ActionMarkDelivered)).Patch("/{id}/is-delivered", h.markDelivered)
		r.With(requireAction(auth.ActionManageOrders)).Delete("/{id}", h.deleteOrder)
	})
}

// Routes returns the API as a standalone http.Handler.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}
