package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

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
	"github.com/xenking/shop-api/internal/handler"
	"github.com/xenking/shop-api/internal/media"
	"github.com/xenking/shop-api/internal/payment"
	"github.com/xenking/shop-api/internal/storage/postgres"
	"github.com/xenking/shop-api/internal/storage/redis"
	"github.com/xenking/shop-api/pkg/health"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

const serviceName = "shop-api"

// Deps are the external resources the router is built on.
type Deps struct {
	Pool        *pgxpool.Pool
	Revocations auth.Revocations
	Payments    payment.Provider
	// Health is optional; when set its probes are served on /livez and /readyz.
	Health         *health.Health
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// NewRouter builds the domain services over d and returns the complete HTTP
// handler: middleware chain, probes, uploaded files and the API under /api.
func NewRouter(ctx context.Context, lg *zap.Logger, cfg *Config, d Deps) (http.Handler, error) {
	tax, shipping, err := cfg.Orders.prices()
	if err != nil {
		return nil, err
	}
	images, err := media.NewStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create media store")
	}

	// Repositories.
	productRepo := postgres.NewProductRepository(d.Pool)
	couponRepo := postgres.NewCouponRepository(d.Pool)

	// Domain services.
	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	users := user.NewService(postgres.NewUserRepository(d.Pool), tokens, d.Revocations)
	categories := category.NewService(postgres.NewCategoryRepository(d.Pool))
	products := product.NewService(productRepo, categories, images)
	carts := cart.NewService(postgres.NewCartRepository(d.Pool), productRepo, coupon.NewRepoValidator(couponRepo))
	orders, err := order.NewService(
		postgres.NewOrderRepository(d.Pool),
		carts,
		d.Payments,
		order.Pricing{TaxPrice: tax, ShippingPrice: shipping, Currency: cfg.Stripe.Currency},
		d.MeterProvider.Meter(serviceName),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	h := handler.New(handler.Config{
		CookieName:     cfg.Auth.CookieName,
		SecureCookie:   cfg.Auth.SecureCookie,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	}, handler.Services{
		Users:      users,
		Banners:    banner.NewService(postgres.NewBannerRepository(d.Pool), images),
		APIKeys:    auth.NewAPIKeyVerifier(postgres.NewAPIKeyRepository(d.Pool), []byte(cfg.Auth.APIKeyPepper)),
		Categories: categories,
		Products:   products,
		Coupons:    coupon.NewService(couponRepo),
		Carts:      carts,
		Orders:     orders,
		Reviews:    review.NewService(postgres.NewReviewRepository(d.Pool), productRepo),
		Wishlist:   wishlist.NewService(postgres.NewWishlistRepository(d.Pool), productRepo),
	})

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key", httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   isProbe,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, d.TracerProvider, d.MeterProvider),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	if d.Health != nil {
		r.Get("/livez", d.Health.LiveEndpoint)
		r.Get("/readyz", d.Health.ReadyEndpoint)
	}
	// Uploaded images are served locally unless they live behind a CDN.
	if prefix := strings.TrimSuffix(cfg.Uploads.BaseURL, "/"); strings.HasPrefix(prefix, "/") {
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(images.Dir()))))
	}
	r.Route("/api", h.Register)
	return r, nil
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL migrations + pool.
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	healthSvc := health.New()
	healthSvc.Register(health.Probe{
		Name:             "postgres",
		Kind:             health.Readiness,
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		Check:            health.PingCheck(pool),
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Redis backs logout; without it tokens stay valid until they expire.
	var revocations auth.Revocations = auth.NopRevocations{}
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() { _ = client.Close() }()
		revocations = redis.NewRevocations(client)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		lg.Warn("Redis is not configured, logout will not revoke tokens")
	}

	var payments payment.Provider = payment.Disabled{}
	if cfg.Stripe.SecretKey != "" {
		payments, err = payment.NewStripe(payment.StripeConfig{
			SecretKey:  cfg.Stripe.SecretKey,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		})
		if err != nil {
			return errors.Wrap(err, "create stripe provider")
		}
	}

	router, err := NewRouter(ctx, lg, cfg, Deps{
		Pool:           pool,
		Revocations:    revocations,
		Payments:       payments,
		Health:         healthSvc,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create router")
	}
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           router,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
