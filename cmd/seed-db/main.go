// Command seed-db prepares a shop database: it applies migrations, loads a
// demo catalog, creates the first admin and issues API keys.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/category"
	"github.com/xenking/shop-api/internal/domain/coupon"
	"github.com/xenking/shop-api/internal/domain/product"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/internal/media"
	"github.com/xenking/shop-api/internal/storage/postgres"
)

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(lg).ExecuteContext(ctx); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	databaseURL string
}

// connect migrates the database and opens a pool.
func (o *rootOptions) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if o.databaseURL == "" {
		o.databaseURL = os.Getenv("DATABASE_URL")
	}
	if o.databaseURL == "" {
		return nil, errors.New("database URL is required: set --database-url or DATABASE_URL")
	}
	if err := postgres.RunMigrations(o.databaseURL); err != nil {
		return nil, errors.Wrap(err, "run migrations")
	}
	pool, err := postgres.NewPool(ctx, o.databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	return pool, nil
}

func newRootCommand(lg *zap.Logger) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "seed-db",
		Short:         "Prepare a shop database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("SHOP_DATABASE_URL"),
		"PostgreSQL connection URL (or DATABASE_URL env)")

	root.AddCommand(
		newMigrateCommand(lg, opts),
		newSeedCommand(lg, opts),
		newAdminCommand(lg, opts),
		newAPIKeyCommand(lg, opts),
	)
	return root
}

func newMigrateCommand(lg *zap.Logger, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			pool.Close()
			lg.Info("Schema is up to date")
			return nil
		},
	}
}

func newSeedCommand(lg *zap.Logger, opts *rootOptions) *cobra.Command {
	var (
		file       string
		uploadsDir string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, products and coupons from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			data, err := readCatalog(file)
			if err != nil {
				return err
			}
			pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Seeding never uploads images; the store only completes the service.
			images, err := media.NewStore(uploadsDir, "/uploads")
			if err != nil {
				return errors.Wrap(err, "create media store")
			}
			categories := category.NewService(postgres.NewCategoryRepository(pool))
			s := &Seeder{
				lg:         lg,
				categories: categories,
				products:   product.NewService(postgres.NewProductRepository(pool), categories, images),
				coupons:    coupon.NewService(postgres.NewCouponRepository(pool)),
			}
			stats, err := s.Seed(ctx, data)
			if err != nil {
				return err
			}
			lg.Info("Catalog seeded",
				zap.Int("categories", stats.Categories),
				zap.Int("subcategories", stats.Subcategories),
				zap.Int("products", stats.Products),
				zap.Int("coupons", stats.Coupons),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "db/seed/catalog.json", "catalog JSON file")
	cmd.Flags().StringVar(&uploadsDir, "uploads-dir", "uploads", "directory for uploaded images")
	return cmd
}

func newAdminCommand(lg *zap.Logger, opts *rootOptions) *cobra.Command {
	var email, password, username string
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first admin account or promote an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Tokens are never issued here.
			users := user.NewService(postgres.NewUserRepository(pool), nil, auth.NopRevocations{})
			u, created, err := users.BootstrapAdmin(ctx, email, password, username)
			if err != nil {
				return err
			}
			lg.Info("Admin ready",
				zap.String("id", u.ID),
				zap.String("email", u.Email),
				zap.Bool("created", created),
			)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", os.Getenv("SHOP_ADMIN_EMAIL"), "admin email")
	f.StringVar(&password, "password", os.Getenv("SHOP_ADMIN_PASSWORD"), "admin password, used only when the account is new")
	f.StringVar(&username, "username", "", "admin username, defaults to the email local part")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAPIKeyCommand(lg *zap.Logger, opts *rootOptions) *cobra.Command {
	var (
		name   string
		pepper string
		scopes []string
	)
	cmd := &cobra.Command{
		Use:   "create-api-key",
		Short: "Issue an API key and print it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions, err := parseScopes(scopes)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			key, hash, err := auth.GenerateAPIKey([]byte(pepper))
			if err != nil {
				return err
			}
			k := &auth.APIKey{ID: uuid.NewString(), KeyHash: hash, Name: name, Scopes: actions}
			if err := postgres.NewAPIKeyRepository(pool).Create(ctx, k); err != nil {
				return err
			}
			lg.Info("API key created", zap.String("id", k.ID), zap.String("name", name), zap.Strings("scopes", scopes))
			_, err = cmd.OutOrStdout().Write([]byte(key + "\n"))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "key description")
	f.StringVar(&pepper, "api-key-pepper", os.Getenv("SHOP_AUTH_API_KEY_PEPPER"), "HMAC pepper, must match the server")
	f.StringSliceVar(&scopes, "scope", []string{string(auth.ActionMarkPaid)}, "granted actions")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// parseScopes rejects actions unknown to the role policy.
func parseScopes(scopes []string) ([]auth.Action, error) {
	if len(scopes) == 0 {
		return nil, errors.New("at least one scope is required")
	}
	actions := make([]auth.Action, 0, len(scopes))
	for _, s := range scopes {
		a := auth.Action(s)
		if !auth.Allow(auth.RoleAdmin, a) {
			return nil, errors.Errorf("unknown scope %q", s)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
