// Command coupon-ingest bulk loads promo codes from gzipped CSV files.
//
// Each line is "code,type,value,minItems,expiresAt". Codes repeated across
// or within files are written once.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

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

	if err := newCommand(lg).ExecuteContext(ctx); err != nil {
		lg.Error("Ingest failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func newCommand(lg *zap.Logger) *cobra.Command {
	var (
		databaseURL string
		dataDir     string
		opts        Options
	)
	cmd := &cobra.Command{
		Use:   "coupon-ingest [files...]",
		Short: "Load coupon codes from gzipped CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("database URL is required: set --database-url or DATABASE_URL")
			}
			files, err := inputFiles(args, dataDir)
			if err != nil {
				return err
			}
			return ingest(cmd.Context(), lg, databaseURL, files, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&databaseURL, "database-url", os.Getenv("SHOP_DATABASE_URL"), "PostgreSQL connection URL (or DATABASE_URL env)")
	f.StringVar(&dataDir, "data-dir", "data", "directory scanned for *.gz files when no files are given")
	f.IntVar(&opts.BatchSize, "batch-size", 1000, "coupons per upsert")
	f.UintVar(&opts.ExpectedCodes, "expected-codes", 10_000_000, "expected number of codes, sizes the duplicate filter")
	f.Float64Var(&opts.FalsePositiveRate, "fpr", 0.001, "duplicate filter false positive rate")
	return cmd
}

func inputFiles(args []string, dataDir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return nil, errors.Wrap(err, "scan data dir")
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no .gz files in %s", dataDir)
	}
	return files, nil
}

func ingest(ctx context.Context, lg *zap.Logger, databaseURL string, files []string, opts Options) error {
	if err := postgres.RunMigrations(databaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	start := time.Now()
	lg.Info("Ingesting", zap.Strings("files", files))
	stats, err := NewIngester(lg, postgres.NewCouponRepository(pool), opts).Run(ctx, files)
	if err != nil {
		return err
	}
	lg.Info("Ingest complete",
		zap.Int64("lines", stats.Lines),
		zap.Int64("invalid", stats.Invalid),
		zap.Int64("duplicates", stats.Duplicates),
		zap.Int64("written", stats.Written),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
