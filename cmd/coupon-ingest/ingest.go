package main

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shop-api/internal/domain/coupon"
)

const progressEvery = 1_000_000

// Upserter stores coupons, replacing existing codes.
type Upserter interface {
	UpsertBatch(ctx context.Context, coupons []coupon.Coupon) (int64, error)
}

// Options tune an ingest run.
type Options struct {
	// ExpectedCodes and FalsePositiveRate size the duplicate filter.
	ExpectedCodes     uint
	FalsePositiveRate float64
	BatchSize         int
}

// Stats summarizes an ingest run.
type Stats struct {
	Lines      int64
	Invalid    int64
	Duplicates int64
	Written    int64
}

// Ingester loads coupon files into an Upserter.
type Ingester struct {
	lg   *zap.Logger
	dst  Upserter
	opts Options
	now  func() time.Time
}

// NewIngester creates an Ingester writing to dst.
func NewIngester(lg *zap.Logger, dst Upserter, opts Options) *Ingester {
	if opts.ExpectedCodes == 0 {
		opts.ExpectedCodes = 10_000_000
	}
	if opts.FalsePositiveRate <= 0 {
		opts.FalsePositiveRate = 0.001
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	return &Ingester{lg: lg, dst: dst, opts: opts, now: time.Now}
}

// parseLine parses "code,type,value,minItems,expiresAt". expiresAt is RFC
// 3339 or a date, which expires at the end of that UTC day.
func parseLine(line string) (coupon.Coupon, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 5 {
		return coupon.Coupon{}, errors.Errorf("want 5 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	value, err := decimal.NewFromString(fields[2])
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "value")
	}
	minItems, err := strconv.Atoi(fields[3])
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "minItems")
	}
	expiresAt, err := parseExpiry(fields[4])
	if err != nil {
		return coupon.Coupon{}, err
	}

	c := coupon.Coupon{
		Rule: coupon.Rule{
			Code:         fields[0],
			DiscountType: coupon.DiscountType(fields[1]),
			Value:        value,
			MinItems:     minItems,
		},
		ExpiresAt: expiresAt,
	}
	if err := coupon.Validate(&c); err != nil {
		return coupon.Coupon{}, err
	}
	return c, nil
}

func parseExpiry(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, errors.Errorf("expiresAt %q is neither RFC 3339 nor a date", v)
	}
	return d.Add(24*time.Hour - time.Second), nil
}

// Run ingests files. It makes two parallel passes: the first finds codes
// that may occur more than once with a shared bloom filter, the second
// writes every code exactly once, checking only those suspects exactly.
func (in *Ingester) Run(ctx context.Context, files []string) (Stats, error) {
	var stats Stats

	suspects, err := in.findSuspects(ctx, files)
	if err != nil {
		return stats, errors.Wrap(err, "find duplicates")
	}
	in.lg.Info("Pass 1 complete", zap.Int("suspects", len(suspects)))

	records := make(chan coupon.Coupon, in.opts.BatchSize)
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu      sync.Mutex
		claimed = make(map[string]struct{}, len(suspects))
	)
	// claim reports whether code is written by the caller.
	claim := func(code string) bool {
		if _, ok := suspects[code]; !ok {
			return true
		}
		mu.Lock()
		defer mu.Unlock()
		if _, ok := claimed[code]; ok {
			return false
		}
		claimed[code] = struct{}{}
		return true
	}

	var (
		readers               sync.WaitGroup
		lines, invalid, dupes atomic.Int64
	)
	for _, path := range files {
		readers.Add(1)
		g.Go(func() error {
			defer readers.Done()
			return streamLines(gctx, path, func(n int, line string) error {
				lines.Add(1)
				c, err := parseLine(line)
				if err != nil {
					invalid.Add(1)
					in.lg.Debug("Skipping invalid line",
						zap.String("file", path), zap.Int("line", n), zap.Error(err))
					return nil
				}
				if !claim(c.Code) {
					dupes.Add(1)
					return nil
				}
				select {
				case records <- c:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		})
	}
	go func() {
		readers.Wait()
		close(records)
	}()

	g.Go(func() error {
		written, err := in.write(gctx, records)
		stats.Written = written
		return err
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Lines, stats.Invalid, stats.Duplicates = lines.Load(), invalid.Load(), dupes.Load()
	return stats, nil
}

// findSuspects returns codes seen more than once according to a bloom
// filter shared by all files. False positives are included.
func (in *Ingester) findSuspects(ctx context.Context, files []string) (map[string]struct{}, error) {
	var (
		mu       sync.Mutex
		filter   = bloom.NewWithEstimates(in.opts.ExpectedCodes, in.opts.FalsePositiveRate)
		suspects = make(map[string]struct{})
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			return streamLines(ctx, path, func(n int, line string) error {
				code, _, _ := strings.Cut(line, ",")
				code = strings.TrimSpace(code)
				if code == "" {
					return nil
				}
				if n%progressEvery == 0 {
					in.lg.Info("Pass 1 progress", zap.String("file", path), zap.Int("lines", n))
				}
				mu.Lock()
				if filter.TestAndAddString(code) {
					suspects[code] = struct{}{}
				}
				mu.Unlock()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return suspects, nil
}

// write upserts records in batches and returns the rows written.
func (in *Ingester) write(ctx context.Context, records <-chan coupon.Coupon) (int64, error) {
	var (
		written int64
		batch   = make([]coupon.Coupon, 0, in.opts.BatchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := in.dst.UpsertBatch(ctx, batch)
		written += n
		if err != nil {
			return errors.Wrap(err, "upsert batch")
		}
		in.lg.Debug("Batch written", zap.Int("size", len(batch)), zap.Int64("total", written))
		batch = batch[:0]
		return nil
	}

	for c := range records {
		now := in.now().UTC()
		c.ID, c.CreatedAt, c.UpdatedAt = uuid.NewString(), now, now
		batch = append(batch, c)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, ctx.Err()
}

// streamLines calls fn with each non-empty, non-comment line of the gzip
// file at path and its 1-based line number.
func streamLines(ctx context.Context, path string, fn func(n int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	n := 0
	for scanner.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
