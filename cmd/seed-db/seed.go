package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/category"
	"github.com/xenking/shop-api/internal/domain/coupon"
	"github.com/xenking/shop-api/internal/domain/product"
)

type catalogFile struct {
	Categories []categoryJSON `json:"categories"`
	Coupons    []couponJSON   `json:"coupons"`
}

type categoryJSON struct {
	Name          string        `json:"name"`
	Image         string        `json:"image"`
	Subcategories []string      `json:"subcategories"`
	Products      []productJSON `json:"products"`
}

type productJSON struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Subcategories []string        `json:"subcategories"`
}

type couponJSON struct {
	Code         string              `json:"code"`
	DiscountType coupon.DiscountType `json:"discountType"`
	Value        decimal.Decimal     `json:"value"`
	MinItems     int                 `json:"minItems"`
	ExpiresAt    time.Time           `json:"expiresAt"`
}

func readCatalog(path string) (*catalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &f, nil
}

type categoryStore interface {
	ListCategories(ctx context.Context) ([]category.Category, error)
	CreateCategory(ctx context.Context, name, image string) (*category.Category, error)
	ListSubcategories(ctx context.Context, categoryID string) ([]category.Subcategory, error)
	CreateSubcategory(ctx context.Context, categoryID, name string) (*category.Subcategory, error)
}

type productStore interface {
	List(ctx context.Context, p product.ListParams) (*product.Page, error)
	Create(ctx context.Context, in product.Input) (*product.Product, error)
}

type couponStore interface {
	Create(ctx context.Context, in coupon.Input) (*coupon.Coupon, error)
}

// SeedStats counts the records created by a Seed call.
type SeedStats struct {
	Categories    int
	Subcategories int
	Products      int
	Coupons       int
}

// Seeder loads a catalog through the domain services, so seeded data passes
// the same validation as API writes. Records that already exist are kept.
type Seeder struct {
	lg         *zap.Logger
	categories categoryStore
	products   productStore
	coupons    couponStore
}

// Seed creates what f describes and is missing from the database.
func (s *Seeder) Seed(ctx context.Context, f *catalogFile) (SeedStats, error) {
	var stats SeedStats

	existing, err := s.categories.ListCategories(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "list categories")
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	for _, cj := range f.Categories {
		id, ok := byName[strings.ToLower(cj.Name)]
		if !ok {
			c, err := s.categories.CreateCategory(ctx, cj.Name, cj.Image)
			if err != nil {
				return stats, errors.Wrapf(err, "create category %q", cj.Name)
			}
			id = c.ID
			byName[strings.ToLower(cj.Name)] = id
			stats.Categories++
		}

		subs, created, err := s.subcategories(ctx, id, cj.Subcategories)
		if err != nil {
			return stats, errors.Wrapf(err, "category %q", cj.Name)
		}
		stats.Subcategories += created

		for _, pj := range cj.Products {
			ok, err := s.product(ctx, id, subs, pj)
			if err != nil {
				return stats, errors.Wrapf(err, "product %q", pj.Title)
			}
			if ok {
				stats.Products++
			}
		}
	}

	for _, cj := range f.Coupons {
		in := coupon.Input{
			Code:         &cj.Code,
			DiscountType: &cj.DiscountType,
			Value:        &cj.Value,
			MinItems:     &cj.MinItems,
			ExpiresAt:    &cj.ExpiresAt,
		}
		switch _, err := s.coupons.Create(ctx, in); {
		case err == nil:
			stats.Coupons++
		case errors.Is(err, apperr.ErrConflict):
			s.lg.Debug("Coupon exists", zap.String("code", cj.Code))
		default:
			return stats, errors.Wrapf(err, "create coupon %q", cj.Code)
		}
	}
	return stats, nil
}

// subcategories returns the ids of names under categoryID by lower-cased
// name, creating the missing ones.
func (s *Seeder) subcategories(ctx context.Context, categoryID string, names []string) (map[string]string, int, error) {
	existing, err := s.categories.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list subcategories")
	}
	ids := make(map[string]string, len(existing))
	for _, sc := range existing {
		ids[strings.ToLower(sc.Name)] = sc.ID
	}
	created := 0
	for _, name := range names {
		if _, ok := ids[strings.ToLower(name)]; ok {
			continue
		}
		sc, err := s.categories.CreateSubcategory(ctx, categoryID, name)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "create subcategory %q", name)
		}
		ids[strings.ToLower(name)] = sc.ID
		created++
	}
	return ids, created, nil
}

// product creates pj unless the category already lists a product with the
// same title. It reports whether a product was created.
func (s *Seeder) product(ctx context.Context, categoryID string, subs map[string]string, pj productJSON) (bool, error) {
	page, err := s.products.List(ctx, product.ListParams{
		Page:       1,
		Limit:      product.MaxLimit,
		CategoryID: categoryID,
		Keyword:    pj.Title,
	})
	if err != nil {
		return false, errors.Wrap(err, "list products")
	}
	for _, p := range page.Items {
		if strings.EqualFold(p.Title, pj.Title) {
			return false, nil
		}
	}

	subIDs := make([]string, 0, len(pj.Subcategories))
	for _, name := range pj.Subcategories {
		id, ok := subs[strings.ToLower(name)]
		if !ok {
			return false, errors.Errorf("unknown subcategory %q", name)
		}
		subIDs = append(subIDs, id)
	}
	if _, err := s.products.Create(ctx, product.Input{
		Title:          &pj.Title,
		Description:    &pj.Description,
		Price:          &pj.Price,
		Quantity:       &pj.Quantity,
		CategoryID:     &categoryID,
		SubcategoryIDs: &subIDs,
	}); err != nil {
		return false, err
	}
	return true, nil
}
