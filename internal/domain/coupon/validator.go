package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks a coupon code and returns the coupon when it can be used.
type Validator interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// RepoValidator implements Validator on top of a Finder.
type RepoValidator struct {
	repo Finder
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Finder.
func NewRepoValidator(repo Finder) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon for code and rejects it when expired.
// Redemptions are not counted.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if c.Expired(v.now()) {
		return nil, ErrCouponExpired
	}
	return c, nil
}
