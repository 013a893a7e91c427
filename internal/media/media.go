// Package media stores uploaded product and banner images on the local
// filesystem.
package media

import (
	"context"
	"image"
	_ "image/gif" // decoders for imaging.Decode
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/banner"
	"github.com/xenking/shop-api/internal/domain/product"
)

const (
	Width       = 2000
	Height      = 1333
	JPEGQuality = 90
)

// ErrInvalidImage is returned for uploads that are not decodable images.
var ErrInvalidImage = apperr.Validation("file is not a supported image")

var (
	_ product.ImageStore = (*Store)(nil)
	_ banner.ImageStore  = (*Store)(nil)
)

// Store resizes images to Width x Height, encodes them as JPEG and writes
// them under dir. Stored files are served from baseURL.
type Store struct {
	dir     string
	baseURL string
	newName func() string
}

// NewStore creates dir when missing and returns a Store writing into it.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Store{
		dir:     dir,
		baseURL: baseURL,
		newName: func() string { return "image-" + ulid.Make().String() + ".jpeg" },
	}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Save decodes r, crops it to fill the target size and stores the result.
// It returns the public URL of the file.
func (s *Store) Save(ctx context.Context, r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", ErrInvalidImage
		}
		return "", apperr.Validation("cannot decode image: " + err.Error())
	}
	resized := imaging.Fill(img, Width, Height, imaging.Center, imaging.Lanczos)

	name := s.newName()
	path := filepath.Join(s.dir, name)
	if err := imaging.Save(resized, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return "", errors.Wrap(err, "write image")
	}

	zctx.From(ctx).Debug("Stored image", zap.String("path", path))

	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return "", errors.Wrap(err, "build image url")
	}
	return u, nil
}
