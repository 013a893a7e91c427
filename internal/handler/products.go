package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/apperr"
	"github.com/xenking/shop-api/internal/domain/product"
)

type productRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	Quantity       *int             `json:"quantity"`
	CategoryID     *string          `json:"categoryId"`
	SubcategoryIDs *[]string        `json:"subcategoryIds"`
}

func (p productRequest) input() product.Input {
	return product.Input{
		Title:          p.Title,
		Description:    p.Description,
		Price:          p.Price,
		Quantity:       p.Quantity,
		CategoryID:     p.CategoryID,
		SubcategoryIDs: p.SubcategoryIDs,
	}
}

// listProducts serves the product listing. A non-empty sort pins the order,
// which is how the top-rated, top-sold and new-arrivals aliases work.
func (h *Handler) listProducts(sort product.Sort) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := productParams(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		if sort != "" {
			p.Sort = sort
		}
		page, err := h.svc.Products.List(r.Context(), p)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newPage(page.Items, page.Total, page.Page, page.Limit, toProduct))
	}
}

func productParams(r *http.Request) (product.ListParams, error) {
	var (
		p   product.ListParams
		err error
	)
	if p.Page, p.Limit, err = pagination(r); err != nil {
		return p, err
	}
	if p.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return p, err
	}
	q := r.URL.Query()
	p.Sort = product.Sort(q.Get("sort"))
	p.Keyword = q.Get("keyword")
	p.CategoryID = q.Get("category")
	p.SubcategoryID = q.Get("subcategory")
	return p, nil
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.Products.Create(r.Context(), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProduct(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.Products.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadProductImages accepts multipart fields imageCover (one file) and
// images (up to product.MaxImages files).
func (h *Handler) uploadProductImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		fail(w, r, apperr.Validation("invalid multipart upload"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var (
		cover  io.Reader
		images []io.Reader
	)
	files := r.MultipartForm.File
	if fhs := files["imageCover"]; len(fhs) > 0 {
		f, err := openPart(fhs[0])
		if err != nil {
			fail(w, r, err)
			return
		}
		defer f.Close()
		cover = f
	}
	if len(files["images"]) > product.MaxImages {
		fail(w, r, apperr.Validation("at most 5 images are allowed"))
		return
	}
	for _, fh := range files["images"] {
		f, err := openPart(fh)
		if err != nil {
			fail(w, r, err)
			return
		}
		defer f.Close()
		images = append(images, f)
	}

	p, err := h.svc.Products.SetImages(r.Context(), chi.URLParam(r, "id"), cover, images)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func openPart(fh *multipart.FileHeader) (multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", fh.Filename)
	}
	return f, nil
}
