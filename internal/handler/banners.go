package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

// bannerForm holds the multipart fields of a banner write: an optional
// title value and an optional image file.
type bannerForm struct {
	title *string
	image io.ReadCloser
}

func (h *Handler) parseBannerForm(w http.ResponseWriter, r *http.Request) (*bannerForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		return nil, apperr.Validation("invalid multipart upload")
	}
	var f bannerForm
	if v, ok := r.MultipartForm.Value["title"]; ok && len(v) > 0 {
		f.title = &v[0]
	}
	if fhs := r.MultipartForm.File["image"]; len(fhs) > 0 {
		part, err := openPart(fhs[0])
		if err != nil {
			_ = r.MultipartForm.RemoveAll()
			return nil, err
		}
		f.image = part
	}
	return &f, nil
}

func (f *bannerForm) close() {
	if f.image != nil {
		_ = f.image.Close()
	}
}

// reader returns the image as an io.Reader that is nil when no file was sent.
func (f *bannerForm) reader() io.Reader {
	if f.image == nil {
		return nil
	}
	return f.image
}

func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.svc.Banners.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(banners, toBanner))
}

func (h *Handler) getBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Banners.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBanner(b))
}

func (h *Handler) createBanner(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseBannerForm(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	defer f.close()

	b, err := h.svc.Banners.Create(r.Context(), deref(f.title), f.reader())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBanner(b))
}

func (h *Handler) updateBanner(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseBannerForm(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	defer f.close()

	b, err := h.svc.Banners.Update(r.Context(), chi.URLParam(r, "id"), f.title, f.reader())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBanner(b))
}

func (h *Handler) deleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Banners.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
