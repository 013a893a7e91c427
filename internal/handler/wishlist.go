package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/product"
)

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

func writeWishlist(w http.ResponseWriter, items []product.Product) {
	writeJSON(w, http.StatusOK, newList(items, toProduct))
}

func (h *Handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Wishlist.List(r.Context(), caller(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeWishlist(w, items)
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	items, err := h.svc.Wishlist.Add(r.Context(), caller(r).UserID, req.ProductID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeWishlist(w, items)
}

func (h *Handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Wishlist.Remove(r.Context(), caller(r).UserID, chi.URLParam(r, "productId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeWishlist(w, items)
}

func (h *Handler) clearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Wishlist.Clear(r.Context(), caller(r).UserID); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
