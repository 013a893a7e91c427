package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/review"
)

type reviewRequest struct {
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
	Rating  *int    `json:"rating"`
}

func (rr reviewRequest) input() review.Input {
	return review.Input{Title: rr.Title, Comment: rr.Comment, Rating: rr.Rating}
}

// listReviews serves /reviews and the nested /products/{id}/reviews.
func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	productID := chi.URLParam(r, "id")
	if productID == "" {
		productID = r.URL.Query().Get("product")
	}
	reviews, total, err := h.svc.Reviews.List(r.Context(), productID, page, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(reviews, total, page, limit, toReview))
}

func (h *Handler) getReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.svc.Reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReview(rv))
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	rv, err := h.svc.Reviews.Create(r.Context(), caller(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReview(rv))
}

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	rv, err := h.svc.Reviews.Update(r.Context(), caller(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReview(rv))
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reviews.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
