package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	// Quantity defaults to one unit.
	Quantity *int `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type couponCodeRequest struct {
	Code string `json:"code"`
}

type couponAppliedResponse struct {
	Message string       `json:"message"`
	Cart    cartResponse `json:"cart"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Carts.Get(r.Context(), caller(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(c))
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	c, err := h.svc.Carts.AddItem(r.Context(), caller(r).UserID, req.ProductID, qty)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCart(c))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Carts.UpdateItemQuantity(r.Context(), caller(r).UserID, chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(c))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Carts.RemoveItem(r.Context(), caller(r).UserID, chi.URLParam(r, "productId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(c))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Carts.Clear(r.Context(), caller(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(c))
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponCodeRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Carts.ApplyCoupon(r.Context(), caller(r).UserID, req.Code)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, couponAppliedResponse{
		Message: "Coupon applied successfully",
		Cart:    toCart(c),
	})
}
