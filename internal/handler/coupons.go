package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-api/internal/domain/coupon"
)

type couponRequest struct {
	Code         *string              `json:"code"`
	DiscountType *coupon.DiscountType `json:"discountType"`
	Value        *decimal.Decimal     `json:"value"`
	MinItems     *int                 `json:"minItems"`
	ExpiresAt    *time.Time           `json:"expiresAt"`
}

func (c couponRequest) input() coupon.Input {
	return coupon.Input{
		Code:         c.Code,
		DiscountType: c.DiscountType,
		Value:        c.Value,
		MinItems:     c.MinItems,
		ExpiresAt:    c.ExpiresAt,
	}
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.Coupons.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(coupons, toCoupon))
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCoupon(c))
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Coupons.Create(r.Context(), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCoupon(c))
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Coupons.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCoupon(c))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
