package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/order"
)

type checkoutRequest struct {
	ShippingAddress addressBody         `json:"shippingAddress"`
	PaymentMethod   order.PaymentMethod `json:"paymentMethod"`
}

type sessionRequest struct {
	ShippingAddress addressBody `json:"shippingAddress"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// checkout converts the cart named by the path into an order.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.svc.Orders.Checkout(r.Context(), caller(r).UserID, chi.URLParam(r, "id"), order.CheckoutRequest{
		ShippingAddress: req.ShippingAddress.domain(),
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeOptional(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	s, err := h.svc.Orders.CreateCheckoutSession(r.Context(), caller(r), req.ShippingAddress.domain())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: s.ID, URL: s.URL, ExpiresAt: s.ExpiresAt})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.Orders.List(r.Context(), caller(r), page, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(p.Items, p.Total, p.Page, p.Limit, toOrder))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.MarkDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
