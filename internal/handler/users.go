package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/auth"
	"github.com/xenking/shop-api/internal/domain/user"
)

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
}

func (p profileRequest) input(allowRole bool) user.ProfileInput {
	in := user.ProfileInput{Username: p.Username, Email: p.Email, Phone: p.Phone}
	if allowRole && p.Role != nil {
		role := auth.Role(*p.Role)
		in.Role = &role
	}
	return in
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) issue(w http.ResponseWriter, status int, u *user.User, tok *auth.Token) {
	h.setTokenCookie(w, tok)
	writeJSON(w, status, authResponse{
		tokenResponse: tokenResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt},
		User:          toUser(u),
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	u, tok, err := h.svc.Users.Register(r.Context(), user.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	h.issue(w, http.StatusCreated, u, tok)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	u, tok, err := h.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.issue(w, http.StatusOK, u, tok)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Users.Logout(r.Context(), caller(r)); err != nil {
		fail(w, r, err)
		return
	}
	h.clearTokenCookie(w)
	writeJSON(w, http.StatusOK, message{Message: "Logged out"})
}

func (h *Handler) getMyProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Users.Get(r.Context(), caller(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h *Handler) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.svc.Users.UpdateProfile(r.Context(), caller(r).UserID, req.input(false))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h *Handler) deleteMyProfile(w http.ResponseWriter, r *http.Request) {
	id := caller(r)
	if err := h.svc.Users.Delete(r.Context(), id.UserID); err != nil {
		fail(w, r, err)
		return
	}
	h.clearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changeMyPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	tok, err := h.svc.Users.ChangePassword(r.Context(), caller(r).UserID,
		req.CurrentPassword, req.Password, req.ConfirmPassword)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.setTokenCookie(w, tok)
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	users, total, err := h.svc.Users.List(r.Context(), page, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(users, total, page, limit, toUser))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.svc.Users.Update(r.Context(), chi.URLParam(r, "id"), req.input(true))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
