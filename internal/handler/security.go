package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/auth"
)

const apiKeyHeader = "X-API-Key"

// authenticate resolves the caller from an API key, a bearer token or the
// token cookie, in that order, and stores the identity in the request
// context. Requests without valid credentials are answered with 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var (
			id  auth.Identity
			err error
		)
		if key := r.Header.Get(apiKeyHeader); key != "" && h.svc.APIKeys != nil {
			id, err = h.svc.APIKeys.Verify(ctx, key)
		} else if raw := h.token(r); raw != "" {
			id, err = h.svc.Users.Authenticate(ctx, raw)
		} else {
			err = auth.ErrMissingCredentials
		}
		if err != nil {
			fail(w, r, err)
			return
		}

		ctx = auth.WithIdentity(ctx, id)
		ctx = zctx.Base(ctx, zctx.From(ctx).With(zap.String("user_id", id.UserID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) token(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		scheme, raw, ok := strings.Cut(v, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(raw)
		}
		return ""
	}
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireAction rejects callers whose identity may not perform action. It must be
// mounted after authenticate.
func requireAction(action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				fail(w, r, auth.ErrMissingCredentials)
				return
			}
			if !id.Can(action) {
				fail(w, r, auth.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// caller returns the identity stored by authenticate.
func caller(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, tok *auth.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
