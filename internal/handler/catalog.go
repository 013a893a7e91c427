package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/shop-api/internal/domain/apperr"
)

type categoryRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type subcategoryRequest struct {
	Name       *string `json:"name"`
	CategoryID *string `json:"categoryId"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(cats, toCategory))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Categories.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(c))
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Categories.CreateCategory(r.Context(), deref(req.Name), deref(req.Image))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategory(c))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Categories.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Name, req.Image)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(c))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Categories.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listSubcategories serves both /subcategories and the nested
// /categories/{id}/subcategories, where the parent comes from the path.
func (h *Handler) listSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "id")
	if categoryID == "" {
		categoryID = r.URL.Query().Get("category")
	}
	subs, err := h.svc.Categories.ListSubcategories(r.Context(), categoryID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(subs, toSubcategory))
}

func (h *Handler) getSubcategory(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Categories.GetSubcategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubcategory(s))
}

func (h *Handler) createSubcategory(w http.ResponseWriter, r *http.Request) {
	var req subcategoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	categoryID := chi.URLParam(r, "id")
	if categoryID == "" {
		categoryID = deref(req.CategoryID)
	}
	if categoryID == "" {
		fail(w, r, apperr.Validation("categoryId is required"))
		return
	}
	s, err := h.svc.Categories.CreateSubcategory(r.Context(), categoryID, deref(req.Name))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubcategory(s))
}

func (h *Handler) updateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req subcategoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	s, err := h.svc.Categories.UpdateSubcategory(r.Context(), chi.URLParam(r, "id"), req.Name, req.CategoryID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubcategory(s))
}

func (h *Handler) deleteSubcategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Categories.DeleteSubcategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
