//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestProductCatalog(t *testing.T) {
	title := fmt.Sprintf("Skillet %d", time.Now().UnixNano())
	created := createProduct(t, title, "34.50", 12)

	t.Run("get", func(t *testing.T) {
		resp := doGet(t, "/api/products/"+created.ID)
		expectStatus(t, resp, http.StatusOK)

		p := decodeJSON[productResponse](t, resp)
		if p.Title != title {
			t.Errorf("title: got %q, want %q", p.Title, title)
		}
		if p.Price != 34.5 {
			t.Errorf("price: got %v, want 34.5", p.Price)
		}
		if p.Quantity != 12 || p.Sold != 0 {
			t.Errorf("stock: got quantity %d sold %d, want 12 and 0", p.Quantity, p.Sold)
		}
	})

	t.Run("keyword search", func(t *testing.T) {
		resp := doGet(t, "/api/products?keyword=Skillet&limit=100")
		expectStatus(t, resp, http.StatusOK)

		list := decodeJSON[productList](t, resp)
		found := false
		for _, p := range list.Data {
			found = found || p.ID == created.ID
		}
		if !found {
			t.Errorf("product %s missing from keyword results", created.ID)
		}
		if list.Results != len(list.Data) {
			t.Errorf("results: got %d, want %d", list.Results, len(list.Data))
		}
	})

	t.Run("price filter excludes", func(t *testing.T) {
		resp := doGet(t, "/api/products?minPrice=1000&limit=100")
		expectStatus(t, resp, http.StatusOK)

		for _, p := range decodeJSON[productList](t, resp).Data {
			if p.ID == created.ID {
				t.Fatalf("product priced 34.50 returned for minPrice=1000")
			}
		}
	})

	t.Run("not found", func(t *testing.T) {
		resp := doGet(t, "/api/products/does-not-exist")
		expectStatus(t, resp, http.StatusNotFound)

		if e := decodeJSON[errorResponse](t, resp); e.Error != "product not found" {
			t.Errorf("error: got %q, want %q", e.Error, "product not found")
		}
	})

	t.Run("customers cannot edit", func(t *testing.T) {
		resp := do(t, http.MethodPatch, "/api/products/"+created.ID, registerCustomer(t), map[string]any{"price": "1"})
		expectStatus(t, resp, http.StatusForbidden)
	})
}
