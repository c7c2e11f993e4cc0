package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/middleware"
)

func (a *App) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.Catalog.ListProducts(r.Context())
	if err != nil {
		a.backendError(w, r, err, "products")
		return
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filtered := products[:0]
		for _, p := range products {
			if strings.EqualFold(p.Category, category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, map[string]any{"items": toProductDTOs(products, locale)})
}

func (a *App) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "productId"))
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product id required")
		return
	}
	product, err := a.Catalog.Product(r.Context(), id)
	if err != nil {
		a.backendError(w, r, err, "product")
		return
	}
	a.json(w, http.StatusOK, toProductDTO(*product, middleware.LocaleFromContext(r.Context())))
}

// ListJobs proxies the backend job history.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.Catalog.ListJobs(r.Context())
	if err != nil {
		a.backendError(w, r, err, "jobs")
		return
	}
	items := make([]*jobDTO, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobDTO(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
