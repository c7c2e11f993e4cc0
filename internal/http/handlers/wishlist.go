package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/wishlist"
)

type productRef struct {
	ProductID string `json:"productId"`
}

func (a *App) GetWishlist(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, toWishlistDTO(s.Wishlist.State(), s.Locale))
}

func (a *App) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	a.addProduct(w, r, false)
}

func (a *App) AddToCompare(w http.ResponseWriter, r *http.Request) {
	a.addProduct(w, r, true)
}

func (a *App) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	st := s.Wishlist.Dispatch(wishlist.RemoveFromWishlist{ProductID: chi.URLParam(r, "productId")})
	a.json(w, http.StatusOK, toWishlistDTO(st, s.Locale))
}

func (a *App) RemoveFromCompare(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	st := s.Wishlist.Dispatch(wishlist.RemoveFromCompare{ProductID: chi.URLParam(r, "productId")})
	a.json(w, http.StatusOK, toWishlistDTO(st, s.Locale))
}

func (a *App) ClearCompare(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	st := s.Wishlist.Dispatch(wishlist.ClearCompare{})
	a.json(w, http.StatusOK, toWishlistDTO(st, s.Locale))
}

// addProduct resolves the referenced product from the catalog before
// dispatching, so lists always hold full product records.
func (a *App) addProduct(w http.ResponseWriter, r *http.Request, compare bool) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var ref productRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil || strings.TrimSpace(ref.ProductID) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "productId required")
		return
	}
	product, err := a.Catalog.Product(r.Context(), strings.TrimSpace(ref.ProductID))
	if err != nil {
		a.backendError(w, r, err, "product")
		return
	}
	var action wishlist.Action = wishlist.AddToWishlist{Product: *product}
	if compare {
		action = wishlist.AddToCompare{Product: *product}
	}
	a.json(w, http.StatusOK, toWishlistDTO(s.Wishlist.Dispatch(action), s.Locale))
}
