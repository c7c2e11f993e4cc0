// Package wishlist keeps the per-visitor wishlist and compare selections as
// an explicit state container driven by a pure transition function.
package wishlist

import "github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"

// MaxCompare is the largest number of products that can be compared.
const MaxCompare = 3

// State is an immutable snapshot. Reduce never mutates its input.
type State struct {
	Items   []domain.Product `json:"items"`
	Compare []domain.Product `json:"compare"`
}

// Action is one of the closed set of transitions below.
type Action interface {
	isAction()
}

type (
	AddToWishlist      struct{ Product domain.Product }
	RemoveFromWishlist struct{ ProductID string }
	AddToCompare       struct{ Product domain.Product }
	RemoveFromCompare  struct{ ProductID string }
	ClearCompare       struct{}
)

func (AddToWishlist) isAction()      {}
func (RemoveFromWishlist) isAction() {}
func (AddToCompare) isAction()       {}
func (RemoveFromCompare) isAction()  {}
func (ClearCompare) isAction()       {}

// Reduce returns the state after applying action.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case AddToWishlist:
		if contains(state.Items, a.Product.ID) {
			return state
		}
		state.Items = appendCopy(state.Items, a.Product)
	case RemoveFromWishlist:
		state.Items = without(state.Items, a.ProductID)
	case AddToCompare:
		if len(state.Compare) >= MaxCompare || contains(state.Compare, a.Product.ID) {
			return state
		}
		state.Compare = appendCopy(state.Compare, a.Product)
	case RemoveFromCompare:
		state.Compare = without(state.Compare, a.ProductID)
	case ClearCompare:
		state.Compare = nil
	}
	return state
}

// Liked reports whether productID is on the wishlist.
func (s State) Liked(productID string) bool { return contains(s.Items, productID) }

// Comparing reports whether productID is in the compare list.
func (s State) Comparing(productID string) bool { return contains(s.Compare, productID) }

// CompareFull reports whether no more products can be compared.
func (s State) CompareFull() bool { return len(s.Compare) >= MaxCompare }

func contains(list []domain.Product, id string) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}

func appendCopy(list []domain.Product, p domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(list)+1)
	out = append(out, list...)
	return append(out, p)
}

func without(list []domain.Product, id string) []domain.Product {
	out := make([]domain.Product, 0, len(list))
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
