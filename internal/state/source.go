// Package state loads the storefront data a visitor's ApplicationState is
// built from and writes it into their store.
package state

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/DukeRupert/shopnav/internal/domain"
)

// Source reads catalogue, basket and profile data.
//
// Implementations:
//   - MemorySource: YAML-seeded, for development and tests
//   - repository.Postgres: production database
type Source interface {
	// Products returns the products matching filter, ordered by filter.SortBy.
	Products(ctx context.Context, filter domain.Filter) ([]domain.Product, error)

	// Basket returns the visitor's basket lines in insertion order.
	Basket(ctx context.Context, visitorID uuid.UUID) ([]domain.BasketLine, error)

	// Profile returns the profile with the given ID, or a domain.ENOTFOUND error.
	Profile(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error)
}

// SortProducts orders products in place according to sortBy. Unknown orders
// leave the slice untouched.
func SortProducts(products []domain.Product, sortBy string) {
	var less func(a, b domain.Product) bool
	switch sortBy {
	case domain.SortNameAsc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case domain.SortNameDesc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case domain.SortPriceAsc:
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case domain.SortPriceDesc:
		less = func(a, b domain.Product) bool { return a.Price > b.Price }
	default:
		return
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}
