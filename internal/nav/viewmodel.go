package nav

import (
	"reflect"

	"github.com/DukeRupert/shopnav/internal/domain"
)

// ViewModel is the navigation's flat projection of ApplicationState.
// A new value is produced for every render; it is never mutated afterwards.
type ViewModel struct {
	Filter           domain.Filter
	Products         []domain.Product
	BasketCount      int
	Profile          *domain.Profile
	IsLoading        bool
	IsAuthenticating bool
	ProductCount     int
}

// Select projects state into a ViewModel. Counts are always taken from the
// source slices.
func Select(state domain.ApplicationState) ViewModel {
	return ViewModel{
		Filter:           state.Filter,
		Products:         state.Products,
		BasketCount:      len(state.BasketLines),
		Profile:          state.Profile,
		IsLoading:        state.Status.Loading,
		IsAuthenticating: state.Status.Authenticating,
		ProductCount:     len(state.Products),
	}
}

// IsAuthenticated reports whether a profile is present.
func (vm ViewModel) IsAuthenticated() bool {
	return vm.Profile != nil
}

// Equal reports field-wise equality, the comparison a renderer uses to skip
// re-rendering an unchanged navigation.
func (vm ViewModel) Equal(other ViewModel) bool {
	return reflect.DeepEqual(vm, other)
}
