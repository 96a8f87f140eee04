package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero value", Filter{}, true},
		{"recent only", Filter{Recent: []string{"shoes"}}, true},
		{"keyword", Filter{Keyword: "hat"}, false},
		{"brand", Filter{Brand: "Acme"}, false},
		{"min price", Filter{MinPrice: 100}, false},
		{"max price", Filter{MaxPrice: 100}, false},
		{"sort", Filter{SortBy: SortPriceAsc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.IsEmpty())
		})
	}
}

func TestProduct_Matches(t *testing.T) {
	p := Product{Name: "Burgundy Beanie", Brand: "Salt Maalat", Price: 2500, Keywords: []string{"winter", "wool"}}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"name keyword case-insensitive", Filter{Keyword: "beanie"}, true},
		{"keyword match", Filter{Keyword: "WOOL"}, true},
		{"keyword miss", Filter{Keyword: "denim"}, false},
		{"brand match", Filter{Brand: "salt maalat"}, true},
		{"brand miss", Filter{Brand: "Black Kibal"}, false},
		{"below min", Filter{MinPrice: 3000}, false},
		{"above max", Filter{MaxPrice: 2000}, false},
		{"inside range", Filter{MinPrice: 2000, MaxPrice: 3000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Matches(tt.filter))
		})
	}
}

func TestProfile_Initials(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    string
	}{
		{"nil profile", nil, ""},
		{"two names", &Profile{FullName: "ada lovelace"}, "AL"},
		{"three names", &Profile{FullName: "Grace Brewster Hopper"}, "GB"},
		{"single name", &Profile{FullName: "Cher"}, "C"},
		{"email fallback", &Profile{Email: "zed@example.com"}, "Z"},
		{"nothing", &Profile{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.Initials())
		})
	}
}

func TestApplicationState_Clone(t *testing.T) {
	orig := ApplicationState{
		Filter:      Filter{Recent: []string{"hat"}},
		Products:    []Product{{ID: uuid.New(), Name: "Hat", Keywords: []string{"felt"}}},
		BasketLines: []BasketLine{{Name: "Hat", Quantity: 1}},
		Profile:     &Profile{FullName: "Ada Lovelace"},
	}

	clone := orig.Clone()
	require.Equal(t, orig, clone)

	clone.Filter.Recent[0] = "cap"
	clone.Products[0].Keywords[0] = "wool"
	clone.BasketLines[0].Quantity = 3
	clone.Profile.FullName = "Someone Else"

	assert.Equal(t, "hat", orig.Filter.Recent[0])
	assert.Equal(t, "felt", orig.Products[0].Keywords[0])
	assert.Equal(t, 1, orig.BasketLines[0].Quantity)
	assert.Equal(t, "Ada Lovelace", orig.Profile.FullName)
}

func TestErrorHelpers(t *testing.T) {
	err := Invalid("viewport.report", "width must be positive")
	wrapped := errors.Join(errors.New("context"), err)

	assert.Equal(t, EINVALID, ErrorCode(wrapped))
	assert.Equal(t, "width must be positive", ErrorMessage(wrapped))
	assert.Equal(t, "viewport.report", ErrorOp(wrapped))

	internal := Internal(errors.New("boom"), "catalog.load", "load failed")
	assert.Equal(t, EINTERNAL, ErrorCode(internal))
	assert.NotContains(t, ErrorMessage(internal), "load failed")
	assert.ErrorContains(t, internal, "catalog.load")

	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))

	var ve *ValidationError
	ve = AddFieldError(ve, "viewport.report", "width", "required")
	ve = AddFieldError(ve, "viewport.report", "scroll_y", "must be a number")
	assert.Len(t, ve.Fields, 2)
	assert.EqualError(t, ve, "viewport.report: validation failed")
}
