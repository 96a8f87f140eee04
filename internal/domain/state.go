// Package domain contains core storefront types shared across packages.
//
// This file defines ApplicationState, the snapshot of a visitor's storefront
// state that the navigation shell reads from. The shell never writes to it;
// writes go through store.Store.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApplicationState is the visitor's storefront state.
type ApplicationState struct {
	Filter      Filter
	Products    []Product
	BasketLines []BasketLine
	Profile     *Profile // nil for anonymous visitors
	Status      AppStatus
}

// AppStatus carries in-flight flags owned by other collaborators.
type AppStatus struct {
	Loading        bool // Catalogue request in flight
	Authenticating bool // Sign-in / sign-up request in flight
}

// Filter mirrors the storefront's product filter.
type Filter struct {
	Keyword  string
	Brand    string
	MinPrice int // cents, 0 = unbounded
	MaxPrice int // cents, 0 = unbounded
	SortBy   string
	Recent   []string // recent search keywords, newest first
}

// Sort orders accepted by Filter.SortBy.
const (
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// IsEmpty reports whether no filter criteria are set.
// Recent keywords are history, not criteria.
func (f Filter) IsEmpty() bool {
	return f.Keyword == "" && f.Brand == "" && f.MinPrice == 0 && f.MaxPrice == 0 && f.SortBy == ""
}

// Product is a catalogue entry.
type Product struct {
	ID          uuid.UUID
	Name        string
	Brand       string
	Price       int // cents
	MaxQuantity int
	Image       string
	Keywords    []string
}

// Matches reports whether the product satisfies the filter criteria.
func (p Product) Matches(f Filter) bool {
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.Keyword == "" {
		return true
	}
	kw := strings.ToLower(f.Keyword)
	if strings.Contains(strings.ToLower(p.Name), kw) {
		return true
	}
	for _, k := range p.Keywords {
		if strings.Contains(strings.ToLower(k), kw) {
			return true
		}
	}
	return false
}

// BasketLine is one product line in the visitor's basket.
type BasketLine struct {
	ProductID     uuid.UUID
	Name          string
	Price         int // cents
	Quantity      int
	SelectedSize  string
	SelectedColor string
}

// Profile is the authenticated shopper.
type Profile struct {
	ID         uuid.UUID
	FullName   string
	Email      string
	Avatar     string // URL, empty when the shopper has not uploaded one
	DateJoined time.Time
}

// Initials returns up to two uppercase initials for the avatar fallback.
func (p *Profile) Initials() string {
	if p == nil {
		return ""
	}
	var out []rune
	for _, part := range strings.Fields(p.FullName) {
		for _, r := range part {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 && p.Email != "" {
		out = append(out, []rune(p.Email)[0])
	}
	return strings.ToUpper(string(out))
}

// Clone returns a deep copy so snapshots never share backing arrays with
// the store that produced them.
func (s ApplicationState) Clone() ApplicationState {
	out := s
	out.Filter.Recent = append([]string(nil), s.Filter.Recent...)
	if s.Products != nil {
		out.Products = make([]Product, len(s.Products))
		for i, p := range s.Products {
			p.Keywords = append([]string(nil), p.Keywords...)
			out.Products[i] = p
		}
	}
	if s.BasketLines != nil {
		out.BasketLines = append([]BasketLine(nil), s.BasketLines...)
	}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	return out
}
