// Package navigation renders the storefront navigation bar from the
// presentation computed by the nav package.
package navigation

import (
	"github.com/DukeRupert/shopnav/internal/nav"
)

// Brand identifies the storefront in the navigation.
type Brand struct {
	Name    string // text wordmark, used as alt text and when LogoURL is empty
	LogoURL string // normalised logo from internal/brand
}

// Data is everything the navigation component renders from.
type Data struct {
	Presentation nav.Presentation
	Brand        Brand
}

// PageData describes the storefront page wrapping the navigation.
type PageData struct {
	Title     string
	Path      string
	StreamURL string // SSE endpoint pushing navigation updates
	Nav       Data
}

// Element IDs and SSE event names shared with the handlers and nav.js.
const (
	ShellID       = "nav-shell"
	NavigationID  = "navigation"
	SSEEventNav   = "nav"
	FollowURL     = "/nav/follow"
	ScrolledClass = "is-nav-scrolled"
)
