package navigation

import (
	"net/url"
	"slices"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount formats n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// ProductCountLabel renders "1 product", "1,204 products".
func ProductCountLabel(n int) string {
	if n == 1 {
		return "1 product"
	}
	return printer.Sprintf("%d products", n)
}

// NavClass returns the class list of the full navigation element.
func NavClass(scrolled bool) string {
	classes := "navigation flex items-center justify-between px-12 py-4 shadow-none transition-shadow"
	if scrolled {
		classes = twmerge.Merge(classes, ScrolledClass+" shadow-md py-2")
	}
	return classes
}

func linkClass(base string, active, clickable bool) string {
	classes := base + " cursor-pointer opacity-100"
	if active {
		classes = twmerge.Merge(classes, "navigation-menu-active font-bold")
	}
	if !clickable {
		classes = twmerge.Merge(classes, "cursor-not-allowed opacity-50")
	}
	return classes
}

func basketClass(enabled bool) string {
	classes := "button-link navigation-menu-link basket-toggle cursor-pointer opacity-100"
	if !enabled {
		classes = twmerge.Merge(classes, "cursor-not-allowed opacity-40")
	}
	return classes
}

func avatarClass(authenticating bool) string {
	if authenticating {
		return twmerge.Merge("user-nav opacity-100", "user-nav-authenticating opacity-50")
	}
	return "user-nav opacity-100"
}

// basketEnabledOn reports whether the compact basket toggle is enabled on
// path. The compact layout gets the disabled set, not gate decisions.
func basketEnabledOn(disabledPaths []string, path string) bool {
	return !slices.Contains(disabledPaths, path)
}

// FollowHref is the htmx target a navigation link activates.
func FollowHref(to string) string {
	return FollowURL + "?to=" + url.QueryEscape(to)
}
