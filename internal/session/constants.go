// Package session tracks per-visitor navigation state: the visitor's store,
// their reported viewport, and the cookies that identify them.
package session

const (
	// CookieName is the name of the cookie that stores the visitor ID.
	CookieName = "shopnav_visitor"

	// ProfileCookieName carries the signed-in profile ID. It is issued by the
	// authentication service; this server only reads it.
	ProfileCookieName = "shopnav_profile"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// CookieMaxAge sets the visitor cookie expiration (30 days).
	CookieMaxAge = 30 * 24 * 60 * 60
)
