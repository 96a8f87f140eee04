package middleware

import (
	"net/http"
	"strings"
)

// viewportHints are the client hints the navigation uses to pick its
// layout on the very first render, before the browser has reported a width.
const viewportHints = "Sec-CH-Viewport-Width, Viewport-Width"

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // Whether to enable HTTPS-specific headers (true in production)
	csp      string
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// Set isSecure to true in production to enable HSTS. imageOrigins are added
// to img-src, e.g. the R2 public domain serving the logo.
func NewSecurityHeadersMiddleware(isSecure bool, imageOrigins ...string) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{
		isSecure: isSecure,
		csp:      buildCSP(imageOrigins),
	}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if m.isSecure {
			// max-age=31536000 = 1 year
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		h.Set("Content-Security-Policy", m.csp)
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		h.Set("Accept-CH", viewportHints)
		h.Add("Vary", viewportHints)

		next.ServeHTTP(w, r)
	})
}

// buildCSP constructs the Content-Security-Policy header value for htmx and
// its SSE extension loaded from unpkg.
func buildCSP(imageOrigins []string) string {
	img := "'self' data:"
	if len(imageOrigins) > 0 {
		img += " " + strings.Join(imageOrigins, " ")
	}
	return "default-src 'self'; " +
		"script-src 'self' https://unpkg.com; " +
		// htmx injects indicator styles inline
		"style-src 'self' 'unsafe-inline'; " +
		"img-src " + img + "; " +
		"font-src 'self'; " +
		// htmx requests and the navigation event stream
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
}
