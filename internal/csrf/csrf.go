// Package csrf protects the navigation's state-changing endpoints using the
// double-submit cookie pattern.
//
// Safe requests receive a random token in a cookie readable by nav.js. Unsafe
// requests must echo it in the X-CSRF-Token header (or the csrf_token form
// field). A cross-site page can make the browser send the cookie but cannot
// read it, so it cannot produce the matching header.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "shopnav_csrf"

	// HeaderName carries the token on requests sent by nav.js.
	HeaderName = "X-CSRF-Token"

	// FormFieldName is the fallback for plain form posts.
	FormFieldName = "csrf_token"

	// TokenLength is the number of random bytes for the token (32 bytes = 256 bits).
	TokenLength = 32

	// CookieMaxAge matches the visitor cookie so a long-lived page keeps
	// a valid token.
	CookieMaxAge = 60 * 60 * 24 * 30
)

// GenerateToken returns 32 random bytes, base64 URL-encoded.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the submitted token against the cookie. The header
// is preferred; the form field is read only for form-encoded bodies.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// SetCookie sets the token cookie. It is not HttpOnly: nav.js copies it into
// the request header.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// EnsureToken returns the request's token, issuing a new cookie when none
// is present.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	SetCookie(w, token, isSecure)
	return token, nil
}

// =============================================================================
// Middleware
// =============================================================================

// Middleware issues tokens on safe requests and rejects unsafe requests
// without a matching token.
type Middleware struct {
	isSecure bool
	logger   *slog.Logger
}

// NewMiddleware creates a CSRF middleware.
func NewMiddleware(isSecure bool, logger *slog.Logger) *Middleware {
	return &Middleware{isSecure: isSecure, logger: logger}
}

// Handler wraps next with token issuance and validation.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if _, err := EnsureToken(w, r, m.isSecure); err != nil {
				m.logger.Error("failed to issue csrf token", "error", err)
			}
		default:
			if !ValidateRequest(r) {
				m.logger.Warn("csrf validation failed",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
