// Package middleware contains HTTP middleware for the storefront navigation
// server.
//
// Middleware follows the standard Go pattern of wrapping http.Handler and is
// composed with Stack.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/shopnav/internal/auth"
	"github.com/DukeRupert/shopnav/internal/metrics"
	"github.com/DukeRupert/shopnav/internal/session"
	"github.com/DukeRupert/shopnav/internal/viewport"
)

// Hydrator loads a visitor's application state into their session store.
type Hydrator interface {
	HydrateSession(ctx context.Context, s *session.Session, profileID uuid.UUID) error
}

// VisitorMiddleware resolves the visitor session for every request.
type VisitorMiddleware struct {
	registry *session.Registry
	hydrator Hydrator
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewVisitorMiddleware creates a VisitorMiddleware. hydrator may be nil, in
// which case sessions start with empty state.
func NewVisitorMiddleware(registry *session.Registry, hydrator Hydrator, logger *slog.Logger, isSecure bool) *VisitorMiddleware {
	return &VisitorMiddleware{
		registry: registry,
		hydrator: hydrator,
		logger:   logger,
		isSecure: isSecure,
	}
}

// Handler loads or creates the visitor's session and stores it, together
// with the signed-in profile ID, in the request context.
//
// Flow:
//
//	Request -> Handler -> next
//	           |
//	           +-> Read visitor cookie (issue a new one if missing/invalid)
//	           +-> Read profile cookie (absent = anonymous)
//	           +-> Get or create the session; seed width from client hints
//	           +-> Hydrate when new or the profile changed (failures back off)
func (m *VisitorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID, ok := readUUIDCookie(r, session.CookieName)
		if !ok {
			visitorID = uuid.New()
			SetVisitorCookie(w, visitorID, m.isSecure)
		}

		ctx := r.Context()
		profileID, _ := readUUIDCookie(r, session.ProfileCookieName)
		if profileID != uuid.Nil {
			ctx = auth.SetProfileID(ctx, profileID)
		}

		sess, created := m.registry.GetOrCreate(visitorID)
		if created {
			metrics.SessionsActive.Inc()
			if width := viewport.WidthFromRequest(r); width > 0 {
				sess.Env.Resize(width)
			}
			m.logger.Debug("visitor session created", "visitor_id", visitorID)
		}

		if m.hydrator != nil && sess.BeginHydration(profileID, time.Now()) {
			err := m.hydrator.HydrateSession(ctx, sess, profileID)
			metrics.HydrationFinished(err)
			if err != nil {
				// The navigation still renders from whatever state is present.
				m.logger.Warn("failed to hydrate session",
					"visitor_id", visitorID,
					"error", err,
				)
			} else {
				sess.MarkHydrated(profileID)
			}
		}

		ctx = session.WithSession(ctx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// readUUIDCookie parses the named cookie as a UUID.
func readUUIDCookie(r *http.Request, name string) (uuid.UUID, bool) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetVisitorCookie sets the visitor cookie on the response.
//
// Cookie Settings:
//   - HttpOnly: the ID is never needed by scripts
//   - SameSite Lax: sent on top-level navigation
//   - MaxAge: 30 days
func SetVisitorCookie(w http.ResponseWriter, id uuid.UUID, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id.String(),
		Path:     session.CookiePath,
		MaxAge:   session.CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// isAPIRequest determines if the request expects a JSON response.
//
// Checks:
// 1. HX-Request header is NOT present (htmx wants HTML)
// 2. Accept header contains application/json
// 3. Content-Type is application/json
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw.Handler, visitorMw.Handler)
//	mux.Handle("GET /nav", stack(navHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
