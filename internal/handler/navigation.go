// Package handler contains the HTTP handlers of the storefront navigation
// server.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DukeRupert/shopnav/internal/auth"
	"github.com/DukeRupert/shopnav/internal/domain"
	"github.com/DukeRupert/shopnav/internal/metrics"
	"github.com/DukeRupert/shopnav/internal/nav"
	"github.com/DukeRupert/shopnav/internal/session"
	"github.com/DukeRupert/shopnav/internal/store"
	"github.com/DukeRupert/shopnav/internal/templ/components/navigation"
	"github.com/DukeRupert/shopnav/internal/viewport"
)

// defaultKeepAlive is how often an idle event stream is pinged. It also
// refreshes the session's TTL so an open page keeps its session.
const defaultKeepAlive = 25 * time.Second

// ProductRefresher reloads the product list after a search.
type ProductRefresher interface {
	RefreshProducts(ctx context.Context, st *store.Store, filter domain.Filter) error
}

// NavigationConfig configures a NavigationHandler.
type NavigationConfig struct {
	Registry          *session.Registry
	Refresher         ProductRefresher // optional
	Brand             navigation.Brand
	ScrollThresholdPx int
	WidthBreakpointPx int
	KeepAlive         time.Duration
	Logger            *slog.Logger
}

// NavigationHandler serves the navigation shell: the page hosting it, its
// partial and event stream, and the endpoints the browser reports to.
type NavigationHandler struct {
	registry  *session.Registry
	refresher ProductRefresher
	brand     navigation.Brand
	shellOpts nav.Options
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewNavigationHandler creates a NavigationHandler.
func NewNavigationHandler(cfg NavigationConfig) *NavigationHandler {
	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &NavigationHandler{
		registry:  cfg.Registry,
		refresher: cfg.Refresher,
		brand:     cfg.Brand,
		shellOpts: nav.Options{
			ScrollThresholdPx: cfg.ScrollThresholdPx,
			WidthBreakpointPx: cfg.WidthBreakpointPx,
		},
		keepAlive: keepAlive,
		logger:    cfg.Logger,
	}
}

// RegisterRoutes registers the navigation routes on mux. visitor wraps every
// route with session resolution; limit additionally wraps viewport reports.
func (h *NavigationHandler) RegisterRoutes(mux *http.ServeMux, visitor, limit func(http.Handler) http.Handler) {
	mux.Handle("GET /nav", visitor(http.HandlerFunc(h.Partial)))
	mux.Handle("GET /nav/stream", visitor(http.HandlerFunc(h.Stream)))
	mux.Handle("POST /nav/viewport", visitor(limit(http.HandlerFunc(h.Viewport))))
	mux.Handle("GET /nav/follow", visitor(http.HandlerFunc(h.Follow)))
	mux.Handle("GET /nav/view-model", visitor(http.HandlerFunc(h.ViewModel)))
	mux.Handle("POST /session/authenticating", visitor(http.HandlerFunc(h.SetAuthenticating)))

	// Every other GET is a storefront route hosting the navigation.
	mux.Handle("GET /", visitor(http.HandlerFunc(h.Page)))
}

// =============================================================================
// Rendering
// =============================================================================

// present renders the navigation for the session's current state. The
// layout is read from the session's viewport at call time.
func (h *NavigationHandler) present(ctx context.Context, shell *nav.Shell, st domain.ApplicationState, path string) navigation.Data {
	p := shell.Render(st, path, isAuthenticated(ctx, st))
	metrics.RenderRecorded(p.Layout.String())
	return navigation.Data{Presentation: p, Brand: h.brand}
}

// Page handles GET /{path...}, rendering the storefront page for that route.
// A keyword query on the home route runs a product search first.
func (h *NavigationHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}
	path := r.URL.Path

	if path == nav.RouteHome && r.URL.Query().Has("keyword") && h.refresher != nil {
		filter := sess.Store.Snapshot().Filter
		filter.Keyword = strings.TrimSpace(r.URL.Query().Get("keyword"))
		if err := h.refresher.RefreshProducts(r.Context(), sess.Store, filter); err != nil {
			// The page still renders; the navigation shows the previous results.
			h.logger.Warn("product search failed", "keyword", filter.Keyword, "error", err)
		}
	}

	shell := nav.NewShell(sess.Env, h.shellOpts)
	data := navigation.PageData{
		Title:     h.brand.Name,
		Path:      path,
		StreamURL: "/nav/stream?path=" + url.QueryEscape(path),
		Nav:       h.present(r.Context(), shell, sess.Store.Snapshot(), path),
	}
	render(w, r, h.logger, http.StatusOK, navigation.Page(data))
}

// Partial handles GET /nav?path=, returning the navigation markup alone.
func (h *NavigationHandler) Partial(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}
	path, err := pathParam(r, "nav.partial")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	shell := nav.NewShell(sess.Env, h.shellOpts)
	data := h.present(r.Context(), shell, sess.Store.Snapshot(), path)
	render(w, r, h.logger, http.StatusOK, navigation.Bar(data))
}

// =============================================================================
// Event stream
// =============================================================================

// Stream handles GET /nav/stream?path=. The connection is one mounted
// navigation instance: the shell is mounted when the stream opens and
// unmounted when it closes. Every store change and scroll transition pushes
// a freshly rendered navigation as a "nav" event.
func (h *NavigationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}
	path, err := pathParam(r, "nav.stream")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	ctx := r.Context()
	rc := http.NewResponseController(w)

	// Scroll callbacks run on the reporting request's goroutine; they only
	// signal, the stream goroutine does all writing.
	scrolled := make(chan struct{}, 1)
	opts := h.shellOpts
	opts.OnScrollChange = func(isScrolled bool) {
		metrics.ScrollTransitioned(isScrolled)
		select {
		case scrolled <- struct{}{}:
		default:
		}
	}
	shell := nav.NewShell(sess.Env, opts)
	shell.Mount()
	defer shell.Unmount()

	events := sess.Store.Subscribe(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	h.logger.Debug("navigation mounted", "visitor_id", sess.ID, "path", path)
	defer h.logger.Debug("navigation unmounted", "visitor_id", sess.ID, "path", path)

	var last []byte
	push := func(st domain.ApplicationState) error {
		var buf bytes.Buffer
		if err := navigation.Bar(h.present(ctx, shell, st, path)).Render(ctx, &buf); err != nil {
			return err
		}
		if bytes.Equal(buf.Bytes(), last) {
			return nil
		}
		last = buf.Bytes()
		if err := writeEvent(w, navigation.SSEEventNav, last); err != nil {
			return err
		}
		return rc.Flush()
	}

	current := sess.Store.Snapshot()
	lastVM := nav.Select(current)
	if err := push(current); err != nil {
		h.logger.Debug("stream write failed", "error", err)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				// Store closed: the session was evicted.
				return
			}
			current = ev.Payload
			vm := nav.Select(current)
			if vm.Equal(lastVM) {
				continue
			}
			lastVM = vm
			err = push(current)

		case <-scrolled:
			err = push(current)

		case <-ticker.C:
			h.registry.Get(sess.ID)
			if _, err = io.WriteString(w, ": keepalive\n\n"); err == nil {
				err = rc.Flush()
			}
		}

		if err != nil {
			h.logger.Debug("stream write failed", "error", err)
			return
		}
	}
}

// writeEvent writes one server-sent event. Multi-line data is split across
// data fields as the format requires.
func writeEvent(w io.Writer, event string, data []byte) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event)
	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// =============================================================================
// Browser reports
// =============================================================================

type viewportReport struct {
	Width   *int `json:"width"`
	ScrollY *int `json:"scroll_y"`
}

// Viewport handles POST /nav/viewport. The report becomes one scroll event
// for every navigation mounted in the session.
func (h *NavigationHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}

	report, err := parseViewportReport(r)
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	// A width-only report keeps the last known offset.
	m := viewport.Metrics{ScrollY: sess.Env.CurrentScrollOffset()}
	if report.Width != nil {
		m.Width = *report.Width
	}
	if report.ScrollY != nil {
		m.ScrollY = *report.ScrollY
	}
	sess.Env.Report(m)
	metrics.ViewportReports.Inc()

	w.WriteHeader(http.StatusNoContent)
}

func parseViewportReport(r *http.Request) (viewportReport, error) {
	const op = "NavigationHandler.Viewport"
	var report viewportReport

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<10)).Decode(&report); err != nil {
			return report, domain.AddFieldError(nil, op, "body", "Body must be a JSON object with width and scroll_y")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return report, domain.AddFieldError(nil, op, "body", "Body must be form encoded")
		}
		var ve *domain.ValidationError
		report.Width, ve = formInt(r, "width", op, ve)
		report.ScrollY, ve = formInt(r, "scroll_y", op, ve)
		if ve != nil {
			return report, ve
		}
	}

	var ve *domain.ValidationError
	if report.Width != nil && *report.Width < 0 {
		ve = domain.AddFieldError(ve, op, "width", "Width must not be negative")
	}
	if report.Width == nil && report.ScrollY == nil {
		ve = domain.AddFieldError(ve, op, "scroll_y", "Report must include width or scroll_y")
	}
	if ve != nil {
		return report, ve
	}
	return report, nil
}

func formInt(r *http.Request, field, op string, ve *domain.ValidationError) (*int, *domain.ValidationError) {
	raw := strings.TrimSpace(r.PostForm.Get(field))
	if raw == "" {
		return nil, ve
	}
	// Browsers report fractional offsets on zoomed pages.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.AddFieldError(ve, op, field, field+" must be a number")
	}
	n := int(f)
	return &n, ve
}

// Follow handles GET /nav/follow?to=. Link activations are swallowed while
// authentication is in flight; otherwise the browser is sent to the target.
func (h *NavigationHandler) Follow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}
	to, err := sameSitePath(r.URL.Query().Get("to"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !nav.AllowLinkClick(sess.Store.Snapshot()) {
		metrics.LinkClicked(false)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	metrics.LinkClicked(true)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// SetAuthenticating handles POST /session/authenticating with value=true or
// value=false, sent by the sign-in widget around its requests.
func (h *NavigationHandler) SetAuthenticating(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}
	v, err := strconv.ParseBool(r.FormValue("value"))
	if err != nil {
		ValidationErrorResponse(w, r, h.logger,
			domain.AddFieldError(nil, "NavigationHandler.SetAuthenticating", "value", "Value must be true or false"))
		return
	}
	sess.Store.SetAuthenticating(v)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// View model
// =============================================================================

type profileJSON struct {
	FullName string `json:"full_name"`
	Initials string `json:"initials"`
	Avatar   string `json:"avatar,omitempty"`
}

type viewModelJSON struct {
	Layout              string       `json:"layout"`
	Path                string       `json:"path"`
	Width               int          `json:"width"`
	Keyword             string       `json:"keyword"`
	ProductCount        int          `json:"product_count"`
	BasketCount         int          `json:"basket_count"`
	IsLoading           bool         `json:"is_loading"`
	IsAuthenticating    bool         `json:"is_authenticating"`
	IsAuthenticated     bool         `json:"is_authenticated"`
	Profile             *profileJSON `json:"profile"`
	Gates               gateJSON     `json:"gates"`
	BasketDisabledPaths []string     `json:"basket_disabled_paths"`
}

type gateJSON struct {
	BasketToggleEnabled  bool `json:"basket_toggle_enabled"`
	ShowSearchAndFilters bool `json:"show_search_and_filters"`
	ShowSignUpLink       bool `json:"show_sign_up_link"`
	ShowSignInLink       bool `json:"show_sign_in_link"`
	ShowUserAvatar       bool `json:"show_user_avatar"`
	LinksClickable       bool `json:"links_clickable"`
}

// ViewModel handles GET /nav/view-model?path=, returning the derived
// navigation state as JSON.
func (h *NavigationHandler) ViewModel(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOr500(w, r)
	if !ok {
		return
	}
	path, err := pathParam(r, "nav.view_model")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	st := sess.Store.Snapshot()
	isAuth := isAuthenticated(r.Context(), st)
	vm := nav.Select(st)
	g := nav.Evaluate(path, isAuth, vm.IsAuthenticating)
	width := sess.Env.CurrentWidth()

	out := viewModelJSON{
		Layout:           nav.SelectLayoutAt(width, h.breakpoint()).String(),
		Path:             path,
		Width:            width,
		Keyword:          vm.Filter.Keyword,
		ProductCount:     vm.ProductCount,
		BasketCount:      vm.BasketCount,
		IsLoading:        vm.IsLoading,
		IsAuthenticating: vm.IsAuthenticating,
		IsAuthenticated:  isAuth,
		Gates: gateJSON{
			BasketToggleEnabled:  g.BasketToggleEnabled,
			ShowSearchAndFilters: g.ShowSearchAndFilters,
			ShowSignUpLink:       g.ShowSignUpLink,
			ShowSignInLink:       g.ShowSignInLink,
			ShowUserAvatar:       g.ShowUserAvatar,
			LinksClickable:       g.LinksClickable,
		},
		BasketDisabledPaths: nav.BasketDisabledPaths(),
	}
	if vm.Profile != nil {
		out.Profile = &profileJSON{
			FullName: vm.Profile.FullName,
			Initials: vm.Profile.Initials(),
			Avatar:   vm.Profile.Avatar,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// =============================================================================
// Helpers
// =============================================================================

func (h *NavigationHandler) breakpoint() int {
	if h.shellOpts.WidthBreakpointPx > 0 {
		return h.shellOpts.WidthBreakpointPx
	}
	return nav.DefaultWidthBreakpoint
}

// isAuthenticated requires both a profile cookie and a loaded profile. A
// cookie naming an unknown profile renders as an anonymous visitor.
func isAuthenticated(ctx context.Context, st domain.ApplicationState) bool {
	return auth.IsAuthenticated(ctx) && st.Profile != nil
}

func (h *NavigationHandler) sessionOr500(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		InternalErrorResponse(w, r, h.logger, fmt.Errorf("no visitor session in context for %s", r.URL.Path))
		return nil, false
	}
	return sess, true
}

// pathParam reads the route the navigation is rendered for. An absent path
// means home.
func pathParam(r *http.Request, op string) (string, error) {
	path := r.URL.Query().Get("path")
	if path == "" {
		return nav.RouteHome, nil
	}
	if !strings.HasPrefix(path, "/") {
		return "", domain.Invalid(op, "path must start with /")
	}
	return path, nil
}

// sameSitePath accepts only paths on this site, so the follow endpoint cannot
// be used as an open redirect.
func sameSitePath(to string) (string, error) {
	const op = "nav.follow"
	if to == "" {
		return "", domain.Invalid(op, "to is required")
	}
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.HasPrefix(to, "/\\") {
		return "", domain.Invalid(op, "to must be a path on this site")
	}
	u, err := url.Parse(to)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", domain.Invalid(op, "to must be a path on this site")
	}
	return u.String(), nil
}
