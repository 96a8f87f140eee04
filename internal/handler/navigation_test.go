package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/shopnav/internal/auth"
	"github.com/DukeRupert/shopnav/internal/domain"
	"github.com/DukeRupert/shopnav/internal/session"
	"github.com/DukeRupert/shopnav/internal/state"
	"github.com/DukeRupert/shopnav/internal/templ/components/navigation"
	"github.com/DukeRupert/shopnav/internal/viewport"
)

// =============================================================================
// Helpers
// =============================================================================

type navFixture struct {
	handler  *NavigationHandler
	registry *session.Registry
	sess     *session.Session
	source   *state.MemorySource
}

func newNavFixture(t *testing.T) *navFixture {
	t.Helper()
	registry := session.NewRegistry(session.Config{TTL: time.Minute, DefaultWidth: 1024})
	sess, _ := registry.GetOrCreate(uuid.New())
	source := state.NewMemorySource()

	h := NewNavigationHandler(NavigationConfig{
		Registry:          registry,
		Refresher:         state.NewHydrator(source, discardLogger()),
		Brand:             navigation.Brand{Name: "Salinaka"},
		ScrollThresholdPx: 70,
		WidthBreakpointPx: 480,
		KeepAlive:         time.Hour,
		Logger:            discardLogger(),
	})
	return &navFixture{handler: h, registry: registry, sess: sess, source: source}
}

// request builds a request already carrying the fixture's session, as the
// visitor middleware would leave it.
func (f *navFixture) request(method, target string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(session.WithSession(req.Context(), f.sess))
}

func signIn(req *http.Request, profileID uuid.UUID) *http.Request {
	return req.WithContext(auth.SetProfileID(req.Context(), profileID))
}

// =============================================================================
// Page and partial
// =============================================================================

func TestPage_RendersShellWithStream(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.Page(rec, f.request("GET", "/shop", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(strings.ToLower(body), "<!doctype html>"))
	assert.Contains(t, body, `id="nav-shell"`)
	assert.Contains(t, body, `sse-connect="/nav/stream?path=%2Fshop"`)
	assert.Contains(t, body, `id="navigation"`)
	assert.Contains(t, body, "<title>Salinaka</title>")
}

func TestPage_KeywordRunsSearch(t *testing.T) {
	f := newNavFixture(t)
	f.source.AddProduct(domain.Product{ID: uuid.New(), Name: "Felt Hat", Keywords: []string{"winter"}})
	f.source.AddProduct(domain.Product{ID: uuid.New(), Name: "Sun Visor"})

	rec := httptest.NewRecorder()
	f.handler.Page(rec, f.request("GET", "/?keyword=hat", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	st := f.sess.Store.Snapshot()
	assert.Equal(t, "hat", st.Filter.Keyword)
	assert.Equal(t, []string{"hat"}, st.Filter.Recent)
	require.Len(t, st.Products, 1)
	assert.Equal(t, "Felt Hat", st.Products[0].Name)
	assert.Contains(t, rec.Body.String(), "1 product")
}

func TestPartial_LayoutFollowsReportedWidth(t *testing.T) {
	f := newNavFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Partial(rec, f.request("GET", "/nav?path=/shop", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "navigation-menu")
	assert.NotContains(t, rec.Body.String(), "mobile-navigation")

	f.sess.Env.Resize(375)

	rec = httptest.NewRecorder()
	f.handler.Partial(rec, f.request("GET", "/nav?path=/shop", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mobile-navigation")
}

func TestPartial_DefaultsToHome(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.Partial(rec, f.request("GET", "/nav", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	// Search is only shown on home and shop.
	assert.Contains(t, rec.Body.String(), `class="searchbar"`)
}

func TestPartial_RejectsRelativePath(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.Partial(rec, f.request("GET", "/nav?path=shop", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_MissingSession(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.Partial(rec, httptest.NewRequest("GET", "/nav", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "visitor session")
}

// =============================================================================
// Viewport reports
// =============================================================================

func TestViewport_FormReport(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.Viewport(rec, f.request("POST", "/nav/viewport", "width=390&scroll_y=120.5"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 390, f.sess.Env.CurrentWidth())
	assert.Equal(t, 120, f.sess.Env.CurrentScrollOffset())
}

func TestViewport_JSONReport(t *testing.T) {
	f := newNavFixture(t)
	req := httptest.NewRequest("POST", "/nav/viewport", strings.NewReader(`{"scroll_y": 80}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(session.WithSession(req.Context(), f.sess))
	rec := httptest.NewRecorder()

	f.handler.Viewport(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1024, f.sess.Env.CurrentWidth())
	assert.Equal(t, 80, f.sess.Env.CurrentScrollOffset())
}

func TestViewport_WidthOnlyKeepsOffset(t *testing.T) {
	f := newNavFixture(t)
	f.handler.Viewport(httptest.NewRecorder(), f.request("POST", "/nav/viewport", "scroll_y=200"))

	rec := httptest.NewRecorder()
	f.handler.Viewport(rec, f.request("POST", "/nav/viewport", "width=800"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 800, f.sess.Env.CurrentWidth())
	assert.Equal(t, 200, f.sess.Env.CurrentScrollOffset())
}

func TestViewport_InvalidReports(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "other=1"},
		{"not a number", "scroll_y=lots"},
		{"negative width", "width=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNavFixture(t)
			rec := httptest.NewRecorder()

			f.handler.Viewport(rec, f.request("POST", "/nav/viewport", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, f.sess.Env.Reports())
		})
	}
}

// =============================================================================
// Link follow and authentication flag
// =============================================================================

func TestFollow_Redirects(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.Follow(rec, f.request("GET", "/nav/follow?to="+url.QueryEscape("/signin"), ""))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))
}

func TestFollow_HtmxRedirect(t *testing.T) {
	f := newNavFixture(t)
	req := f.request("GET", "/nav/follow?to=/shop", "")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	f.handler.Follow(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/shop", rec.Header().Get("HX-Redirect"))
}

func TestFollow_SuppressedWhileAuthenticating(t *testing.T) {
	f := newNavFixture(t)
	f.sess.Store.SetAuthenticating(true)
	rec := httptest.NewRecorder()

	f.handler.Follow(rec, f.request("GET", "/nav/follow?to=/signup", ""))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestFollow_RejectsOffSiteTargets(t *testing.T) {
	for _, to := range []string{"", "https://evil.example", "//evil.example", `/\evil.example`, "shop"} {
		f := newNavFixture(t)
		rec := httptest.NewRecorder()

		f.handler.Follow(rec, f.request("GET", "/nav/follow?to="+url.QueryEscape(to), ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code, "to=%q", to)
		assert.Empty(t, rec.Header().Get("Location"), "to=%q", to)
	}
}

func TestSetAuthenticating(t *testing.T) {
	f := newNavFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SetAuthenticating(rec, f.request("POST", "/session/authenticating", "value=true"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.sess.Store.Snapshot().Status.Authenticating)

	rec = httptest.NewRecorder()
	f.handler.SetAuthenticating(rec, f.request("POST", "/session/authenticating", "value=false"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.sess.Store.Snapshot().Status.Authenticating)

	rec = httptest.NewRecorder()
	f.handler.SetAuthenticating(rec, f.request("POST", "/session/authenticating", "value=maybe"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// View model
// =============================================================================

func TestViewModel_Anonymous(t *testing.T) {
	f := newNavFixture(t)
	f.sess.Store.SetBasket(make([]domain.BasketLine, 2))
	rec := httptest.NewRecorder()

	f.handler.ViewModel(rec, f.request("GET", "/nav/view-model?path=/signin", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var got viewModelJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "full", got.Layout)
	assert.Equal(t, 2, got.BasketCount)
	assert.False(t, got.IsAuthenticated)
	assert.Nil(t, got.Profile)
	assert.False(t, got.Gates.BasketToggleEnabled)
	assert.True(t, got.Gates.ShowSignUpLink)
	assert.False(t, got.Gates.ShowSignInLink)
	assert.Contains(t, got.BasketDisabledPaths, "/checkout/step1")
}

func TestViewModel_SignedIn(t *testing.T) {
	f := newNavFixture(t)
	profileID := uuid.New()
	f.sess.Store.SetProfile(&domain.Profile{ID: profileID, FullName: "Ada Lovelace"})
	rec := httptest.NewRecorder()

	f.handler.ViewModel(rec, signIn(f.request("GET", "/nav/view-model?path=/", ""), profileID))

	require.Equal(t, http.StatusOK, rec.Code)
	var got viewModelJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.IsAuthenticated)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "AL", got.Profile.Initials)
	assert.True(t, got.Gates.ShowUserAvatar)
}

func TestViewModel_CookieWithoutProfileIsAnonymous(t *testing.T) {
	f := newNavFixture(t)
	rec := httptest.NewRecorder()

	f.handler.ViewModel(rec, signIn(f.request("GET", "/nav/view-model", ""), uuid.New()))

	var got viewModelJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.IsAuthenticated)
	assert.False(t, got.Gates.ShowUserAvatar)
}

// =============================================================================
// Event stream
// =============================================================================

// streamRecorder is a ResponseWriter safe to read while a stream writes.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	buf    bytes.Buffer
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	r.code = code
	r.mu.Unlock()
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func TestStream_PushesStoreAndScrollChanges(t *testing.T) {
	f := newNavFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := f.request("GET", "/nav/stream?path=/shop", "").WithContext(
		session.WithSession(ctx, f.sess))
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		f.handler.Stream(rec, req)
		close(done)
	}()

	waitFor := func(substr string) {
		t.Helper()
		require.Eventually(t, func() bool {
			return strings.Contains(rec.String(), substr)
		}, 2*time.Second, 5*time.Millisecond, "stream never contained %q", substr)
	}

	// Initial render on mount.
	waitFor("event: nav\ndata: ")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 1, f.sess.Env.Listeners())

	// Store change.
	f.sess.Store.SetBasket(make([]domain.BasketLine, 3))
	waitFor(`<span class="badge-count">3</span>`)

	// Scroll past the threshold.
	f.sess.Env.Report(viewport.Metrics{Width: 1024, ScrollY: 200})
	waitFor(navigation.ScrolledClass)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not return after cancel")
	}
	assert.Equal(t, 0, f.sess.Env.Listeners())
}

func TestStream_SkipsUnchangedViewModel(t *testing.T) {
	f := newNavFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := f.request("GET", "/nav/stream", "").WithContext(session.WithSession(ctx, f.sess))
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		f.handler.Stream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(rec.String(), "event: nav")
	}, 2*time.Second, 5*time.Millisecond)

	// Authenticating false -> false leaves the view model unchanged.
	f.sess.Store.SetAuthenticating(false)
	f.sess.Store.SetBasket(make([]domain.BasketLine, 1))
	require.Eventually(t, func() bool {
		return strings.Contains(rec.String(), `<span class="badge-count">1</span>`)
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 2, strings.Count(rec.String(), "event: nav"))
}

func TestWriteEvent_SplitsLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, "nav", []byte("<nav>\n</nav>")))
	assert.Equal(t, "event: nav\ndata: <nav>\ndata: </nav>\n\n", buf.String())
}
