// Package viewport implements nav.Environment for a browser tab that reports
// its viewport metrics to the server.
//
// The browser posts width and vertical offset on load and on every (throttled)
// scroll. Each report updates the metrics and is then delivered to the
// listeners registered at that moment, in registration order.
package viewport

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/DukeRupert/shopnav/internal/nav"
)

// Metrics is one viewport report.
type Metrics struct {
	Width   int
	ScrollY int
}

type listener struct {
	id     uint64
	fn     func()
	active atomic.Bool
}

// Env is a reported viewport. The zero value is not usable; call New.
type Env struct {
	mu        sync.Mutex
	metrics   Metrics
	reports   uint64
	nextID    uint64
	listeners []*listener

	// Subscription hooks, used for metrics. May be nil.
	onSubscribe   func()
	onUnsubscribe func()
}

// Option configures an Env.
type Option func(*Env)

// WithSubscriptionHooks registers callbacks run when a listener is added or
// removed.
func WithSubscriptionHooks(onSubscribe, onUnsubscribe func()) Option {
	return func(e *Env) {
		e.onSubscribe = onSubscribe
		e.onUnsubscribe = onUnsubscribe
	}
}

// New creates an Env that reports defaultWidth until the browser says
// otherwise.
func New(defaultWidth int, opts ...Option) *Env {
	e := &Env{metrics: Metrics{Width: defaultWidth}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ nav.Environment = (*Env)(nil)

// CurrentWidth returns the last reported width.
func (e *Env) CurrentWidth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.Width
}

// CurrentScrollOffset returns the last reported vertical offset.
func (e *Env) CurrentScrollOffset() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.ScrollY
}

// Metrics returns the last report.
func (e *Env) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// Reports returns how many reports have been applied.
func (e *Env) Reports() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reports
}

// OnScroll registers fn for subsequent reports.
func (e *Env) OnScroll(fn func()) nav.Unsubscribe {
	e.mu.Lock()
	e.nextID++
	l := &listener{id: e.nextID, fn: fn}
	l.active.Store(true)
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()

	if e.onSubscribe != nil {
		e.onSubscribe()
	}

	return func() { e.remove(l) }
}

func (e *Env) remove(l *listener) {
	// Deactivate first so an in-progress dispatch skips it.
	if !l.active.CompareAndSwap(true, false) {
		return
	}

	e.mu.Lock()
	for i, cur := range e.listeners {
		if cur.id == l.id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	if e.onUnsubscribe != nil {
		e.onUnsubscribe()
	}
}

// Listeners returns the number of registered listeners.
func (e *Env) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Resize records a width without firing a scroll event. Used for the initial
// width hint sent with page requests.
func (e *Env) Resize(width int) {
	if width <= 0 {
		return
	}
	e.mu.Lock()
	e.metrics.Width = width
	e.mu.Unlock()
}

// Report records m and fires one scroll event. Listeners run on the caller's
// goroutine after the metrics are visible.
func (e *Env) Report(m Metrics) {
	e.mu.Lock()
	if m.Width > 0 {
		e.metrics.Width = m.Width
	}
	if m.ScrollY < 0 {
		m.ScrollY = 0
	}
	e.metrics.ScrollY = m.ScrollY
	e.reports++
	snapshot := make([]*listener, len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	for _, l := range snapshot {
		if l.active.Load() {
			l.fn()
		}
	}
}

// viewportHeaders are the client hints carrying the layout viewport width,
// newest first.
var viewportHeaders = []string{"Sec-CH-Viewport-Width", "Viewport-Width"}

// WidthFromRequest returns the viewport width advertised by client hints, or
// 0 when none is present or parseable.
func WidthFromRequest(r *http.Request) int {
	for _, h := range viewportHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v == "" {
			continue
		}
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			return w
		}
	}
	return 0
}
