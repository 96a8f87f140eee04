// Package nav derives the storefront navigation's view state: what to show,
// what to enable, and whether the compact or full presentation applies.
//
// Nothing in this package performs I/O. Application state is passed in by the
// caller and the viewport is read through the Environment interface.
package nav

import (
	"sync"

	"github.com/DukeRupert/shopnav/internal/domain"
)

// Options configures a Shell. Zero values select the defaults.
type Options struct {
	ScrollThresholdPx int
	WidthBreakpointPx int

	// OnScrollChange is called when the scrolled treatment flips.
	OnScrollChange func(scrolled bool)
}

// Shell is one navigation instance. It owns its scroll subscription for as
// long as it is mounted.
type Shell struct {
	env        Environment
	breakpoint int
	monitor    *ScrollMonitor

	mu        sync.Mutex
	mounted   bool
	container ScrollState
}

// NewShell creates an unmounted shell reading the viewport from env.
func NewShell(env Environment, opts Options) *Shell {
	if opts.WidthBreakpointPx <= 0 {
		opts.WidthBreakpointPx = DefaultWidthBreakpoint
	}
	return &Shell{
		env:        env,
		breakpoint: opts.WidthBreakpointPx,
		monitor: NewScrollMonitor(env, ScrollOptions{
			ThresholdPx:       opts.ScrollThresholdPx,
			WidthBreakpointPx: opts.WidthBreakpointPx,
			OnChange:          opts.OnScrollChange,
		}),
	}
}

// Mount binds the container and subscribes to scroll events. Mounting a
// mounted shell does nothing.
func (s *Shell) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted {
		return
	}
	s.mounted = true
	s.container = ScrollState{}
	s.monitor.Bind(&s.container)
	s.monitor.Attach()
}

// Unmount removes the scroll subscription and unbinds the container.
// Unmounting an unmounted shell does nothing.
func (s *Shell) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.mounted = false
	s.monitor.Detach()
	s.monitor.Bind(nil)
}

// Mounted reports whether the shell is mounted.
func (s *Shell) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Monitor exposes the shell's scroll monitor.
func (s *Shell) Monitor() *ScrollMonitor {
	return s.monitor
}

// FullProps is everything the desktop navigation bar renders from.
type FullProps struct {
	ViewModel     ViewModel
	Gates         GateDecisions
	IsAuth        bool
	IsScrolled    bool
	Path          string
	DisabledPaths []string
}

// CompactProps is the reduced prop set handed to the mobile navigation.
type CompactProps struct {
	BasketCount      int
	Profile          *domain.Profile
	IsAuth           bool
	IsAuthenticating bool
	Path             string
	DisabledPaths    []string
}

// Presentation is the output of one render. Exactly one of Full and Compact
// is set, matching Layout.
type Presentation struct {
	Layout  Layout
	Full    *FullProps
	Compact *CompactProps
}

// Render derives the presentation for the current state and path. The layout
// is chosen from the viewport width read now; it is not tracked between
// renders.
func (s *Shell) Render(state domain.ApplicationState, path string, isAuth bool) Presentation {
	vm := Select(state)
	layout := SelectLayoutAt(s.env.CurrentWidth(), s.breakpoint)

	if layout == LayoutCompact {
		return Presentation{
			Layout: LayoutCompact,
			Compact: &CompactProps{
				BasketCount:      vm.BasketCount,
				Profile:          vm.Profile,
				IsAuth:           isAuth,
				IsAuthenticating: vm.IsAuthenticating,
				Path:             path,
				DisabledPaths:    BasketDisabledPaths(),
			},
		}
	}

	return Presentation{
		Layout: LayoutFull,
		Full: &FullProps{
			ViewModel:     vm,
			Gates:         Evaluate(path, isAuth, vm.IsAuthenticating),
			IsAuth:        isAuth,
			IsScrolled:    s.monitor.IsScrolled(),
			Path:          path,
			DisabledPaths: BasketDisabledPaths(),
		},
	}
}

// AllowLinkClick reports whether a navigation link may be followed. Clicks
// are swallowed while an authentication request is in flight.
func AllowLinkClick(state domain.ApplicationState) bool {
	return !state.Status.Authenticating
}
