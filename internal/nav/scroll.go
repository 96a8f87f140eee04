package nav

import "sync"

// DefaultScrollThreshold is the vertical offset, in CSS pixels, at which the
// navigation switches to its scrolled treatment.
const DefaultScrollThreshold = 70

// ScrollState is the styling flag of a mounted navigation container.
type ScrollState struct {
	IsScrolled bool
}

// ScrollOptions configures a ScrollMonitor. Zero values select the defaults.
type ScrollOptions struct {
	ThresholdPx       int
	WidthBreakpointPx int

	// OnChange is called, outside the monitor's lock, whenever IsScrolled flips.
	OnChange func(scrolled bool)
}

// ScrollMonitor keeps a container's ScrollState in step with the
// environment's scroll events. One monitor holds at most one subscription.
type ScrollMonitor struct {
	env        Environment
	threshold  int
	breakpoint int
	onChange   func(bool)

	mu          sync.Mutex
	container   *ScrollState
	unsubscribe Unsubscribe
	updates     int
}

// NewScrollMonitor creates a detached monitor.
func NewScrollMonitor(env Environment, opts ScrollOptions) *ScrollMonitor {
	if opts.ThresholdPx <= 0 {
		opts.ThresholdPx = DefaultScrollThreshold
	}
	if opts.WidthBreakpointPx <= 0 {
		opts.WidthBreakpointPx = DefaultWidthBreakpoint
	}
	return &ScrollMonitor{
		env:        env,
		threshold:  opts.ThresholdPx,
		breakpoint: opts.WidthBreakpointPx,
		onChange:   opts.OnChange,
	}
}

// Bind sets the container whose flag the monitor drives. Passing nil unbinds
// it; scroll events are then ignored.
func (m *ScrollMonitor) Bind(container *ScrollState) {
	m.mu.Lock()
	m.container = container
	m.mu.Unlock()
}

// Attach subscribes to scroll events. It does nothing if already attached.
func (m *ScrollMonitor) Attach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.env.OnScroll(m.HandleScroll)
}

// Detach removes the subscription. It does nothing if not attached.
func (m *ScrollMonitor) Detach() {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Attached reports whether the monitor currently holds a subscription.
func (m *ScrollMonitor) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsubscribe != nil
}

// HandleScroll applies one scroll event. Narrow viewports leave the flag
// untouched, and so does a missing container.
func (m *ScrollMonitor) HandleScroll() {
	width := m.env.CurrentWidth()
	offset := m.env.CurrentScrollOffset()

	m.mu.Lock()
	if m.container == nil || width <= m.breakpoint {
		m.mu.Unlock()
		return
	}
	m.updates++
	scrolled := offset >= m.threshold
	changed := m.container.IsScrolled != scrolled
	m.container.IsScrolled = scrolled
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(scrolled)
	}
}

// IsScrolled returns the bound container's flag, false when unbound.
func (m *ScrollMonitor) IsScrolled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.container != nil && m.container.IsScrolled
}

// Updates returns how many scroll events have been applied to the container.
func (m *ScrollMonitor) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
