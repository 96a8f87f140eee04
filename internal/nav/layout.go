package nav

// Layout is the presentation mode of the navigation.
type Layout int

const (
	// LayoutFull is the desktop navigation bar.
	LayoutFull Layout = iota

	// LayoutCompact delegates to the mobile navigation.
	LayoutCompact
)

// DefaultWidthBreakpoint is the widest viewport, in CSS pixels, that still
// gets the compact layout.
const DefaultWidthBreakpoint = 480

// String returns the layout name used in markup and metrics labels.
func (l Layout) String() string {
	switch l {
	case LayoutCompact:
		return "compact"
	case LayoutFull:
		return "full"
	default:
		return "unknown"
	}
}

// SelectLayout picks the layout for a viewport width using the default
// breakpoint.
func SelectLayout(widthPx int) Layout {
	return SelectLayoutAt(widthPx, DefaultWidthBreakpoint)
}

// SelectLayoutAt picks the layout for a viewport width. Widths at or below the
// breakpoint are compact.
func SelectLayoutAt(widthPx, breakpointPx int) Layout {
	if widthPx <= breakpointPx {
		return LayoutCompact
	}
	return LayoutFull
}
