package nav

// Unsubscribe removes a listener registered with Environment.OnScroll.
// Calling it more than once is harmless.
type Unsubscribe func()

// Environment is the viewport the navigation is displayed in.
type Environment interface {
	// CurrentWidth returns the viewport width in CSS pixels.
	CurrentWidth() int

	// CurrentScrollOffset returns the vertical scroll offset in CSS pixels.
	CurrentScrollOffset() int

	// OnScroll registers fn to be called after every scroll event.
	OnScroll(fn func()) Unsubscribe
}
