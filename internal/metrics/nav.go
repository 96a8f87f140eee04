package metrics

import "strconv"

// RenderRecorded counts one navigation render in the given layout.
func RenderRecorded(layout string) {
	NavRenders.WithLabelValues(layout).Inc()
}

// ScrollTransitioned records the scrolled treatment flipping to scrolled.
func ScrollTransitioned(scrolled bool) {
	ScrollTransitions.WithLabelValues(strconv.FormatBool(scrolled)).Inc()
}

// SubscriptionAdded and SubscriptionRemoved track attached scroll listeners.
func SubscriptionAdded()   { ScrollSubscriptions.Inc() }
func SubscriptionRemoved() { ScrollSubscriptions.Dec() }

// LinkClicked records a link activation and whether it was followed.
func LinkClicked(followed bool) {
	if followed {
		LinkClicks.WithLabelValues(OutcomeFollowed).Inc()
		return
	}
	LinkClicks.WithLabelValues(OutcomeSuppressed).Inc()
}

// HydrationFinished records the outcome of loading a visitor's state.
func HydrationFinished(err error) {
	if err != nil {
		HydrationsTotal.WithLabelValues("failed").Inc()
		return
	}
	HydrationsTotal.WithLabelValues("completed").Inc()
}
