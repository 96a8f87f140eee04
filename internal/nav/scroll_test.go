package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundMonitor(env *fakeEnv, opts ScrollOptions) (*ScrollMonitor, *ScrollState) {
	m := NewScrollMonitor(env, opts)
	state := &ScrollState{}
	m.Bind(state)
	m.Attach()
	return m, state
}

func TestScrollMonitor_DesktopThreshold(t *testing.T) {
	env := newFakeEnv(1024)
	m, state := newBoundMonitor(env, ScrollOptions{})

	steps := []struct {
		offset int
		want   bool
	}{
		{0, false},
		{100, true},
		{50, false},
		{69, false},
		{70, true}, // inclusive
		{71, true},
	}

	for _, s := range steps {
		env.scroll(s.offset)
		assert.Equal(t, s.want, state.IsScrolled, "offset %d", s.offset)
		assert.Equal(t, s.want, m.IsScrolled(), "offset %d", s.offset)
	}
}

func TestScrollMonitor_NarrowViewportLeavesStateUnchanged(t *testing.T) {
	env := newFakeEnv(1024)
	m, state := newBoundMonitor(env, ScrollOptions{})

	env.scroll(100)
	require.True(t, state.IsScrolled)

	env.resize(400)
	env.scroll(0)
	assert.True(t, state.IsScrolled, "narrow viewport must not clear the flag")

	env.scroll(200)
	assert.True(t, state.IsScrolled)

	// Fresh monitor on a narrow viewport stays unscrolled.
	env2 := newFakeEnv(400)
	_, state2 := newBoundMonitor(env2, ScrollOptions{})
	env2.scroll(200)
	assert.False(t, state2.IsScrolled)

	assert.Equal(t, 1, m.Updates(), "only the desktop event counts as an update")
}

func TestScrollMonitor_BreakpointIsExclusive(t *testing.T) {
	env := newFakeEnv(480)
	_, state := newBoundMonitor(env, ScrollOptions{})

	env.scroll(200)
	assert.False(t, state.IsScrolled, "480px is still the mobile layout")

	env.resize(481)
	env.scroll(200)
	assert.True(t, state.IsScrolled)
}

func TestScrollMonitor_CustomOptions(t *testing.T) {
	env := newFakeEnv(800)
	_, state := newBoundMonitor(env, ScrollOptions{ThresholdPx: 10, WidthBreakpointPx: 900})

	env.scroll(50)
	assert.False(t, state.IsScrolled, "800px is below the custom breakpoint")

	env.resize(1000)
	env.scroll(10)
	assert.True(t, state.IsScrolled)
}

func TestScrollMonitor_UnboundContainerIsNoop(t *testing.T) {
	env := newFakeEnv(1024)
	m := NewScrollMonitor(env, ScrollOptions{})
	m.Attach()

	assert.NotPanics(t, func() { env.scroll(100) })
	assert.False(t, m.IsScrolled())
	assert.Equal(t, 0, m.Updates())
}

func TestScrollMonitor_OnChangeFiresOnTransitionsOnly(t *testing.T) {
	env := newFakeEnv(1024)
	var changes []bool
	_, _ = newBoundMonitor(env, ScrollOptions{OnChange: func(s bool) { changes = append(changes, s) }})

	for _, off := range []int{0, 10, 80, 90, 100, 20, 0, 75} {
		env.scroll(off)
	}

	assert.Equal(t, []bool{true, false, true}, changes)
}

func TestScrollMonitor_AttachDetachIdempotent(t *testing.T) {
	env := newFakeEnv(1024)
	m := NewScrollMonitor(env, ScrollOptions{})

	m.Attach()
	m.Attach()
	m.Attach()
	assert.Equal(t, 1, env.listenerCount())
	assert.True(t, m.Attached())

	m.Detach()
	m.Detach()
	assert.Equal(t, 0, env.listenerCount())
	assert.Equal(t, 1, env.removed, "unsubscribe must run exactly once")
	assert.False(t, m.Attached())

	m.Attach()
	assert.Equal(t, 1, env.listenerCount())
}

func TestScrollMonitor_IndependentInstances(t *testing.T) {
	env := newFakeEnv(1024)
	a, stateA := newBoundMonitor(env, ScrollOptions{})
	_, stateB := newBoundMonitor(env, ScrollOptions{})
	require.Equal(t, 2, env.listenerCount())

	a.Detach()
	assert.Equal(t, 1, env.listenerCount())

	env.scroll(100)
	assert.False(t, stateA.IsScrolled, "detached instance must not update")
	assert.True(t, stateB.IsScrolled)
}
