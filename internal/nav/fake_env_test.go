package nav

import "sync"

// fakeEnv is an in-memory Environment. Scroll dispatches synchronously to the
// listeners registered at the time of the call.
type fakeEnv struct {
	mu        sync.Mutex
	width     int
	offset    int
	nextID    int
	listeners map[int]func()
	removed   int
}

func newFakeEnv(width int) *fakeEnv {
	return &fakeEnv{width: width, listeners: make(map[int]func())}
}

func (e *fakeEnv) CurrentWidth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width
}

func (e *fakeEnv) CurrentScrollOffset() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset
}

func (e *fakeEnv) OnScroll(fn func()) Unsubscribe {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.listeners, id)
			e.removed++
		})
	}
}

func (e *fakeEnv) resize(width int) {
	e.mu.Lock()
	e.width = width
	e.mu.Unlock()
}

// scroll sets the offset and fires every registered listener once.
func (e *fakeEnv) scroll(offset int) {
	e.mu.Lock()
	e.offset = offset
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (e *fakeEnv) listenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}
