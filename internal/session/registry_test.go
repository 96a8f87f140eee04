package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(Config{TTL: time.Minute, DefaultWidth: 1024})
	id := uuid.New()

	_, ok := r.Get(id)
	assert.False(t, ok)

	s, created := r.GetOrCreate(id)
	require.True(t, created)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, 1024, s.Env.CurrentWidth())
	assert.Zero(t, s.Store.Version())

	again, created := r.GetOrCreate(id)
	assert.False(t, created)
	assert.Same(t, s, again)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentCreateYieldsOneSession(t *testing.T) {
	r := NewRegistry(Config{TTL: time.Minute, DefaultWidth: 1024})
	id := uuid.New()

	var wg sync.WaitGroup
	results := make([]*Session, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.GetOrCreate(id)
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestRegistry_DeleteRunsEvictHook(t *testing.T) {
	evicted := make(chan uuid.UUID, 1)
	r := NewRegistry(Config{
		TTL:          time.Minute,
		DefaultWidth: 1024,
		OnEvict:      func(s *Session) { evicted <- s.ID },
	})
	id := uuid.New()
	s, _ := r.GetOrCreate(id)

	r.Delete(id)

	select {
	case got := <-evicted:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		require.Fail(t, "evict hook not called")
	}
	_, ok := r.Get(id)
	assert.False(t, ok)

	// The store was closed: new subscriptions are closed immediately.
	_, open := <-s.Store.Subscribe(t.Context())
	assert.False(t, open)
}

func TestRegistry_ExpiresIdleSessions(t *testing.T) {
	r := NewRegistry(Config{TTL: 30 * time.Millisecond, DefaultWidth: 1024})
	id := uuid.New()
	r.GetOrCreate(id)

	// Polling with Get would keep the session alive; watch the sweep instead.
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := r.Get(id)
	assert.False(t, ok)
}

func TestRegistry_RecreateEvictsExpiredSession(t *testing.T) {
	var evictions int
	var mu sync.Mutex
	r := NewRegistry(Config{
		TTL:             20 * time.Millisecond,
		CleanupInterval: time.Hour,
		DefaultWidth:    1024,
		OnEvict: func(*Session) {
			mu.Lock()
			evictions++
			mu.Unlock()
		},
	})
	id := uuid.New()
	old, _ := r.GetOrCreate(id)

	// Expired, but not yet swept.
	time.Sleep(50 * time.Millisecond)

	fresh, created := r.GetOrCreate(id)
	require.True(t, created)
	assert.NotSame(t, old, fresh)

	mu.Lock()
	assert.Equal(t, 1, evictions)
	mu.Unlock()

	_, open := <-old.Store.Subscribe(t.Context())
	assert.False(t, open, "expired session's store was not closed")

	fresh.Store.Subscribe(t.Context())
	assert.Equal(t, 1, fresh.Store.Subscribers(), "new session's store is live")
	assert.Equal(t, 1, r.Len())
}

func TestSession_Hydration(t *testing.T) {
	r := NewRegistry(Config{TTL: time.Minute, DefaultWidth: 1024})
	s, _ := r.GetOrCreate(uuid.New())

	assert.True(t, s.NeedsHydration(uuid.Nil))

	s.MarkHydrated(uuid.Nil)
	assert.False(t, s.NeedsHydration(uuid.Nil))

	profileID := uuid.New()
	assert.True(t, s.NeedsHydration(profileID), "signing in requires a fresh hydration")

	s.MarkHydrated(profileID)
	assert.Equal(t, profileID, s.ProfileID())
	assert.False(t, s.NeedsHydration(profileID))
}

func TestSession_BeginHydrationBacksOff(t *testing.T) {
	r := NewRegistry(Config{TTL: time.Minute, DefaultWidth: 1024})
	s, _ := r.GetOrCreate(uuid.New())
	now := time.Now()

	require.True(t, s.BeginHydration(uuid.Nil, now))
	assert.False(t, s.BeginHydration(uuid.Nil, now.Add(time.Second)), "attempt in flight or just failed")

	// A different profile is attempted at once.
	profileID := uuid.New()
	assert.True(t, s.BeginHydration(profileID, now.Add(time.Second)))

	// The failed profile is retried once the delay has passed.
	later := now.Add(time.Second + HydrationRetryDelay)
	assert.True(t, s.BeginHydration(profileID, later))

	s.MarkHydrated(profileID)
	assert.False(t, s.BeginHydration(profileID, later.Add(time.Hour)))
}
