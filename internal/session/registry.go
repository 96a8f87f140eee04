package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/DukeRupert/shopnav/internal/domain"
	"github.com/DukeRupert/shopnav/internal/store"
	"github.com/DukeRupert/shopnav/internal/viewport"
)

// Session is one visitor's navigation context.
type Session struct {
	ID    uuid.UUID
	Store *store.Store
	Env   *viewport.Env

	mu        sync.Mutex
	profileID uuid.UUID
	hydrated  bool

	// last hydration attempt not yet followed by MarkHydrated
	attemptProfile uuid.UUID
	attemptedAt    time.Time
}

// HydrationRetryDelay is the minimum time between hydration attempts for the
// same profile.
const HydrationRetryDelay = 5 * time.Second

// ProfileID returns the profile the session was last hydrated for.
func (s *Session) ProfileID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileID
}

// NeedsHydration reports whether the session has never been hydrated or was
// hydrated for a different profile.
func (s *Session) NeedsHydration(profileID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hydrated || s.profileID != profileID
}

// BeginHydration reports whether the caller should hydrate the session for
// profileID now, and records the attempt. It returns false when the session
// is already hydrated for profileID, or when an attempt for the same profile
// started less than HydrationRetryDelay ago (in flight or failed).
func (s *Session) BeginHydration(profileID uuid.UUID, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated && s.profileID == profileID {
		return false
	}
	if !s.attemptedAt.IsZero() && s.attemptProfile == profileID && now.Sub(s.attemptedAt) < HydrationRetryDelay {
		return false
	}
	s.attemptProfile = profileID
	s.attemptedAt = now
	return true
}

// MarkHydrated records a completed hydration for profileID.
func (s *Session) MarkHydrated(profileID uuid.UUID) {
	s.mu.Lock()
	s.hydrated = true
	s.profileID = profileID
	s.attemptedAt = time.Time{}
	s.mu.Unlock()
}

// Config configures a Registry.
type Config struct {
	TTL             time.Duration // idle time before a session is evicted
	CleanupInterval time.Duration // expired-session sweep period, default TTL/2
	DefaultWidth    int           // viewport width assumed until the browser reports one
	EnvOptions      []viewport.Option
	OnEvict         func(*Session)
}

// Registry holds live sessions. Every lookup extends the session's TTL.
type Registry struct {
	cache        *gocache.Cache
	ttl          time.Duration
	defaultWidth int
	envOpts      []viewport.Option
	mu           sync.Mutex
}

// NewRegistry creates a registry that evicts idle sessions after cfg.TTL.
func NewRegistry(cfg Config) *Registry {
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = cfg.TTL / 2
	}
	c := gocache.New(cfg.TTL, cleanup)
	c.OnEvicted(func(_ string, v interface{}) {
		s, ok := v.(*Session)
		if !ok {
			return
		}
		s.Store.Close()
		if cfg.OnEvict != nil {
			cfg.OnEvict(s)
		}
	})
	return &Registry{
		cache:        c,
		ttl:          cfg.TTL,
		defaultWidth: cfg.DefaultWidth,
		envOpts:      cfg.EnvOptions,
	}
}

// Get returns the session for id, if live.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *Registry) getLocked(id uuid.UUID) (*Session, bool) {
	v, ok := r.cache.Get(id.String())
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	r.cache.Set(id.String(), s, gocache.DefaultExpiration)
	return s, true
}

// GetOrCreate returns the session for id, creating an empty one when none is
// live. created reports whether a new session was made.
func (r *Registry) GetOrCreate(id uuid.UUID) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.getLocked(id); ok {
		return s, false
	}
	// An expired session may still be held until the next sweep. Set would
	// overwrite it without running the eviction hook; Delete runs it.
	r.cache.Delete(id.String())

	s = &Session{
		ID:    id,
		Store: store.New(domain.ApplicationState{}),
		Env:   viewport.New(r.defaultWidth, r.envOpts...),
	}
	r.cache.Set(id.String(), s, gocache.DefaultExpiration)
	return s, true
}

// Delete evicts the session for id.
func (r *Registry) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}

// Len returns the number of live sessions, including expired ones not yet
// swept.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
