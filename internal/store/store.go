// Package store holds one visitor's ApplicationState and notifies
// subscribers whenever it changes.
//
// Readers always receive deep copies; the only way to change the state is
// Update (or one of the Set helpers built on it).
package store

import (
	"context"
	"sync"

	"github.com/DukeRupert/shopnav/internal/domain"
)

// Store owns an ApplicationState.
type Store struct {
	mu      sync.RWMutex
	state   domain.ApplicationState
	version uint64
	broker  *Broker[domain.ApplicationState]
}

// New creates a store seeded with initial.
func New(initial domain.ApplicationState) *Store {
	return &Store{
		state:  initial.Clone(),
		broker: NewBroker[domain.ApplicationState](),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.ApplicationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Version increments on every committed update.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Update applies fn to a copy of the state, commits it, and notifies
// subscribers. Events are published in commit order.
func (s *Store) Update(fn func(*domain.ApplicationState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	fn(&next)
	// fn may have stored caller-owned slices.
	s.state = next.Clone()
	s.version++
	s.broker.Publish(UpdatedEvent, s.version, s.state.Clone())
}

// Subscribe returns change notifications until ctx is done.
func (s *Store) Subscribe(ctx context.Context) <-chan Event[domain.ApplicationState] {
	return s.broker.Subscribe(ctx)
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	return s.broker.SubscriberCount()
}

// Close ends every subscription.
func (s *Store) Close() {
	s.broker.Close()
}

// SetLoading sets the catalogue-loading flag.
func (s *Store) SetLoading(v bool) {
	s.Update(func(st *domain.ApplicationState) { st.Status.Loading = v })
}

// SetAuthenticating sets the authentication-in-flight flag.
func (s *Store) SetAuthenticating(v bool) {
	s.Update(func(st *domain.ApplicationState) { st.Status.Authenticating = v })
}

// SetFilter replaces the product filter.
func (s *Store) SetFilter(f domain.Filter) {
	s.Update(func(st *domain.ApplicationState) { st.Filter = f })
}

// SetProducts replaces the product list.
func (s *Store) SetProducts(products []domain.Product) {
	s.Update(func(st *domain.ApplicationState) { st.Products = products })
}

// SetBasket replaces the basket lines.
func (s *Store) SetBasket(lines []domain.BasketLine) {
	s.Update(func(st *domain.ApplicationState) { st.BasketLines = lines })
}

// SetProfile sets or clears the signed-in profile.
func (s *Store) SetProfile(p *domain.Profile) {
	s.Update(func(st *domain.ApplicationState) { st.Profile = p })
}
