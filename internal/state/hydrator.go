package state

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DukeRupert/shopnav/internal/domain"
	"github.com/DukeRupert/shopnav/internal/session"
	"github.com/DukeRupert/shopnav/internal/store"
)

// Hydrator fills a visitor's store from a Source.
type Hydrator struct {
	source Source
	logger *slog.Logger
}

// NewHydrator creates a hydrator reading from source.
func NewHydrator(source Source, logger *slog.Logger) *Hydrator {
	return &Hydrator{source: source, logger: logger}
}

// Hydrate loads products for filter, the visitor's basket and, when
// profileID is set, their profile. Loading is raised for the duration.
// An unknown profile leaves the visitor anonymous.
func (h *Hydrator) Hydrate(ctx context.Context, st *store.Store, visitorID, profileID uuid.UUID, filter domain.Filter) error {
	const op = "state.hydrate"

	st.Update(func(s *domain.ApplicationState) {
		s.Filter = filter
		s.Status.Loading = true
	})

	products, err := h.source.Products(ctx, filter)
	if err != nil {
		st.SetLoading(false)
		return domain.Internal(err, op, "failed to load products")
	}

	lines, err := h.source.Basket(ctx, visitorID)
	if err != nil {
		st.SetLoading(false)
		return domain.Internal(err, op, "failed to load basket")
	}

	var profile *domain.Profile
	if profileID != uuid.Nil {
		profile, err = h.source.Profile(ctx, profileID)
		if err != nil {
			if domain.ErrorCode(err) != domain.ENOTFOUND {
				st.SetLoading(false)
				return domain.Internal(err, op, "failed to load profile")
			}
			h.logger.Info("profile cookie references unknown profile",
				"visitor_id", visitorID,
				"profile_id", profileID,
			)
			profile = nil
		}
	}

	st.Update(func(s *domain.ApplicationState) {
		s.Products = products
		s.BasketLines = lines
		s.Profile = profile
		s.Status.Loading = false
	})

	h.logger.Debug("session hydrated",
		"visitor_id", visitorID,
		"products", len(products),
		"basket_lines", len(lines),
		"signed_in", profile != nil,
	)
	return nil
}

// HydrateSession hydrates s for profileID, keeping the session's current
// filter.
func (h *Hydrator) HydrateSession(ctx context.Context, s *session.Session, profileID uuid.UUID) error {
	return h.Hydrate(ctx, s.Store, s.ID, profileID, s.Store.Snapshot().Filter)
}

// maxRecent bounds the recent-keyword history kept in the filter.
const maxRecent = 5

// RefreshProducts reloads the product list after a filter change. A non-empty
// keyword is pushed onto the recent-search history.
func (h *Hydrator) RefreshProducts(ctx context.Context, st *store.Store, filter domain.Filter) error {
	st.Update(func(s *domain.ApplicationState) {
		filter.Recent = pushRecent(s.Filter.Recent, filter.Keyword)
		s.Filter = filter
		s.Status.Loading = true
	})

	products, err := h.source.Products(ctx, filter)
	if err != nil {
		st.SetLoading(false)
		return domain.Internal(err, "state.refresh_products", "failed to load products")
	}

	st.Update(func(s *domain.ApplicationState) {
		s.Products = products
		s.Status.Loading = false
	})
	return nil
}

func pushRecent(recent []string, keyword string) []string {
	if keyword == "" {
		return recent
	}
	out := []string{keyword}
	for _, k := range recent {
		if k != keyword && len(out) < maxRecent {
			out = append(out, k)
		}
	}
	return out
}
