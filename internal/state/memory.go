package state

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/DukeRupert/shopnav/internal/domain"
)

// Seed is the YAML document loaded by MemorySource.
type Seed struct {
	Products []SeedProduct               `yaml:"products"`
	Profiles []SeedProfile               `yaml:"profiles"`
	Baskets  map[string][]SeedBasketLine `yaml:"baskets"` // keyed by visitor ID
}

// SeedProduct is a catalogue entry in the seed file.
type SeedProduct struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Brand       string   `yaml:"brand"`
	Price       int      `yaml:"price"`
	MaxQuantity int      `yaml:"max_quantity"`
	Image       string   `yaml:"image"`
	Keywords    []string `yaml:"keywords"`
}

// SeedProfile is a shopper profile in the seed file.
type SeedProfile struct {
	ID         string    `yaml:"id"`
	FullName   string    `yaml:"full_name"`
	Email      string    `yaml:"email"`
	Avatar     string    `yaml:"avatar"`
	DateJoined time.Time `yaml:"date_joined"`
}

// SeedBasketLine references a seeded product.
type SeedBasketLine struct {
	ProductID string `yaml:"product_id"`
	Quantity  int    `yaml:"quantity"`
	Size      string `yaml:"size"`
	Color     string `yaml:"color"`
}

// MemorySource serves data held in memory.
type MemorySource struct {
	mu       sync.RWMutex
	products []domain.Product
	profiles map[uuid.UUID]domain.Profile
	baskets  map[uuid.UUID][]domain.BasketLine
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		profiles: make(map[uuid.UUID]domain.Profile),
		baskets:  make(map[uuid.UUID][]domain.BasketLine),
	}
}

// LoadSeedFile reads a YAML seed from path.
func LoadSeedFile(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// LoadSeed decodes a YAML seed document.
func LoadSeed(r io.Reader) (*MemorySource, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	src := NewMemorySource()
	byID := make(map[uuid.UUID]domain.Product, len(seed.Products))
	for i, sp := range seed.Products {
		id, err := uuid.Parse(sp.ID)
		if err != nil {
			return nil, fmt.Errorf("product %d: invalid id %q: %w", i, sp.ID, err)
		}
		p := domain.Product{
			ID:          id,
			Name:        sp.Name,
			Brand:       sp.Brand,
			Price:       sp.Price,
			MaxQuantity: sp.MaxQuantity,
			Image:       sp.Image,
			Keywords:    sp.Keywords,
		}
		src.AddProduct(p)
		byID[id] = p
	}

	for i, sp := range seed.Profiles {
		id, err := uuid.Parse(sp.ID)
		if err != nil {
			return nil, fmt.Errorf("profile %d: invalid id %q: %w", i, sp.ID, err)
		}
		src.AddProfile(domain.Profile{
			ID:         id,
			FullName:   sp.FullName,
			Email:      sp.Email,
			Avatar:     sp.Avatar,
			DateJoined: sp.DateJoined,
		})
	}

	for visitor, lines := range seed.Baskets {
		visitorID, err := uuid.Parse(visitor)
		if err != nil {
			return nil, fmt.Errorf("basket: invalid visitor id %q: %w", visitor, err)
		}
		for _, l := range lines {
			pid, err := uuid.Parse(l.ProductID)
			if err != nil {
				return nil, fmt.Errorf("basket %s: invalid product id %q: %w", visitor, l.ProductID, err)
			}
			p, ok := byID[pid]
			if !ok {
				return nil, fmt.Errorf("basket %s: unknown product %s", visitor, pid)
			}
			src.AddBasketLine(visitorID, domain.BasketLine{
				ProductID:     pid,
				Name:          p.Name,
				Price:         p.Price,
				Quantity:      l.Quantity,
				SelectedSize:  l.Size,
				SelectedColor: l.Color,
			})
		}
	}

	return src, nil
}

// AddProduct appends a product to the catalogue.
func (s *MemorySource) AddProduct(p domain.Product) {
	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()
}

// AddProfile stores a profile.
func (s *MemorySource) AddProfile(p domain.Profile) {
	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
}

// AddBasketLine appends a line to a visitor's basket.
func (s *MemorySource) AddBasketLine(visitorID uuid.UUID, l domain.BasketLine) {
	s.mu.Lock()
	s.baskets[visitorID] = append(s.baskets[visitorID], l)
	s.mu.Unlock()
}

// Products returns the matching products, sorted.
func (s *MemorySource) Products(ctx context.Context, filter domain.Filter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Matches(filter) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	SortProducts(out, filter.SortBy)
	return out, nil
}

// Basket returns a copy of the visitor's basket.
func (s *MemorySource) Basket(ctx context.Context, visitorID uuid.UUID) ([]domain.BasketLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BasketLine(nil), s.baskets[visitorID]...), nil
}

// Profile returns the profile or a not-found error.
func (s *MemorySource) Profile(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	p, ok := s.profiles[profileID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.NotFound("state.profile", "profile", profileID.String())
	}
	return &p, nil
}
