// Package repository reads storefront data from PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/DukeRupert/shopnav/internal/domain"
	"github.com/DukeRupert/shopnav/internal/state"
)

// Postgres implements state.Source over a database/sql handle opened with
// the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

// New creates a repository using db.
func New(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ state.Source = (*Postgres)(nil)

const listProducts = `
SELECT id, name, brand, price_cents, max_quantity, image, array_to_string(keywords, ',')
FROM products
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' ESCAPE '\' OR array_to_string(keywords, ',') ILIKE '%' || $1 || '%' ESCAPE '\')
  AND ($2 = '' OR lower(brand) = lower($2))
  AND ($3 = 0 OR price_cents >= $3)
  AND ($4 = 0 OR price_cents <= $4)
ORDER BY created_at, id`

// Products returns the products matching filter.
func (r *Postgres) Products(ctx context.Context, filter domain.Filter) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, listProducts, escapeLike(filter.Keyword), filter.Brand, filter.MinPrice, filter.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		var keywords string
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.MaxQuantity, &p.Image, &keywords); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Keywords = splitKeywords(keywords)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	state.SortProducts(out, filter.SortBy)
	return out, nil
}

const listBasketLines = `
SELECT b.product_id, p.name, p.price_cents, b.quantity, b.selected_size, b.selected_color
FROM basket_lines b
JOIN products p ON p.id = b.product_id
WHERE b.visitor_id = $1
ORDER BY b.added_at, b.id`

// Basket returns the visitor's basket lines.
func (r *Postgres) Basket(ctx context.Context, visitorID uuid.UUID) ([]domain.BasketLine, error) {
	rows, err := r.db.QueryContext(ctx, listBasketLines, visitorID)
	if err != nil {
		return nil, fmt.Errorf("query basket: %w", err)
	}
	defer rows.Close()

	var out []domain.BasketLine
	for rows.Next() {
		var l domain.BasketLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Price, &l.Quantity, &l.SelectedSize, &l.SelectedColor); err != nil {
			return nil, fmt.Errorf("scan basket line: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate basket: %w", err)
	}
	return out, nil
}

const getProfile = `
SELECT id, full_name, email, avatar, date_joined
FROM profiles
WHERE id = $1`

// Profile returns the profile or a domain.ENOTFOUND error.
func (r *Postgres) Profile(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRowContext(ctx, getProfile, profileID).
		Scan(&p.ID, &p.FullName, &p.Email, &p.Avatar, &p.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("repository.profile", "profile", profileID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern using ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
