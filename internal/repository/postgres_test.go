package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/shopnav/internal"
	"github.com/DukeRupert/shopnav/internal/domain"
)

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"hat", []string{"hat"}},
		{"hat, wool ,,winter", []string{"hat", "wool", "winter"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitKeywords(tt.in), "input %q", tt.in)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"hat", "hat"},
		{"100%", `100\%`},
		{"felt_hat", `felt\_hat`},
		{`a\b`, `a\\b`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), "input %q", tt.in)
	}
}

// openTestDB connects to TEST_DATABASE_URL and applies migrations, skipping
// the test when no database is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, internal.RunMigrations(db))
	return db
}

func TestPostgres_Integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := New(db)

	hat, scarf := uuid.New(), uuid.New()
	visitor, profileID := uuid.New(), uuid.New()
	brand := "brand-" + uuid.NewString()[:8]

	_, err := db.ExecContext(ctx, `INSERT INTO products (id, name, brand, price_cents, keywords) VALUES
		($1, 'Felt Hat', $3, 4000, '{felt,winter}'),
		($2, 'Wool Scarf', $3, 2500, '{wool}')`, hat, scarf, brand)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO basket_lines (visitor_id, product_id, quantity) VALUES ($1, $2, 1), ($1, $3, 2)`,
		visitor, hat, scarf)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO profiles (id, full_name, email) VALUES ($1, 'Ada Lovelace', $2)`,
		profileID, profileID.String()+"@example.com")
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM basket_lines WHERE visitor_id = $1`, visitor)
		_, _ = db.ExecContext(ctx, `DELETE FROM products WHERE brand = $1`, brand)
		_, _ = db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, profileID)
	})

	products, err := repo.Products(ctx, domain.Filter{Brand: brand, SortBy: domain.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Wool Scarf", products[0].Name)
	assert.Equal(t, []string{"felt", "winter"}, products[1].Keywords)

	products, err = repo.Products(ctx, domain.Filter{Brand: brand, Keyword: "winter"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, hat, products[0].ID)

	// Wildcards in the keyword match literally.
	for _, kw := range []string{"%", "_"} {
		products, err = repo.Products(ctx, domain.Filter{Brand: brand, Keyword: kw})
		require.NoError(t, err)
		assert.Empty(t, products, "keyword %q", kw)
	}

	lines, err := repo.Basket(ctx, visitor)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Felt Hat", lines[0].Name)
	assert.Equal(t, 2, lines[1].Quantity)

	profile, err := repo.Profile(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.FullName)

	_, err = repo.Profile(ctx, uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
