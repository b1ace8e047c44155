package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pharmstock/inventory-service/internal/pkg/cuid2"
	"github.com/pharmstock/inventory-service/internal/types"
)

// CategoryStore provides CRUD over the categories table. It satisfies the
// importer.CategoryStore contract.
type CategoryStore struct {
	pool *pgxpool.Pool
}

// NewCategoryStore creates a category store on the given pool.
func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

// List returns every category ordered by name. The stable alphabetical
// order is what makes fuzzy-match tie-breaking deterministic.
func (s *CategoryStore) List(ctx context.Context) ([]types.CategoryRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	refs := make([]types.CategoryRef, 0)
	for rows.Next() {
		var ref types.CategoryRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CreateCategories inserts categories by name, returning a name -> ref map.
// Safe to call with names that already exist: the upsert returns the
// existing row instead of erroring, which is what makes retry after a
// partial mapping failure idempotent.
func (s *CategoryStore) CreateCategories(ctx context.Context, names []string) (map[string]types.CategoryRef, error) {
	refs := make(map[string]types.CategoryRef, len(names))

	for _, name := range names {
		id := cuid2.GeneratePrefixedId("cat", cuid2.PrefixedIdOptions{})

		var ref types.CategoryRef
		err := s.pool.QueryRow(ctx, `
			INSERT INTO categories (id, name, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, name
		`, id, name).Scan(&ref.ID, &ref.Name)
		if err != nil {
			return refs, fmt.Errorf("create category %q: %w", name, err)
		}
		refs[name] = ref
	}

	return refs, nil
}
