// Package recent implements the recently-viewed products store: a capped
// most-recent-first list persisted in SQLite.
package recent

import (
	"context"
	"fmt"

	"github.com/opencubicles/healthkart-dubai/internal/db"
)

// Product is one recently-viewed entry.
type Product struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Store tracks viewed products up to a fixed capacity. Recording a product
// already on the list moves it to the front without growing the list; at
// capacity the oldest entry is evicted.
type Store struct {
	db    *db.DB
	limit int
}

// NewStore creates a store with the given capacity. A non-positive limit
// falls back to 12, the theme's default.
func NewStore(database *db.DB, limit int) *Store {
	if limit <= 0 {
		limit = 12
	}
	return &Store{db: database, limit: limit}
}

// Record marks the product as just viewed. Position 0 is most recent.
func (s *Store) Record(ctx context.Context, id, url string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	// Shift everything down, move (or insert) the product at the front,
	// then trim past the cap. Re-recording an existing product replaces its
	// row, so the list never grows from a repeat view.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recent_products WHERE product_id = ?`, id); err != nil {
		return fmt.Errorf("drop prior entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE recent_products SET position = position + 1`); err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recent_products (product_id, product_url, position, viewed_at)
		 VALUES (?, ?, 0, datetime('now'))`, id, url); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recent_products WHERE position >= ?`, s.limit); err != nil {
		return fmt.Errorf("trim to cap: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// List returns the entries most-recent-first.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, product_url FROM recent_products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list recent products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.URL); err != nil {
			return nil, fmt.Errorf("scan recent product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Prune drops entries past the cap, for stores whose limit shrank.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recent_products WHERE position >= ?`, s.limit)
	if err != nil {
		return 0, fmt.Errorf("prune recent products: %w", err)
	}
	return res.RowsAffected()
}
