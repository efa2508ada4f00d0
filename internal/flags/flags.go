// Package flags persists the client-side flags the theme keeps in cookies
// and storage: consent and age gates, the newsletter marker, the single-use
// load-more scroll anchor, plus view preferences like the collection view
// mode.
package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opencubicles/healthkart-dubai/internal/db"
)

// Well-known flag names.
const (
	CookieBar          = "cookie-bar"
	Accessible         = "accessible"
	AgeConfirmed       = "age"
	HasNewsletter      = "has-newsletter"
	LoadMoreItemAnchor = "loadMoreItemClicked"
)

// Options controls how a flag is stored.
type Options struct {
	// SingleUse flags are consumed by the first read.
	SingleUse bool
	// TTL expires the flag that long after it is set; zero keeps it.
	TTL time.Duration
}

// Store reads and writes client flags.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a flag store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Set writes the flag, replacing any existing value.
func (s *Store) Set(ctx context.Context, name, value string, opts Options) error {
	var expires any
	if opts.TTL > 0 {
		expires = s.now().Add(opts.TTL).UTC().Format(time.RFC3339)
	}
	singleUse := 0
	if opts.SingleUse {
		singleUse = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_flags (name, value, single_use, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   value = excluded.value,
		   single_use = excluded.single_use,
		   expires_at = excluded.expires_at`,
		name, value, singleUse, expires)
	if err != nil {
		return fmt.Errorf("set flag %s: %w", name, err)
	}
	return nil
}

// Get reads the flag. Expired flags read as absent; a single-use flag is
// consumed by the read that returns it.
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	var singleUse int
	var expires sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT value, single_use, expires_at FROM client_flags WHERE name = ?`,
		name).Scan(&value, &singleUse, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get flag %s: %w", name, err)
	}

	if expires.Valid {
		at, perr := time.Parse(time.RFC3339, expires.String)
		if perr == nil && !s.now().Before(at) {
			_, _ = s.db.ExecContext(ctx, `DELETE FROM client_flags WHERE name = ?`, name)
			return "", false, nil
		}
	}
	if singleUse == 1 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM client_flags WHERE name = ?`, name); err != nil {
			return "", false, fmt.Errorf("consume flag %s: %w", name, err)
		}
	}
	return value, true, nil
}

// Clear removes the flag.
func (s *Store) Clear(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM client_flags WHERE name = ?`, name); err != nil {
		return fmt.Errorf("clear flag %s: %w", name, err)
	}
	return nil
}

// SetPreference stores a durable view preference, like the collection view
// mode.
func (s *Store) SetPreference(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO view_preferences (name, value, updated_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT(name) DO UPDATE SET
		   value = excluded.value,
		   updated_at = datetime('now')`,
		name, value)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", name, err)
	}
	return nil
}

// Preference reads a view preference.
func (s *Store) Preference(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM view_preferences WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", name, err)
	}
	return value, true, nil
}
