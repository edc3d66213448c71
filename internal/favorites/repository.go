package favorites

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles watchlist persistence
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new favorites repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS app;

	CREATE TABLE IF NOT EXISTS app.favorite_stocks (
		session_id TEXT        NOT NULL,
		symbol     TEXT        NOT NULL,
		name       TEXT        NOT NULL DEFAULT '',
		added_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_id, symbol)
	);
`

// EnsureSchema creates the favorites table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure favorites schema: %w", err)
	}
	return nil
}

// Add inserts f. ON CONFLICT DO NOTHING reports duplicates as zero rows.
func (r *Repository) Add(ctx context.Context, f Favorite) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO app.favorite_stocks (session_id, symbol, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, symbol) DO NOTHING
	`, f.SessionID, f.Symbol, f.Name)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes one favorite
func (r *Repository) Remove(ctx context.Context, sessionID, symbol string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM app.favorite_stocks WHERE session_id = $1 AND symbol = $2", sessionID, symbol)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns the session's favorites ordered by name
func (r *Repository) List(ctx context.Context, sessionID string) ([]Favorite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, symbol, name, added_at
		FROM app.favorite_stocks
		WHERE session_id = $1
		ORDER BY lower(name), symbol
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}

	favs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Favorite])
	if err != nil {
		return nil, fmt.Errorf("failed to scan favorites: %w", err)
	}
	return favs, nil
}
