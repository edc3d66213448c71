package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles price alert persistence
// ⭐ SSOT: 가격 알림 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new alert repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS app;

	CREATE TABLE IF NOT EXISTS app.price_alerts (
		id              BIGSERIAL PRIMARY KEY,
		session_id      TEXT             NOT NULL,
		symbol          TEXT             NOT NULL,
		target_price    DOUBLE PRECISION NOT NULL CHECK (target_price > 0),
		direction       TEXT             NOT NULL CHECK (direction IN ('above', 'below')),
		email           TEXT             NOT NULL DEFAULT '',
		active          BOOLEAN          NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		triggered_at    TIMESTAMPTZ,
		triggered_price DOUBLE PRECISION
	);

	CREATE INDEX IF NOT EXISTS price_alerts_session_idx
		ON app.price_alerts (session_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS price_alerts_pending_idx
		ON app.price_alerts (symbol) WHERE active;
`

const alertColumns = `id, session_id, symbol, target_price, direction, email, active, created_at, triggered_at, triggered_price`

// EnsureSchema creates the alert table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure alert schema: %w", err)
	}
	return nil
}

// Create inserts a and fills its id and creation time
func (r *Repository) Create(ctx context.Context, a *Alert) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO app.price_alerts (session_id, symbol, target_price, direction, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.SessionID, a.Symbol, a.TargetPrice, string(a.Direction), a.Email).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	a.Active = true
	return nil
}

// List returns the session's alerts, newest first
func (r *Repository) List(ctx context.Context, sessionID string, activeOnly bool) ([]Alert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM app.price_alerts
		WHERE session_id = $1 AND (active OR NOT $2)
		ORDER BY created_at DESC, id DESC
	`, sessionID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}

	alerts, err := pgx.CollectRows(rows, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("failed to scan alerts: %w", err)
	}
	return alerts, nil
}

// CountActive counts the session's active alerts
func (r *Repository) CountActive(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM app.price_alerts WHERE session_id = $1 AND active",
		sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// Delete removes one of the session's alerts
func (r *Repository) Delete(ctx context.Context, sessionID string, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM app.price_alerts WHERE id = $1 AND session_id = $2", id, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Pending returns every active alert, oldest first
func (r *Repository) Pending(ctx context.Context) ([]Alert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+alertColumns+`
		FROM app.price_alerts
		WHERE active
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending alerts: %w", err)
	}

	alerts, err := pgx.CollectRows(rows, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending alerts: %w", err)
	}
	return alerts, nil
}

// MarkTriggered deactivates an active alert. The WHERE active guard
// keeps two concurrent checkers from firing the same alert twice.
func (r *Repository) MarkTriggered(ctx context.Context, id int64, price float64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app.price_alerts
		SET active = FALSE, triggered_at = $2, triggered_price = $3
		WHERE id = $1 AND active
	`, id, at, price)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanAlert(row pgx.CollectableRow) (Alert, error) {
	var (
		a         Alert
		direction string
	)
	if err := row.Scan(&a.ID, &a.SessionID, &a.Symbol, &a.TargetPrice, &direction, &a.Email,
		&a.Active, &a.CreatedAt, &a.TriggeredAt, &a.TriggeredPrice); err != nil {
		return Alert{}, err
	}
	a.Direction = Direction(direction)
	return a, nil
}
