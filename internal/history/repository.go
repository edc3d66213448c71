package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockpilot/internal/contracts"
)

// Entry is one recorded screening request
type Entry struct {
	ID           int64                  `json:"id"`
	SessionID    string                 `json:"session_id"`
	Query        string                 `json:"query"`
	Status       contracts.Status       `json:"status"`
	IntentSource contracts.IntentSource `json:"intent_source"`
	Intent       contracts.Intent       `json:"intent"`
	Symbols      []string               `json:"symbols"`
	TotalMatched int                    `json:"total_matched"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Store is the query history the API and scheduler depend on
type Store interface {
	contracts.QueryRecorder
	ListRecent(ctx context.Context, sessionID string, limit int) ([]Entry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repository handles query history persistence
// ⭐ SSOT: 검색 이력 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new history repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS app;

	CREATE TABLE IF NOT EXISTS app.screen_queries (
		id            BIGSERIAL PRIMARY KEY,
		session_id    TEXT        NOT NULL,
		query         TEXT        NOT NULL,
		status        TEXT        NOT NULL,
		intent_source TEXT        NOT NULL,
		intent        JSONB       NOT NULL,
		symbols       TEXT[]      NOT NULL DEFAULT '{}',
		total_matched INTEGER     NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS screen_queries_session_idx
		ON app.screen_queries (session_id, created_at DESC);
`

// EnsureSchema creates the history table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure history schema: %w", err)
	}
	return nil
}

// Record saves one screening request
func (r *Repository) Record(ctx context.Context, sessionID, query string, result *contracts.ScreenResult) error {
	intentJSON, err := json.Marshal(result.Intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO app.screen_queries (
			session_id, query, status, intent_source, intent, symbols, total_matched
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sessionID, query, string(result.Status), string(result.IntentSource),
		intentJSON, result.Symbols(), result.TotalMatched)
	if err != nil {
		return fmt.Errorf("failed to save screen query: %w", err)
	}

	return nil
}

// ListRecent returns the newest entries for a session
func (r *Repository) ListRecent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, query, status, intent_source, intent, symbols, total_matched, created_at
		FROM app.screen_queries
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (Entry, error) {
	var (
		e          Entry
		status     string
		source     string
		intentJSON []byte
	)

	if err := row.Scan(&e.ID, &e.SessionID, &e.Query, &status, &source,
		&intentJSON, &e.Symbols, &e.TotalMatched, &e.CreatedAt); err != nil {
		return Entry{}, err
	}

	if err := json.Unmarshal(intentJSON, &e.Intent); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal intent: %w", err)
	}
	e.Status = contracts.Status(status)
	e.IntentSource = contracts.IntentSource(source)
	return e, nil
}

// DeleteOlderThan removes entries created before cutoff
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM app.screen_queries WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history: %w", err)
	}
	return tag.RowsAffected(), nil
}
