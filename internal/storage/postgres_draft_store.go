package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"slate-workspace/go-backend/pkg/models"
)

const pgUniqueViolation = "23505"

const draftsSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	seq             BIGSERIAL PRIMARY KEY,
	id              TEXT UNIQUE NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	preview_url     TEXT NOT NULL DEFAULT '',
	created_at      BIGINT NOT NULL,
	updated_at      BIGINT NOT NULL,
	approval_status SMALLINT NOT NULL CHECK (approval_status BETWEEN 0 AND 2),
	duration        DOUBLE PRECISION NOT NULL CHECK (duration >= 0)
)`

// PostgresDraftStore serves drafts from a Postgres table. Host order is insertion order.
type PostgresDraftStore struct {
	DB           *sql.DB
	QueryTimeout time.Duration
}

// OpenPostgresDraftStore opens the database, verifies the connection and ensures the
// drafts table exists.
func OpenPostgresDraftStore(ctx context.Context, dsn string) (*PostgresDraftStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open drafts db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping drafts db: %w", err)
	}
	if _, err := db.ExecContext(pingCtx, draftsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure drafts schema: %w", err)
	}
	return &PostgresDraftStore{DB: db, QueryTimeout: 5 * time.Second}, nil
}

func (s *PostgresDraftStore) Close() error {
	return s.DB.Close()
}

func (s *PostgresDraftStore) ListDrafts(ctx context.Context) ([]models.Draft, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, preview_url, created_at, updated_at, approval_status, duration
		FROM drafts
		ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Draft, 0)
	for rows.Next() {
		var d models.Draft
		if err := rows.Scan(&d.ID, &d.Title, &d.PreviewURL, &d.CreatedAt, &d.UpdatedAt, &d.ApprovalStatus, &d.Duration); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresDraftStore) GetDraft(ctx context.Context, id string) (models.Draft, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var d models.Draft
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, title, preview_url, created_at, updated_at, approval_status, duration
		FROM drafts
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Title, &d.PreviewURL, &d.CreatedAt, &d.UpdatedAt, &d.ApprovalStatus, &d.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return models.Draft{}, err
	}
	return d, nil
}

func (s *PostgresDraftStore) CreateDraft(ctx context.Context, draft models.Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO drafts (id, title, preview_url, created_at, updated_at, approval_status, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, draft.ID, draft.Title, draft.PreviewURL, draft.CreatedAt, draft.UpdatedAt, int(draft.ApprovalStatus), draft.Duration)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return ErrDraftIDConflict
	}
	return err
}

// SeedIfEmpty inserts drafts in order when the table has no rows.
func (s *PostgresDraftStore) SeedIfEmpty(ctx context.Context, drafts ...models.Draft) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed drafts: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE drafts IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("seed drafts: %w", err)
	}
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM drafts`).Scan(&count); err != nil {
		return fmt.Errorf("seed drafts: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("seed draft %s: %w", d.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO drafts (id, title, preview_url, created_at, updated_at, approval_status, duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, d.ID, d.Title, d.PreviewURL, d.CreatedAt, d.UpdatedAt, int(d.ApprovalStatus), d.Duration); err != nil {
			return fmt.Errorf("seed draft %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresDraftStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
