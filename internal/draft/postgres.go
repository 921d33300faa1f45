// internal/draft/postgres.go
package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"infinz-leadgen/internal/models"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS wizard_drafts (
	id             TEXT PRIMARY KEY,
	payload        JSONB NOT NULL,
	schema_version INTEGER NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

	getSQL = `SELECT payload FROM wizard_drafts WHERE id = $1 AND expires_at > $2`

	upsertSQL = `INSERT INTO wizard_drafts (id, payload, schema_version, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	payload = EXCLUDED.payload,
	schema_version = EXCLUDED.schema_version,
	expires_at = EXCLUDED.expires_at,
	updated_at = EXCLUDED.updated_at`

	deleteSQL = `DELETE FROM wizard_drafts WHERE id = $1`

	purgeSQL = `DELETE FROM wizard_drafts WHERE expires_at <= $1`
)

// PostgresStore keeps drafts in the wizard_drafts table as JSONB.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	s.now = now
	return s
}

// EnsureSchema creates the drafts table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create wizard_drafts: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, getSQL, id, s.now().UTC()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query draft: %w", err)
	}
	return decode(payload)
}

func (s *PostgresStore) Set(ctx context.Context, id string, d *models.Draft) error {
	payload, err := encode(d)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, upsertSQL, id, payload, d.SchemaVersion, now.Add(s.ttl), now); err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteSQL, id); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, purgeSQL, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return res.RowsAffected()
}
