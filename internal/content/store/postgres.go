package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namereg/internal/content/models"
	"namereg/pkg/platform/sentinel"
)

// Postgres persists name content in a single keyed table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the content table if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS name_content (
			name       TEXT NOT NULL,
			kind       TEXT NOT NULL,
			body       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (name, kind)
		)`)
	if err != nil {
		return fmt.Errorf("ensure content schema: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, name string, kind models.Kind) (*models.Entry, error) {
	var entry models.Entry
	var rawKind string
	err := s.pool.QueryRow(ctx, `
		SELECT name, kind, body, updated_at FROM name_content
		WHERE name = $1 AND kind = $2`, name, string(kind)).
		Scan(&entry.Name, &rawKind, &entry.Body, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get name content: %w", err)
	}
	entry.Kind = models.Kind(rawKind)
	return &entry, nil
}

func (s *Postgres) Put(ctx context.Context, entry *models.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO name_content (name, kind, body, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, kind) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`,
		entry.Name, string(entry.Kind), entry.Body, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put name content: %w", err)
	}
	return nil
}
