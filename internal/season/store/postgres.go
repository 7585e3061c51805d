package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namereg/internal/season/models"
	id "namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
)

// seasonsLockKey serializes season transitions. The single-active invariant
// spans rows, so Execute takes an advisory lock instead of relying on row
// locks alone.
const seasonsLockKey = int64(0x736561736f6e73) // "seasons"

// Postgres persists seasons in the seasons table. IDs come from a sequence,
// which preserves the monotonic, never-reused allocation the domain expects.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the seasons table if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS seasons (
			id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name            TEXT NOT NULL,
			start_time      TIMESTAMPTZ NOT NULL,
			end_time        TIMESTAMPTZ NOT NULL,
			max_names       INTEGER NOT NULL,
			min_name_length INTEGER NOT NULL,
			max_name_length INTEGER NOT NULL,
			price           BIGINT NOT NULL,
			status          TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure seasons schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, season *models.Season) (*models.Season, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO seasons (name, start_time, end_time, max_names, min_name_length,
			max_name_length, price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		season.Name, season.StartTime, season.EndTime, season.MaxNames,
		season.MinNameLength, season.MaxNameLength, season.Price,
		string(season.Status), season.CreatedAt, season.UpdatedAt,
	).Scan(&season.ID)
	if err != nil {
		return nil, fmt.Errorf("insert season: %w", err)
	}
	return season, nil
}

func (s *Postgres) FindByID(ctx context.Context, seasonID id.SeasonID) (*models.Season, error) {
	row := s.pool.QueryRow(ctx, selectSeason+` WHERE id = $1`, uint64(seasonID))
	return scanSeason(row)
}

func (s *Postgres) FindActive(ctx context.Context) (*models.Season, error) {
	row := s.pool.QueryRow(ctx, selectSeason+` WHERE status = 'active'`)
	return scanSeason(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Season, error) {
	rows, err := s.pool.Query(ctx, selectSeason+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var out []*models.Season
	for rows.Next() {
		season, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, season)
	}
	return out, rows.Err()
}

// Execute loads one season, runs validate with the cross-row active check,
// applies mutate, and writes back, all inside one advisory-locked
// transaction.
func (s *Postgres) Execute(ctx context.Context, seasonID id.SeasonID,
	validate func(season *models.Season, otherActive bool) error,
	mutate func(season *models.Season)) (*models.Season, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin season transition: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, seasonsLockKey); err != nil {
		return nil, fmt.Errorf("acquire seasons lock: %w", err)
	}

	season, err := scanSeason(tx.QueryRow(ctx, selectSeason+` WHERE id = $1`, uint64(seasonID)))
	if err != nil {
		return nil, err
	}

	var otherActive bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM seasons WHERE status = 'active' AND id <> $1)`,
		uint64(seasonID)).Scan(&otherActive)
	if err != nil {
		return nil, fmt.Errorf("check active seasons: %w", err)
	}

	if validate != nil {
		if err := validate(season, otherActive); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(season)
	}

	_, err = tx.Exec(ctx, `
		UPDATE seasons SET status = $2, updated_at = $3 WHERE id = $1`,
		uint64(season.ID), string(season.Status), season.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update season: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit season transition: %w", err)
	}
	return season, nil
}

const selectSeason = `
	SELECT id, name, start_time, end_time, max_names, min_name_length,
		max_name_length, price, status, created_at, updated_at
	FROM seasons`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeason(row rowScanner) (*models.Season, error) {
	var season models.Season
	var status string
	err := row.Scan(&season.ID, &season.Name, &season.StartTime, &season.EndTime,
		&season.MaxNames, &season.MinNameLength, &season.MaxNameLength,
		&season.Price, &status, &season.CreatedAt, &season.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan season: %w", err)
	}
	season.Status = models.SeasonStatus(status)
	return &season, nil
}
