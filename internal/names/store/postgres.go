package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"namereg/internal/names/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
)

// Postgres persists name records in the names table. Both uniqueness rules
// are declared as constraints, so Commit maps the constraint violation back
// to the matching domain error instead of pre-checking.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the names table if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS names (
			name         TEXT PRIMARY KEY,
			address      TEXT NOT NULL,
			address_type TEXT NOT NULL,
			owner        TEXT NOT NULL,
			season_id    BIGINT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL,
			CONSTRAINT names_owner_unique UNIQUE (owner)
		)`)
	if err != nil {
		return fmt.Errorf("ensure names schema: %w", err)
	}
	return nil
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.NameRecord, error) {
	row := s.pool.QueryRow(ctx, selectName+` WHERE name = $1`, name)
	return scanName(row)
}

func (s *Postgres) FindByOwner(ctx context.Context, owner id.PrincipalID) (*models.NameRecord, error) {
	row := s.pool.QueryRow(ctx, selectName+` WHERE owner = $1`, owner.String())
	return scanName(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.NameRecord, error) {
	rows, err := s.pool.Query(ctx, selectName+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var out []*models.NameRecord
	for rows.Next() {
		record, err := scanName(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Postgres) CountBySeason(ctx context.Context, seasonID id.SeasonID) (uint32, error) {
	var count uint32
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM names WHERE season_id = $1`, uint64(seasonID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count season names: %w", err)
	}
	return count, nil
}

// Commit inserts a record. Uniqueness violations from the name key and the
// owner constraint surface as NameTaken and AlreadyRegistered respectively.
func (s *Postgres) Commit(ctx context.Context, record *models.NameRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO names (name, address, address_type, owner, season_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.Name, record.Address, string(record.AddressType),
		record.Owner.String(), uint64(record.SeasonID),
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "names_owner_unique" {
				return dErrors.New(dErrors.CodeAlreadyRegistered, "owner already holds a name")
			}
			return dErrors.Newf(dErrors.CodeNameTaken, "name %q is already registered", record.Name)
		}
		return fmt.Errorf("insert name record: %w", err)
	}
	return nil
}

func (s *Postgres) TouchUpdated(ctx context.Context, name string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE names SET updated_at = $2 WHERE name = $1`, name, now)
	if err != nil {
		return fmt.Errorf("touch name record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectName = `
	SELECT name, address, address_type, owner, season_id, created_at, updated_at
	FROM names`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanName(row rowScanner) (*models.NameRecord, error) {
	var record models.NameRecord
	var addressType, owner string
	err := row.Scan(&record.Name, &record.Address, &addressType, &owner,
		&record.SeasonID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan name record: %w", err)
	}
	record.AddressType = models.AddressType(addressType)
	record.Owner = id.PrincipalID(owner)
	return &record, nil
}
