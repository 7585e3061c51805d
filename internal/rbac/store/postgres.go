package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namereg/internal/rbac/models"
	id "namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
)

// rolesLockKey serializes Upsert transactions. The last-admin guard depends
// on a table-wide admin count, so row locks alone are not enough.
const rolesLockKey = int64(0x726f6c6573) // "roles"

// Postgres persists role assignments in the role_assignments table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the role_assignments table if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS role_assignments (
			principal   TEXT PRIMARY KEY,
			role        TEXT NOT NULL,
			assigned_by TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure role_assignments schema: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, principal id.PrincipalID) (models.Assignment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT principal, role, assigned_by, created_at, updated_at
		FROM role_assignments WHERE principal = $1`, principal.String())
	return scanAssignment(row)
}

func (s *Postgres) List(ctx context.Context) ([]models.Assignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT principal, role, assigned_by, created_at, updated_at
		FROM role_assignments ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var out []models.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment)
	}
	return out, rows.Err()
}

func (s *Postgres) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM role_assignments WHERE role = 'admin'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

func (s *Postgres) Upsert(ctx context.Context, assignment models.Assignment, validate func(current models.Role, adminCount int) error) (models.Assignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, rolesLockKey); err != nil {
		return models.Assignment{}, fmt.Errorf("acquire roles lock: %w", err)
	}

	current := models.RoleGuest
	var createdAt = assignment.CreatedAt
	err = tx.QueryRow(ctx, `
		SELECT role, created_at FROM role_assignments WHERE principal = $1`,
		assignment.Principal.String()).Scan(&current, &createdAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.Assignment{}, fmt.Errorf("read current role: %w", err)
	}

	var adminCount int
	if err := tx.QueryRow(ctx, `
		SELECT count(*) FROM role_assignments WHERE role = 'admin'`).Scan(&adminCount); err != nil {
		return models.Assignment{}, fmt.Errorf("count admins: %w", err)
	}

	if validate != nil {
		if err := validate(current, adminCount); err != nil {
			return models.Assignment{}, err
		}
	}

	assignment.CreatedAt = createdAt
	_, err = tx.Exec(ctx, `
		INSERT INTO role_assignments (principal, role, assigned_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (principal) DO UPDATE
		SET role = EXCLUDED.role, assigned_by = EXCLUDED.assigned_by, updated_at = EXCLUDED.updated_at`,
		assignment.Principal.String(), string(assignment.Role),
		assignment.AssignedBy.String(), assignment.CreatedAt, assignment.UpdatedAt)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("upsert role assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Assignment{}, fmt.Errorf("commit upsert: %w", err)
	}
	return assignment, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (models.Assignment, error) {
	var a models.Assignment
	var principal, role, assignedBy string
	err := row.Scan(&principal, &role, &assignedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Assignment{}, sentinel.ErrNotFound
		}
		return models.Assignment{}, fmt.Errorf("scan role assignment: %w", err)
	}
	a.Principal = id.PrincipalID(principal)
	a.Role = models.Role(role)
	a.AssignedBy = id.PrincipalID(assignedBy)
	return a, nil
}
