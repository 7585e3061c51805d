package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"namereg/internal/payment/models"
	id "namereg/pkg/domain"
)

// Postgres persists the consumed-reference set and payment records. The
// consumed set is a bare primary-key table: the insert either lands or hits
// the key, which makes ConsumeIfUnused atomic without explicit locking.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the payment tables if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS consumed_refs (
			block_ref   BIGINT PRIMARY KEY,
			consumed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS payments (
			id              UUID PRIMARY KEY,
			payer           TEXT NOT NULL,
			amount          BIGINT NOT NULL,
			block_ref       BIGINT NOT NULL,
			verified_at     TIMESTAMPTZ NOT NULL,
			registered_name TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS payments_payer_idx ON payments (payer)`)
	if err != nil {
		return fmt.Errorf("ensure payment schema: %w", err)
	}
	return nil
}

func (s *Postgres) IsUsed(ctx context.Context, ref id.BlockRef) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM consumed_refs WHERE block_ref = $1)`,
		int64(ref)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check consumed reference: %w", err)
	}
	return exists, nil
}

// ConsumeIfUnused inserts ref into the consumed set. Losing the race shows
// up as a unique violation, which reports false rather than an error.
func (s *Postgres) ConsumeIfUnused(ctx context.Context, ref id.BlockRef) (bool, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consumed_refs (block_ref) VALUES ($1)`, int64(ref))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("consume reference: %w", err)
	}
	return true, nil
}

func (s *Postgres) Record(ctx context.Context, payment *models.VerifiedPayment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, payer, amount, block_ref, verified_at, registered_name)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID.String(), payment.Payer.String(), int64(payment.Amount),
		int64(payment.BlockRef), payment.VerifiedAt, payment.RegisteredName)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Postgres) ListByPayer(ctx context.Context, payer id.PrincipalID) ([]*models.VerifiedPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payer, amount, block_ref, verified_at, registered_name
		FROM payments WHERE payer = $1 ORDER BY verified_at`,
		payer.String())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*models.VerifiedPayment
	for rows.Next() {
		var payment models.VerifiedPayment
		var rawID, rawPayer string
		var amount, blockRef int64
		err := rows.Scan(&rawID, &rawPayer, &amount, &blockRef,
			&payment.VerifiedAt, &payment.RegisteredName)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		parsed, err := id.ParsePaymentID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse payment id: %w", err)
		}
		payment.ID = parsed
		payment.Payer = id.PrincipalID(rawPayer)
		payment.Amount = uint64(amount)
		payment.BlockRef = id.BlockRef(blockRef)
		out = append(out, &payment)
	}
	return out, rows.Err()
}
