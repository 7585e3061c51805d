package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namereg/internal/subscription/models"
	id "namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
)

// Postgres persists subscriptions keyed by user.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the subscriptions table if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS subscriptions (
			user_principal  TEXT PRIMARY KEY,
			registered_name TEXT NOT NULL,
			start_time      TIMESTAMPTZ NOT NULL,
			end_time        TIMESTAMPTZ NOT NULL,
			payment_id      UUID NOT NULL,
			is_active       BOOLEAN NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure subscriptions schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, sub *models.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (user_principal, registered_name, start_time, end_time, payment_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.User.String(), sub.RegisteredName, sub.StartTime, sub.EndTime,
		sub.PaymentID.String(), sub.IsActive)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *Postgres) FindByUser(ctx context.Context, user id.PrincipalID) (*models.Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_principal, registered_name, start_time, end_time, payment_id, is_active
		FROM subscriptions WHERE user_principal = $1`, user.String())
	return scanSubscription(row)
}

func (s *Postgres) SetActive(ctx context.Context, user id.PrincipalID, active bool) (*models.Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET is_active = $2 WHERE user_principal = $1
		RETURNING user_principal, registered_name, start_time, end_time, payment_id, is_active`,
		user.String(), active)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	var user, rawPaymentID string
	err := row.Scan(&user, &sub.RegisteredName, &sub.StartTime, &sub.EndTime,
		&rawPaymentID, &sub.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	paymentID, err := id.ParsePaymentID(rawPaymentID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription payment id: %w", err)
	}
	sub.User = id.PrincipalID(user)
	sub.PaymentID = paymentID
	return &sub, nil
}
