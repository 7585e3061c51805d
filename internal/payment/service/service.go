package service

import (
	"context"
	"log/slog"

	"namereg/internal/payment/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

// ConsumedStore is the anti-replay set of spent block references.
// ConsumeIfUnused must be atomic: check and mark under one lock (memory),
// SETNX (Redis), or a primary-key insert (Postgres). A reference, once
// consumed, stays consumed forever.
type ConsumedStore interface {
	IsUsed(ctx context.Context, ref id.BlockRef) (bool, error)
	ConsumeIfUnused(ctx context.Context, ref id.BlockRef) (bool, error)
}

// PaymentStore persists the append-only payment records.
type PaymentStore interface {
	Record(ctx context.Context, payment *models.VerifiedPayment) error
	ListByPayer(ctx context.Context, payer id.PrincipalID) ([]*models.VerifiedPayment, error)
}

// Service owns the consumed-reference set and payment history.
type Service struct {
	consumed ConsumedStore
	payments PaymentStore
	logger   *slog.Logger
}

func New(consumed ConsumedStore, payments PaymentStore, logger *slog.Logger) *Service {
	return &Service{consumed: consumed, payments: payments, logger: logger}
}

// IsReferenceUsed reports whether a block reference has already funded a
// registration. This is the cheap early check; the authoritative one is
// the ConsumeIfUnused compare-and-set.
func (s *Service) IsReferenceUsed(ctx context.Context, ref id.BlockRef) (bool, error) {
	used, err := s.consumed.IsUsed(ctx, ref)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "consumed-reference lookup failed")
	}
	return used, nil
}

// ConsumeIfUnused atomically marks ref as spent. A false return means
// another registration consumed it first.
func (s *Service) ConsumeIfUnused(ctx context.Context, ref id.BlockRef) (bool, error) {
	won, err := s.consumed.ConsumeIfUnused(ctx, ref)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume block reference")
	}
	return won, nil
}

// Record appends a verified payment to the history.
func (s *Service) Record(ctx context.Context, payment *models.VerifiedPayment) error {
	if err := s.payments.Record(ctx, payment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}
	s.logger.InfoContext(ctx, "payment recorded",
		"payment_id", payment.ID.String(),
		"payer", payment.Payer.String(),
		"block_ref", payment.BlockRef.String(),
	)
	return nil
}

// HistoryFor returns the caller's own payments, oldest first. Callers only
// ever see their own history.
func (s *Service) HistoryFor(ctx context.Context, caller id.PrincipalID) ([]*models.VerifiedPayment, error) {
	if caller.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "payment history requires an authenticated caller")
	}
	payments, err := s.payments.ListByPayer(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}
