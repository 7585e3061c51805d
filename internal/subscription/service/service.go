package service

import (
	"context"
	"errors"
	"log/slog"

	"namereg/internal/subscription/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/requestcontext"
)

// SubscriptionStore persists subscriptions keyed by user.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByUser(ctx context.Context, user id.PrincipalID) (*models.Subscription, error)
	SetActive(ctx context.Context, user id.PrincipalID, active bool) (*models.Subscription, error)
}

// AdminGate authorizes the administrative pause/resume actions.
type AdminGate interface {
	RequireAdmin(ctx context.Context, caller id.PrincipalID) error
}

// Service owns the subscription entitlements granted with registrations.
type Service struct {
	subs   SubscriptionStore
	gate   AdminGate
	logger *slog.Logger
}

func New(subs SubscriptionStore, gate AdminGate, logger *slog.Logger) *Service {
	return &Service{subs: subs, gate: gate, logger: logger}
}

// Grant creates the one-year subscription for a fresh registration. Called
// by the registration flow only, after payment verification.
func (s *Service) Grant(ctx context.Context, user id.PrincipalID, registeredName string, paymentID id.PaymentID) (*models.Subscription, error) {
	sub := models.NewSubscription(user, registeredName, paymentID, requestcontext.Now(ctx))
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create subscription")
	}

	s.logger.InfoContext(ctx, "subscription granted",
		"user", user.String(),
		"registered_name", registeredName,
		"ends_at", sub.EndTime,
	)
	return sub, nil
}

// Mine returns the caller's own subscription, or NotFound.
func (s *Service) Mine(ctx context.Context, caller id.PrincipalID) (*models.Subscription, error) {
	if caller.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subscription lookup requires an authenticated caller")
	}
	return s.find(ctx, caller)
}

// Pause forces a subscription inactive. Admin only; the record survives.
func (s *Service) Pause(ctx context.Context, caller, user id.PrincipalID) (*models.Subscription, error) {
	return s.setActive(ctx, caller, user, false)
}

// Resume reactivates a paused subscription. Admin only. The validity window
// is unchanged; a subscription past its EndTime stays expired.
func (s *Service) Resume(ctx context.Context, caller, user id.PrincipalID) (*models.Subscription, error) {
	return s.setActive(ctx, caller, user, true)
}

func (s *Service) setActive(ctx context.Context, caller, user id.PrincipalID, active bool) (*models.Subscription, error) {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	sub, err := s.subs.SetActive(ctx, user, active)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user has no subscription")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update subscription")
	}

	s.logger.InfoContext(ctx, "subscription state changed",
		"user", user.String(),
		"is_active", active,
		"changed_by", caller.String(),
	)
	return sub, nil
}

func (s *Service) find(ctx context.Context, user id.PrincipalID) (*models.Subscription, error) {
	sub, err := s.subs.FindByUser(ctx, user)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user has no subscription")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "subscription lookup failed")
	}
	return sub, nil
}
