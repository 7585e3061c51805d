package models

import (
	"time"

	id "namereg/pkg/domain"
)

// Validity is the entitlement window granted with a registration.
const Validity = 365 * 24 * time.Hour

// Subscription is the time-bounded entitlement created alongside a
// successful registration. The record is never deleted; an administrative
// pause forces IsActive false while the row stays.
type Subscription struct {
	User           id.PrincipalID `json:"user"`
	RegisteredName string         `json:"registered_name"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	PaymentID      id.PaymentID   `json:"payment_id"`
	IsActive       bool           `json:"is_active"`
}

// NewSubscription builds the one-year subscription funded by paymentID.
func NewSubscription(user id.PrincipalID, registeredName string, paymentID id.PaymentID, now time.Time) *Subscription {
	return &Subscription{
		User:           user,
		RegisteredName: registeredName,
		StartTime:      now,
		EndTime:        now.Add(Validity),
		PaymentID:      paymentID,
		IsActive:       true,
	}
}

// IsCurrent reports whether the subscription is active and inside its
// validity window at t.
func (s *Subscription) IsCurrent(t time.Time) bool {
	return s.IsActive && !t.Before(s.StartTime) && t.Before(s.EndTime)
}
