package store

import (
	"context"
	"sort"
	"sync"

	"namereg/internal/payment/models"
	id "namereg/pkg/domain"
)

// InMemory keeps the consumed-reference set and payment records in
// mutex-guarded maps. ConsumeIfUnused is the check-and-mark critical
// section: the lock covers both, so two callers racing on one reference
// can never both win.
type InMemory struct {
	mu       sync.RWMutex
	consumed map[id.BlockRef]struct{}
	payments map[id.PaymentID]*models.VerifiedPayment
}

func NewInMemory() *InMemory {
	return &InMemory{
		consumed: make(map[id.BlockRef]struct{}),
		payments: make(map[id.PaymentID]*models.VerifiedPayment),
	}
}

// IsUsed reports whether a block reference has already funded a
// registration.
func (s *InMemory) IsUsed(_ context.Context, ref id.BlockRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, used := s.consumed[ref]
	return used, nil
}

// ConsumeIfUnused marks ref consumed and reports whether this caller won.
// A false return means another registration already holds the reference.
func (s *InMemory) ConsumeIfUnused(_ context.Context, ref id.BlockRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.consumed[ref]; used {
		return false, nil
	}
	s.consumed[ref] = struct{}{}
	return true, nil
}

// Record appends a verified payment.
func (s *InMemory) Record(_ context.Context, payment *models.VerifiedPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *payment
	s.payments[stored.ID] = &stored
	return nil
}

// ListByPayer returns the payer's payments, oldest first.
func (s *InMemory) ListByPayer(_ context.Context, payer id.PrincipalID) ([]*models.VerifiedPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VerifiedPayment
	for _, payment := range s.payments {
		if payment.Payer == payer {
			copied := *payment
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VerifiedAt.Before(out[j].VerifiedAt) })
	return out, nil
}
