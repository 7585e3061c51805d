package models

import (
	"time"

	id "namereg/pkg/domain"
)

// VerifiedPayment records one ledger transfer that funded a registration.
//
// Invariants:
//   - BlockRef backs at most one payment, ever (the consumed-reference set
//     is the authority; this record is the audit trail)
//   - created atomically with the name record it funds; append-only
type VerifiedPayment struct {
	ID             id.PaymentID   `json:"id"`
	Payer          id.PrincipalID `json:"payer"`
	Amount         uint64         `json:"amount"`
	BlockRef       id.BlockRef    `json:"block_ref"`
	VerifiedAt     time.Time      `json:"verified_at"`
	RegisteredName string         `json:"registered_name"`
}

// NewVerifiedPayment builds the payment record written alongside a
// successful registration.
func NewVerifiedPayment(payer id.PrincipalID, amount uint64, ref id.BlockRef, registeredName string, now time.Time) *VerifiedPayment {
	return &VerifiedPayment{
		ID:             id.NewPaymentID(),
		Payer:          payer,
		Amount:         amount,
		BlockRef:       ref,
		VerifiedAt:     now,
		RegisteredName: registeredName,
	}
}
