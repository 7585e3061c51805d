// Package domain holds the identifier types shared across modules. Keeping
// them typed (instead of bare strings and ints) lets the compiler catch a
// season id being passed where a block reference belongs.
package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// PrincipalID identifies a caller. Principals arrive as opaque textual
// identities from the auth layer; the zero value means "no caller".
type PrincipalID string

// Anonymous is the principal assigned to unauthenticated callers. It can
// never hold a role above guest.
const Anonymous PrincipalID = "2vxsx-fae"

func (p PrincipalID) IsZero() bool {
	return p == ""
}

func (p PrincipalID) IsAnonymous() bool {
	return p == Anonymous || p.IsZero()
}

func (p PrincipalID) String() string {
	return string(p)
}

// SeasonID is assigned monotonically at season creation and never reused.
type SeasonID uint64

func (s SeasonID) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSeasonID parses a decimal season id as it appears in URLs.
func ParseSeasonID(raw string) (SeasonID, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return SeasonID(n), nil
}

// BlockRef is the external ledger's index for a recorded transaction. It is
// the payment proof a caller presents, and the key of the anti-replay set.
type BlockRef uint64

func (b BlockRef) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// ParseBlockRef parses a decimal block reference from request payloads.
func ParseBlockRef(raw string) (BlockRef, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return BlockRef(n), nil
}

// PaymentID identifies a verified payment record. It doubles as the success
// signal returned from a registration.
type PaymentID uuid.UUID

// NewPaymentID allocates a fresh payment id.
func NewPaymentID() PaymentID {
	return PaymentID(uuid.New())
}

func (p PaymentID) String() string {
	return uuid.UUID(p).String()
}

func (p PaymentID) IsNil() bool {
	return uuid.UUID(p) == uuid.Nil
}

// MarshalText keeps the canonical UUID form on the wire; without it the
// underlying byte array would serialize as numbers.
func (p PaymentID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PaymentID) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentID(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePaymentID parses a payment id from its textual form.
func ParsePaymentID(raw string) (PaymentID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return PaymentID{}, err
	}
	return PaymentID(u), nil
}
