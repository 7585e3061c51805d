package models

import (
	"time"

	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

// AddressType says what kind of target a registered name points at.
type AddressType string

const (
	// AddressTypeIdentity points the name at a principal identity.
	AddressTypeIdentity AddressType = "identity"
	// AddressTypeService points the name at a hosted service target.
	AddressTypeService AddressType = "service"
)

// Valid reports whether t is a known address type.
func (t AddressType) Valid() bool {
	switch t {
	case AddressTypeIdentity, AddressTypeService:
		return true
	default:
		return false
	}
}

// ParseAddressType parses an address type from request payloads.
func ParseAddressType(raw string) (AddressType, error) {
	t := AddressType(raw)
	if !t.Valid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown address type %q", raw)
	}
	return t, nil
}

// NameRecord maps one registered name to its owner.
//
// Invariants:
//   - Name is unique across the whole service, not just within a season
//   - Owner appears in at most one record, ever
//   - records are created only through a verified registration, and are
//     never deleted; UpdatedAt is touched when associated content changes
type NameRecord struct {
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	AddressType AddressType    `json:"address_type"`
	Owner       id.PrincipalID `json:"owner"`
	SeasonID    id.SeasonID    `json:"season_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewNameRecord validates the fields that are checkable without store
// access. Length bounds belong to the season and are enforced upstream.
func NewNameRecord(name, address string, addressType AddressType, owner id.PrincipalID, seasonID id.SeasonID, now time.Time) (*NameRecord, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name cannot be empty")
	}
	if address == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "address cannot be empty")
	}
	if !addressType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown address type %q", addressType)
	}
	if owner.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "anonymous callers cannot own names")
	}
	return &NameRecord{
		Name:        name,
		Address:     address,
		AddressType: addressType,
		Owner:       owner,
		SeasonID:    seasonID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
