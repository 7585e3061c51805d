package models

import (
	"time"

	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

// Role is the caller's authority level. Roles form a total order
// admin > user > guest; a higher role satisfies any lower requirement.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// rank orders roles for permission checks. Unknown values rank below guest
// so a corrupted assignment can never satisfy anything.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleUser:
		return 2
	case RoleGuest:
		return 1
	default:
		return 0
	}
}

// Satisfies reports whether a caller holding r meets the required role.
func (r Role) Satisfies(required Role) bool {
	return r.rank() >= required.rank() && r.rank() > 0
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	default:
		return false
	}
}

// ParseRole converts request input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", raw)
	}
	return role, nil
}

// Assignment records a principal's explicitly granted role. Principals with
// no assignment are guests.
type Assignment struct {
	Principal  id.PrincipalID `json:"principal"`
	Role       Role           `json:"role"`
	AssignedBy id.PrincipalID `json:"assigned_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewAssignment validates and builds an assignment.
//
// Invariants:
//   - the target principal is non-anonymous (anonymous callers are always
//     guests and can never be promoted)
//   - the role is one of the three known roles
func NewAssignment(target id.PrincipalID, role Role, assignedBy id.PrincipalID, now time.Time) (Assignment, error) {
	if target.IsAnonymous() {
		return Assignment{}, dErrors.New(dErrors.CodeBadRequest, "anonymous principal cannot hold a role")
	}
	if !role.Valid() {
		return Assignment{}, dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", role)
	}
	return Assignment{
		Principal:  target,
		Role:       role,
		AssignedBy: assignedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
