package audit

import (
	"time"

	id "namereg/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Actor     id.PrincipalID `json:"actor"`
	Action    string         `json:"action"`
	Subject   string         `json:"subject"`
	Detail    string         `json:"detail,omitempty"`
}

// Entry is an event as persisted: sequenced and chained to its predecessor
// by checksum. The chain makes after-the-fact tampering detectable; it
// carries no domain invariant.
type Entry struct {
	Sequence uint64 `json:"sequence"`
	Event
	Checksum string `json:"checksum"`
}

// Actions recorded by the registration service.
const (
	ActionSeasonCreated      = "season.created"
	ActionSeasonTransitioned = "season.transitioned"
	ActionNameRegistered     = "name.registered"
	ActionRoleAssigned       = "role.assigned"
	ActionSubscriptionPaused = "subscription.paused"
)
