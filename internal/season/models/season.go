package models

import (
	"time"

	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

// SeasonStatus is the season lifecycle state.
//
// Transitions: Draft → Active, Active → Ended, Active → Cancelled.
// Ended and Cancelled are terminal and mutually exclusive: once a season
// reaches either, the other is unreachable.
type SeasonStatus string

const (
	SeasonStatusDraft     SeasonStatus = "draft"
	SeasonStatusActive    SeasonStatus = "active"
	SeasonStatusEnded     SeasonStatus = "ended"
	SeasonStatusCancelled SeasonStatus = "cancelled"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s SeasonStatus) CanTransitionTo(next SeasonStatus) bool {
	switch s {
	case SeasonStatusDraft:
		return next == SeasonStatusActive
	case SeasonStatusActive:
		return next == SeasonStatusEnded || next == SeasonStatusCancelled
	case SeasonStatusEnded, SeasonStatusCancelled:
		return false
	default:
		return false
	}
}

// Season is a time-boxed registration window with capacity and price.
//
// Invariants:
//   - StartTime < EndTime
//   - MinNameLength <= MaxNameLength, MinNameLength >= 1
//   - Price > 0, MaxNames >= 1
//   - at most one season is Active at any instant (enforced by the store,
//     which holds its lock across the exclusivity check and the transition)
//   - ID is assigned monotonically at creation and never reused
type Season struct {
	ID            id.SeasonID  `json:"id"`
	Name          string       `json:"name"`
	StartTime     time.Time    `json:"start_time"`
	EndTime       time.Time    `json:"end_time"`
	MaxNames      uint32       `json:"max_names"`
	MinNameLength uint32       `json:"min_name_length"`
	MaxNameLength uint32       `json:"max_name_length"`
	Price         uint64       `json:"price"`
	Status        SeasonStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewSeason validates parameters and builds a Draft season. The id is
// assigned by the store at creation.
func NewSeason(name string, start, end time.Time, maxNames, minLen, maxLen uint32, price uint64, now time.Time) (*Season, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "season name cannot be empty")
	}
	if !start.Before(end) {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "season start must precede end")
	}
	if minLen == 0 || minLen > maxLen {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "invalid name length bounds")
	}
	if price == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "season price must be positive")
	}
	if maxNames == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "season capacity must be positive")
	}
	return &Season{
		Name:          name,
		StartTime:     start,
		EndTime:       end,
		MaxNames:      maxNames,
		MinNameLength: minLen,
		MaxNameLength: maxLen,
		Price:         price,
		Status:        SeasonStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsOpenAt reports whether a registration at t falls inside the season
// window. Status is checked separately so callers can distinguish
// wrong-status from out-of-window if they need to.
func (s *Season) IsOpenAt(t time.Time) bool {
	return s.Status == SeasonStatusActive && !t.Before(s.StartTime) && !t.After(s.EndTime)
}

// AllowsNameLength reports whether a candidate name fits the season's
// length bounds. Length is measured in bytes, matching how names are keyed.
func (s *Season) AllowsNameLength(name string) bool {
	n := uint32(len(name))
	return n >= s.MinNameLength && n <= s.MaxNameLength
}

// CanActivate checks the Draft → Active transition.
func (s *Season) CanActivate() error {
	if !s.Status.CanTransitionTo(SeasonStatusActive) {
		return dErrors.Newf(dErrors.CodeNotDraft, "season %s is %s, not draft", s.ID, s.Status)
	}
	return nil
}

// ApplyActivation transitions the season to Active. Call CanActivate first;
// the store runs both under its lock.
func (s *Season) ApplyActivation(now time.Time) {
	s.Status = SeasonStatusActive
	s.UpdatedAt = now
}

// CanEnd checks the Active → Ended transition.
func (s *Season) CanEnd() error {
	if !s.Status.CanTransitionTo(SeasonStatusEnded) {
		return dErrors.Newf(dErrors.CodeNotActive, "season %s is %s, not active", s.ID, s.Status)
	}
	return nil
}

// ApplyEnd transitions the season to Ended.
func (s *Season) ApplyEnd(now time.Time) {
	s.Status = SeasonStatusEnded
	s.UpdatedAt = now
}

// CanCancel checks the Active → Cancelled transition.
func (s *Season) CanCancel() error {
	if !s.Status.CanTransitionTo(SeasonStatusCancelled) {
		return dErrors.Newf(dErrors.CodeNotActive, "season %s is %s, not active", s.ID, s.Status)
	}
	return nil
}

// ApplyCancel transitions the season to Cancelled.
func (s *Season) ApplyCancel(now time.Time) {
	s.Status = SeasonStatusCancelled
	s.UpdatedAt = now
}
