package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "namereg/pkg/domain-errors"
)

type SeasonModelSuite struct {
	suite.Suite
	now time.Time
}

func TestSeasonModelSuite(t *testing.T) {
	suite.Run(t, new(SeasonModelSuite))
}

func (s *SeasonModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *SeasonModelSuite) validSeason() *Season {
	season, err := NewSeason("spring", s.now, s.now.Add(30*24*time.Hour), 100, 3, 10, 100, s.now)
	s.Require().NoError(err)
	return season
}

// =============================================================================
// Construction
// =============================================================================

func (s *SeasonModelSuite) TestNewSeason() {
	s.Run("valid parameters produce a draft", func() {
		season := s.validSeason()
		s.Equal(SeasonStatusDraft, season.Status)
	})

	s.Run("start must precede end", func() {
		_, err := NewSeason("bad", s.now, s.now, 100, 3, 10, 100, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
	})

	s.Run("min length cannot exceed max length", func() {
		_, err := NewSeason("bad", s.now, s.now.Add(time.Hour), 100, 11, 10, 100, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
	})

	s.Run("price must be positive", func() {
		_, err := NewSeason("bad", s.now, s.now.Add(time.Hour), 100, 3, 10, 0, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
	})

	s.Run("capacity must be positive", func() {
		_, err := NewSeason("bad", s.now, s.now.Add(time.Hour), 0, 3, 10, 100, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
	})
}

// =============================================================================
// Lifecycle
// =============================================================================

func (s *SeasonModelSuite) TestTransitions() {
	s.Run("draft activates", func() {
		season := s.validSeason()
		s.NoError(season.CanActivate())
		season.ApplyActivation(s.now)
		s.Equal(SeasonStatusActive, season.Status)
	})

	s.Run("draft cannot end or cancel", func() {
		season := s.validSeason()
		s.True(dErrors.HasCode(season.CanEnd(), dErrors.CodeNotActive))
		s.True(dErrors.HasCode(season.CanCancel(), dErrors.CodeNotActive))
	})

	s.Run("active ends", func() {
		season := s.validSeason()
		season.ApplyActivation(s.now)
		s.NoError(season.CanEnd())
		season.ApplyEnd(s.now)
		s.Equal(SeasonStatusEnded, season.Status)
	})

	s.Run("ended and cancelled are terminal", func() {
		ended := s.validSeason()
		ended.ApplyActivation(s.now)
		ended.ApplyEnd(s.now)
		s.Error(ended.CanActivate())
		s.Error(ended.CanCancel())

		cancelled := s.validSeason()
		cancelled.ApplyActivation(s.now)
		cancelled.ApplyCancel(s.now)
		s.Error(cancelled.CanActivate())
		s.Error(cancelled.CanEnd())
	})
}

func (s *SeasonModelSuite) TestIsOpenAt() {
	season := s.validSeason()
	season.ApplyActivation(s.now)

	s.True(season.IsOpenAt(s.now))
	s.True(season.IsOpenAt(season.EndTime))
	s.False(season.IsOpenAt(s.now.Add(-time.Minute)))
	s.False(season.IsOpenAt(season.EndTime.Add(time.Minute)))

	season.ApplyEnd(s.now)
	s.False(season.IsOpenAt(s.now))
}

func (s *SeasonModelSuite) TestAllowsNameLength() {
	season := s.validSeason()
	s.False(season.AllowsNameLength("ab"))
	s.True(season.AllowsNameLength("abc"))
	s.True(season.AllowsNameLength("abcdefghij"))
	s.False(season.AllowsNameLength("abcdefghijk"))
}
