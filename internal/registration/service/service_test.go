package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"namereg/internal/audit"
	namemodels "namereg/internal/names/models"
	namesservice "namereg/internal/names/service"
	namesstore "namereg/internal/names/store"
	"namereg/internal/payment/ledger"
	paymentservice "namereg/internal/payment/service"
	paymentstore "namereg/internal/payment/store"
	rbacservice "namereg/internal/rbac/service"
	rbacstore "namereg/internal/rbac/store"
	seasonmodels "namereg/internal/season/models"
	seasonservice "namereg/internal/season/service"
	seasonstore "namereg/internal/season/store"
	subservice "namereg/internal/subscription/service"
	substore "namereg/internal/subscription/store"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
)

const (
	admin = id.PrincipalID("root")
	alice = id.PrincipalID("alice")
	bob   = id.PrincipalID("bob")
)

// scriptedLedger serves canned blocks and can hold every query on a gate to
// force the interleaving the suspension point allows.
type scriptedLedger struct {
	mu      sync.Mutex
	blocks  map[id.BlockRef]*ledger.Block
	gate    chan struct{}
	queries atomic.Int32
}

func (f *scriptedLedger) setTransfer(ref id.BlockRef, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[ref] = &ledger.Block{Kind: ledger.OperationTransfer, From: "wallet", To: "treasury", Amount: amount}
}

func (f *scriptedLedger) QueryBlock(_ context.Context, ref id.BlockRef) (*ledger.Block, error) {
	f.queries.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if block, ok := f.blocks[ref]; ok {
		return block, nil
	}
	return nil, &ledgerMiss{ref: ref}
}

type ledgerMiss struct{ ref id.BlockRef }

func (e *ledgerMiss) Error() string { return "block " + e.ref.String() + " does not exist" }

// auditRecorder captures emitted events in place of the real pipeline.
type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *auditRecorder) Emit(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type RegistrationSuite struct {
	suite.Suite
	roles    *rbacservice.Service
	seasons  *seasonservice.Service
	names    *namesservice.Service
	payments *paymentservice.Service
	subs     *subservice.Service
	ledger   *scriptedLedger
	trail    *auditRecorder
	service  *Service
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.roles = rbacservice.New(rbacstore.NewInMemory(), log)
	s.names = namesservice.New(namesstore.NewInMemory(), log)
	s.seasons = seasonservice.New(seasonstore.NewInMemory(), s.roles, s.names, nil, log)
	s.subs = subservice.New(substore.NewInMemory(), s.roles, log)

	payStore := paymentstore.NewInMemory()
	s.payments = paymentservice.New(payStore, payStore, log)

	s.ledger = &scriptedLedger{blocks: map[id.BlockRef]*ledger.Block{}}
	verifier := paymentservice.NewVerifier(s.ledger, "treasury", nil, log)

	s.trail = &auditRecorder{}
	s.service = New(s.roles, s.seasons, s.names, s.payments, verifier, s.subs, s.trail, nil, log)

	_, err := s.roles.Bootstrap(ctx, admin)
	s.Require().NoError(err)
	for _, user := range []id.PrincipalID{alice, bob} {
		_, err := s.roles.Assign(ctx, admin, user, "user")
		s.Require().NoError(err)
	}
}

// activeSeason creates and activates a season open around now.
func (s *RegistrationSuite) activeSeason(maxNames uint32) *seasonmodels.Season {
	ctx := context.Background()
	now := time.Now()
	season, err := s.seasons.Create(ctx, admin, "season",
		now.Add(-time.Hour), now.Add(24*time.Hour), maxNames, 3, 10, 100)
	s.Require().NoError(err)
	activated, err := s.seasons.Activate(ctx, admin, season.ID)
	s.Require().NoError(err)
	return activated
}

func (s *RegistrationSuite) register(caller id.PrincipalID, name string, seasonID id.SeasonID, ref id.BlockRef) (id.PaymentID, error) {
	return s.service.Register(context.Background(), caller, name, "addr-"+name,
		namemodels.AddressTypeIdentity, seasonID, ref)
}

// assertUntouched verifies a failed call left no trace: the name is free,
// the reference unspent, and the caller unsubscribed.
func (s *RegistrationSuite) assertUntouched(name string, ref id.BlockRef, caller id.PrincipalID) {
	ctx := context.Background()

	taken, err := s.names.IsNameTaken(ctx, name)
	s.Require().NoError(err)
	s.False(taken, "name must not be committed")

	used, err := s.payments.IsReferenceUsed(ctx, ref)
	s.Require().NoError(err)
	s.False(used, "reference must not be consumed")

	_, err = s.subs.Mine(ctx, caller)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "no subscription must exist")
}

// =============================================================================
// Happy Path and Replay (Scenario A)
// =============================================================================

func (s *RegistrationSuite) TestRegisterAndReplay() {
	season := s.activeSeason(5)
	s.ledger.setTransfer(100, 100)

	paymentID, err := s.register(alice, "abc", season.ID, 100)
	s.Require().NoError(err)
	s.False(paymentID.IsNil())

	s.Run("all four writes landed", func() {
		ctx := context.Background()

		record, err := s.names.Lookup(ctx, "abc")
		s.NoError(err)
		s.Equal(alice, record.Owner)

		used, err := s.payments.IsReferenceUsed(ctx, 100)
		s.NoError(err)
		s.True(used)

		sub, err := s.subs.Mine(ctx, alice)
		s.NoError(err)
		s.Equal(paymentID, sub.PaymentID)
		s.True(sub.IsActive)
		s.WithinDuration(sub.StartTime.Add(365*24*time.Hour), sub.EndTime, time.Second)

		history, err := s.payments.HistoryFor(ctx, alice)
		s.NoError(err)
		s.Len(history, 1)
		s.Equal("abc", history[0].RegisteredName)
	})

	s.Run("audit trail recorded the registration", func() {
		s.Len(s.trail.events, 1)
		s.Equal(audit.ActionNameRegistered, s.trail.events[0].Action)
	})

	s.Run("reusing the block reference is a replay", func() {
		_, err := s.register(bob, "xyz", season.ID, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeReplayedPayment))
		s.assertUntouched("xyz", 0, bob)
	})
}

// =============================================================================
// Precondition Failures (Scenarios C, D)
// =============================================================================

func (s *RegistrationSuite) TestRequiresUserRole() {
	season := s.activeSeason(5)
	s.ledger.setTransfer(100, 100)

	_, err := s.register("stranger", "abc", season.ID, 100)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.register(id.Anonymous, "abc", season.ID, 100)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.assertUntouched("abc", 100, "stranger")
}

func (s *RegistrationSuite) TestNameLengthBounds() {
	season := s.activeSeason(5)
	s.ledger.setTransfer(100, 100)

	_, err := s.register(alice, "ab", season.ID, 100)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidNameLength))
	s.assertUntouched("ab", 100, alice)

	_, err = s.register(alice, "elevenchars", season.ID, 100)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidNameLength))
}

func (s *RegistrationSuite) TestOneNamePerOwnerAcrossSeasons() {
	ctx := context.Background()
	first := s.activeSeason(5)
	s.ledger.setTransfer(100, 100)

	_, err := s.register(alice, "abc", first.ID, 100)
	s.Require().NoError(err)

	// Close the first season and open a second; the global rule still
	// blocks a second name for the same owner.
	_, err = s.seasons.End(ctx, admin, first.ID)
	s.Require().NoError(err)
	second := s.activeSeason(5)
	s.ledger.setTransfer(200, 100)

	_, err = s.register(alice, "def", second.ID, 200)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	s.assertUntouched("def", 200, bob)
}

func (s *RegistrationSuite) TestNameTaken() {
	season := s.activeSeason(5)
	s.ledger.setTransfer(100, 100)
	s.ledger.setTransfer(200, 100)

	_, err := s.register(alice, "abc", season.ID, 100)
	s.Require().NoError(err)

	_, err = s.register(bob, "abc", season.ID, 200)
	s.True(dErrors.HasCode(err, dErrors.CodeNameTaken))

	used, lookupErr := s.payments.IsReferenceUsed(context.Background(), 200)
	s.Require().NoError(lookupErr)
	s.False(used, "loser's reference must stay unspent")
}

func (s *RegistrationSuite) TestSeasonMustBeOpen() {
	ctx := context.Background()
	now := time.Now()
	s.ledger.setTransfer(100, 100)

	s.Run("draft seasons are closed", func() {
		draft, err := s.seasons.Create(ctx, admin, "draft",
			now.Add(-time.Hour), now.Add(time.Hour), 5, 3, 10, 100)
		s.Require().NoError(err)

		_, err = s.register(alice, "abc", draft.ID, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeSeasonNotOpen))
	})

	s.Run("unknown seasons read as closed", func() {
		_, err := s.register(alice, "abc", id.SeasonID(999), 100)
		s.True(dErrors.HasCode(err, dErrors.CodeSeasonNotOpen))
	})

	s.Run("active season outside its window is closed", func() {
		future, err := s.seasons.Create(ctx, admin, "future",
			now.Add(48*time.Hour), now.Add(72*time.Hour), 5, 3, 10, 100)
		s.Require().NoError(err)
		_, err = s.seasons.Activate(ctx, admin, future.ID)
		s.Require().NoError(err)

		_, err = s.register(alice, "abc", future.ID, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeSeasonNotOpen))
		s.assertUntouched("abc", 100, alice)
	})
}

// =============================================================================
// Capacity (Scenario E)
// =============================================================================

func (s *RegistrationSuite) TestCapacityExhaustion() {
	season := s.activeSeason(1)
	s.ledger.setTransfer(100, 100)
	s.ledger.setTransfer(200, 100)

	_, err := s.register(alice, "abc", season.ID, 100)
	s.Require().NoError(err)

	s.Run("active season reports zero availability", func() {
		info, err := s.service.ActiveSeason(context.Background())
		s.Require().NoError(err)
		s.Equal(uint32(0), info.AvailableNames)
	})

	s.Run("registration is rejected before the ledger is queried", func() {
		before := s.ledger.queries.Load()
		_, err := s.register(bob, "xyz", season.ID, 200)
		s.True(dErrors.HasCode(err, dErrors.CodeSeasonNotOpen))
		s.Equal(before, s.ledger.queries.Load())
		s.assertUntouched("xyz", 200, bob)
	})
}

// =============================================================================
// Payment Verification
// =============================================================================

func (s *RegistrationSuite) TestPaymentNotVerified() {
	season := s.activeSeason(5)

	s.Run("underpayment fails with no state change", func() {
		s.ledger.setTransfer(100, 99)
		_, err := s.register(alice, "abc", season.ID, 100)
		s.True(dErrors.HasCode(err, dErrors.CodePaymentNotVerified))
		s.assertUntouched("abc", 100, alice)
	})

	s.Run("missing block folds into the same failure", func() {
		_, err := s.register(alice, "abc", season.ID, 555)
		s.True(dErrors.HasCode(err, dErrors.CodePaymentNotVerified))
	})

	s.Run("retry after a corrected payment succeeds", func() {
		s.ledger.setTransfer(100, 100)
		paymentID, err := s.register(alice, "abc", season.ID, 100)
		s.NoError(err)
		s.False(paymentID.IsNil())
	})
}

// =============================================================================
// Anti-Replay Under Interleaving
// =============================================================================

// Two calls carrying the same block reference both pass the early replay
// check while the ledger round-trip is in flight. The consume compare-and-
// set inside the commit critical section must let exactly one through.
func (s *RegistrationSuite) TestConcurrentReplaySameReference() {
	season := s.activeSeason(5)
	s.ledger.setTransfer(100, 100)
	s.ledger.gate = make(chan struct{})

	type outcome struct {
		caller    id.PrincipalID
		paymentID id.PaymentID
		err       error
	}
	results := make(chan outcome, 2)

	var wg sync.WaitGroup
	for caller, name := range map[id.PrincipalID]string{alice: "abc", bob: "xyz"} {
		wg.Add(1)
		go func(caller id.PrincipalID, name string) {
			defer wg.Done()
			paymentID, err := s.register(caller, name, season.ID, 100)
			results <- outcome{caller: caller, paymentID: paymentID, err: err}
		}(caller, name)
	}

	// Both callers are now past the early checks, parked on the ledger.
	for s.ledger.queries.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	close(s.ledger.gate)
	wg.Wait()
	close(results)

	var successes, replays int
	for result := range results {
		if result.err == nil {
			successes++
			s.False(result.paymentID.IsNil())
		} else {
			replays++
			s.True(dErrors.HasCode(result.err, dErrors.CodeReplayedPayment),
				"loser must see ReplayedPayment, got %v", result.err)
		}
	}
	s.Equal(1, successes, "exactly one registration may consume the reference")
	s.Equal(1, replays)

	records, err := s.names.List(context.Background())
	s.Require().NoError(err)
	s.Len(records, 1, "one payment mints one name")
}
