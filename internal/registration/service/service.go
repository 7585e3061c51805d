package service

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"namereg/internal/audit"
	namemodels "namereg/internal/names/models"
	paymodels "namereg/internal/payment/models"
	regmetrics "namereg/internal/registration/metrics"
	seasonmodels "namereg/internal/season/models"
	seasonservice "namereg/internal/season/service"
	submodels "namereg/internal/subscription/models"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/requestcontext"
)

// RoleGate authorizes registration attempts.
type RoleGate interface {
	RequireUser(ctx context.Context, caller id.PrincipalID) error
}

// SeasonRegistry is the slice of the season module registration reads.
type SeasonRegistry interface {
	Get(ctx context.Context, seasonID id.SeasonID) (*seasonmodels.Season, error)
	ActiveSeasonInfo(ctx context.Context) (*seasonservice.ActiveInfo, error)
}

// NameLedger is the slice of the name module registration depends on.
type NameLedger interface {
	IsNameTaken(ctx context.Context, name string) (bool, error)
	OwnerHasName(ctx context.Context, owner id.PrincipalID) (bool, error)
	CountBySeason(ctx context.Context, seasonID id.SeasonID) (uint32, error)
	Commit(ctx context.Context, record *namemodels.NameRecord) error
}

// PaymentLedger owns the consumed-reference set and payment records.
type PaymentLedger interface {
	IsReferenceUsed(ctx context.Context, ref id.BlockRef) (bool, error)
	ConsumeIfUnused(ctx context.Context, ref id.BlockRef) (bool, error)
	Record(ctx context.Context, payment *paymodels.VerifiedPayment) error
}

// Verifier checks a payment proof against the external ledger.
type Verifier interface {
	Verify(ctx context.Context, ref id.BlockRef, expectedAmount uint64) bool
}

// SubscriptionGranter creates the entitlement funded by a registration.
type SubscriptionGranter interface {
	Grant(ctx context.Context, user id.PrincipalID, registeredName string, paymentID id.PaymentID) (*submodels.Subscription, error)
}

// AuditTrail records successful registrations.
type AuditTrail interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service is the single mutating entry point of the registration flow. It
// composes the role gate, season registry, name ledger, and payment
// verifier, and owns the one critical section where a payment proof is
// spent.
type Service struct {
	gate     RoleGate
	seasons  SeasonRegistry
	names    NameLedger
	payments PaymentLedger
	verifier Verifier
	subs     SubscriptionGranter
	trail    AuditTrail
	metrics  *regmetrics.Metrics
	logger   *slog.Logger

	// commitMu covers every step after the ledger round-trip. The ledger
	// call is the only suspension point in the flow, so two calls carrying
	// the same block reference can both pass the early replay check; the
	// re-check and consume inside this mutex is what makes the anti-replay
	// property hold under that interleaving.
	commitMu sync.Mutex
}

func New(gate RoleGate, seasons SeasonRegistry, names NameLedger, payments PaymentLedger,
	verifier Verifier, subs SubscriptionGranter, trail AuditTrail,
	metrics *regmetrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		gate:     gate,
		seasons:  seasons,
		names:    names,
		payments: payments,
		verifier: verifier,
		subs:     subs,
		trail:    trail,
		metrics:  metrics,
		logger:   logger,
	}
}

var tracer = otel.Tracer("namereg/registration")

// Register claims a name for the caller, funded by the transfer recorded at
// blockRef. It terminates in either a payment id or one of the named error
// kinds; on any error no state has changed.
func (s *Service) Register(ctx context.Context, caller id.PrincipalID, name, address string,
	addressType namemodels.AddressType, seasonID id.SeasonID, blockRef id.BlockRef) (id.PaymentID, error) {

	ctx, span := tracer.Start(ctx, "registration.register", trace.WithAttributes(
		attribute.String("name", name),
		attribute.String("season_id", seasonID.String()),
		attribute.String("block_ref", blockRef.String()),
	))
	defer span.End()

	paymentID, err := s.register(ctx, caller, name, address, addressType, seasonID, blockRef)
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.IncrementRegistration(string(dErrors.CodeOf(err)))
		return id.PaymentID{}, err
	}

	span.SetStatus(codes.Ok, "")
	s.metrics.IncrementRegistration("registered")
	return paymentID, nil
}

func (s *Service) register(ctx context.Context, caller id.PrincipalID, name, address string,
	addressType namemodels.AddressType, seasonID id.SeasonID, blockRef id.BlockRef) (id.PaymentID, error) {

	if err := s.gate.RequireUser(ctx, caller); err != nil {
		return id.PaymentID{}, err
	}

	hasName, err := s.names.OwnerHasName(ctx, caller)
	if err != nil {
		return id.PaymentID{}, err
	}
	if hasName {
		return id.PaymentID{}, dErrors.New(dErrors.CodeAlreadyRegistered, "caller already owns a name")
	}

	used, err := s.payments.IsReferenceUsed(ctx, blockRef)
	if err != nil {
		return id.PaymentID{}, err
	}
	if used {
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeReplayedPayment, "block reference %s already consumed", blockRef)
	}

	season, err := s.seasons.Get(ctx, seasonID)
	if err != nil {
		// A season the caller cannot register into and a season that does
		// not exist read the same from outside.
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return id.PaymentID{}, dErrors.Newf(dErrors.CodeSeasonNotOpen, "season %s is not open", seasonID)
		}
		return id.PaymentID{}, err
	}

	now := requestcontext.Now(ctx)
	if !season.IsOpenAt(now) {
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeSeasonNotOpen, "season %s is not open", seasonID)
	}

	count, err := s.names.CountBySeason(ctx, seasonID)
	if err != nil {
		return id.PaymentID{}, err
	}
	if count >= season.MaxNames {
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeSeasonNotOpen, "season %s is at capacity", seasonID)
	}

	if !season.AllowsNameLength(name) {
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeInvalidNameLength,
			"name length must be between %d and %d", season.MinNameLength, season.MaxNameLength)
	}

	taken, err := s.names.IsNameTaken(ctx, name)
	if err != nil {
		return id.PaymentID{}, err
	}
	if taken {
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeNameTaken, "name %q is already registered", name)
	}

	record, err := namemodels.NewNameRecord(name, address, addressType, caller, seasonID, now)
	if err != nil {
		return id.PaymentID{}, err
	}

	// Suspension point: everything before this line may be stale by the
	// time the ledger answers.
	if !s.verifier.Verify(ctx, blockRef, season.Price) {
		return id.PaymentID{}, dErrors.New(dErrors.CodePaymentNotVerified, "payment could not be verified")
	}

	return s.commit(ctx, caller, record, season.Price, blockRef)
}

// commit is the post-verification critical section: re-validate every
// precondition another caller could have invalidated during the ledger
// round-trip, spend the block reference, then perform the writes. The
// consume happens last among the checks so a failed re-check leaves the
// consumed set untouched.
func (s *Service) commit(ctx context.Context, caller id.PrincipalID, record *namemodels.NameRecord,
	price uint64, blockRef id.BlockRef) (id.PaymentID, error) {

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	hasName, err := s.names.OwnerHasName(ctx, caller)
	if err != nil {
		return id.PaymentID{}, err
	}
	if hasName {
		return id.PaymentID{}, dErrors.New(dErrors.CodeAlreadyRegistered, "caller already owns a name")
	}

	taken, err := s.names.IsNameTaken(ctx, record.Name)
	if err != nil {
		return id.PaymentID{}, err
	}
	if taken {
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeNameTaken, "name %q is already registered", record.Name)
	}

	won, err := s.payments.ConsumeIfUnused(ctx, blockRef)
	if err != nil {
		return id.PaymentID{}, err
	}
	if !won {
		s.metrics.IncrementReplayCaught()
		return id.PaymentID{}, dErrors.Newf(dErrors.CodeReplayedPayment, "block reference %s already consumed", blockRef)
	}

	payment := paymodels.NewVerifiedPayment(caller, price, blockRef, record.Name, record.CreatedAt)
	if err := s.payments.Record(ctx, payment); err != nil {
		return id.PaymentID{}, err
	}
	if err := s.names.Commit(ctx, record); err != nil {
		return id.PaymentID{}, err
	}
	if _, err := s.subs.Grant(ctx, caller, record.Name, payment.ID); err != nil {
		return id.PaymentID{}, err
	}

	s.trail.Emit(ctx, audit.Event{
		Timestamp: record.CreatedAt,
		Actor:     caller,
		Action:    audit.ActionNameRegistered,
		Subject:   record.Name,
		Detail:    "block_ref=" + blockRef.String(),
	})
	s.logger.InfoContext(ctx, "name registered",
		"name", record.Name,
		"owner", caller.String(),
		"season_id", record.SeasonID.String(),
		"payment_id", payment.ID.String(),
	)
	return payment.ID, nil
}

// ActiveSeason exposes the active season with live capacity to registrants.
func (s *Service) ActiveSeason(ctx context.Context) (*seasonservice.ActiveInfo, error) {
	return s.seasons.ActiveSeasonInfo(ctx)
}
