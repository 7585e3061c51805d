package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/payment/ledger"
	id "namereg/pkg/domain"
)

// fakeLedger serves canned blocks without a network round-trip.
type fakeLedger struct {
	blocks map[id.BlockRef]*ledger.Block
	err    error
}

func (f *fakeLedger) QueryBlock(_ context.Context, ref id.BlockRef) (*ledger.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	block, ok := f.blocks[ref]
	if !ok {
		return nil, errors.New("block does not exist")
	}
	return block, nil
}

type VerifierSuite struct {
	suite.Suite
	ledger *fakeLedger
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ledger = &fakeLedger{blocks: map[id.BlockRef]*ledger.Block{}}
}

func (s *VerifierSuite) verifier() *Verifier {
	return NewVerifier(s.ledger, "treasury", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *VerifierSuite) TestVerify() {
	ctx := context.Background()

	s.Run("exact payment verifies", func() {
		s.ledger.blocks[1] = &ledger.Block{Kind: ledger.OperationTransfer, From: "wallet", To: "treasury", Amount: 100}
		s.True(s.verifier().Verify(ctx, 1, 100))
	})

	s.Run("overpayment verifies", func() {
		s.ledger.blocks[2] = &ledger.Block{Kind: ledger.OperationTransfer, From: "wallet", To: "treasury", Amount: 150}
		s.True(s.verifier().Verify(ctx, 2, 100))
	})

	s.Run("underpayment fails", func() {
		s.ledger.blocks[3] = &ledger.Block{Kind: ledger.OperationTransfer, From: "wallet", To: "treasury", Amount: 99}
		s.False(s.verifier().Verify(ctx, 3, 100))
	})

	s.Run("wrong recipient fails", func() {
		s.ledger.blocks[4] = &ledger.Block{Kind: ledger.OperationTransfer, From: "wallet", To: "attacker", Amount: 100}
		s.False(s.verifier().Verify(ctx, 4, 100))
	})

	s.Run("mint and burn fail", func() {
		s.ledger.blocks[5] = &ledger.Block{Kind: ledger.OperationMint, To: "treasury", Amount: 100}
		s.ledger.blocks[6] = &ledger.Block{Kind: ledger.OperationBurn, From: "treasury", Amount: 100}
		s.False(s.verifier().Verify(ctx, 5, 100))
		s.False(s.verifier().Verify(ctx, 6, 100))
	})

	s.Run("sender identity is not checked", func() {
		// Payments may be relayed through an intermediary wallet, so any
		// sender is acceptable.
		s.ledger.blocks[7] = &ledger.Block{Kind: ledger.OperationTransfer, From: "relay-wallet", To: "treasury", Amount: 100}
		s.True(s.verifier().Verify(ctx, 7, 100))
	})

	s.Run("missing block fails", func() {
		s.False(s.verifier().Verify(ctx, 999, 100))
	})

	s.Run("ledger failure reads as unverified", func() {
		s.ledger.err = errors.New("ledger unavailable")
		s.False(s.verifier().Verify(ctx, 1, 100))
	})
}
