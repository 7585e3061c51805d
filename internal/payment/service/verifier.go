package service

import (
	"context"
	"log/slog"
	"time"

	"namereg/internal/payment/ledger"
	paymetrics "namereg/internal/payment/metrics"
	id "namereg/pkg/domain"
)

// LedgerClient fetches the block behind a payment proof.
type LedgerClient interface {
	QueryBlock(ctx context.Context, ref id.BlockRef) (*ledger.Block, error)
}

// Verifier validates that a block reference proves a qualifying payment.
type Verifier struct {
	ledger   LedgerClient
	treasury string
	metrics  *paymetrics.Metrics
	logger   *slog.Logger
}

// NewVerifier builds a verifier. treasury is the account every qualifying
// transfer must pay into.
func NewVerifier(client LedgerClient, treasury string, metrics *paymetrics.Metrics, logger *slog.Logger) *Verifier {
	return &Verifier{
		ledger:   client,
		treasury: treasury,
		metrics:  metrics,
		logger:   logger,
	}
}

// Verify reports whether the block at ref is a transfer of at least
// expectedAmount into the treasury account.
//
// The sender is deliberately not compared to the registering caller:
// payments may be relayed through an intermediary wallet that rewrites the
// apparent sender. Every ledger failure — missing block, timeout, malformed
// body — reads as "not verified" rather than an error, because the caller's
// remedy is the same either way: retry.
func (v *Verifier) Verify(ctx context.Context, ref id.BlockRef, expectedAmount uint64) bool {
	start := time.Now()
	block, err := v.ledger.QueryBlock(ctx, ref)
	v.metrics.ObserveLedgerQuery(time.Since(start).Seconds())
	if err != nil {
		v.logger.WarnContext(ctx, "ledger query failed, treating payment as unverified",
			"block_ref", ref.String(),
			"error", err,
		)
		v.metrics.IncrementVerification("ledger_error")
		return false
	}

	switch {
	case !block.IsTransfer():
		v.metrics.IncrementVerification("not_transfer")
		return false
	case block.To != v.treasury:
		v.metrics.IncrementVerification("wrong_recipient")
		return false
	case block.Amount < expectedAmount:
		v.metrics.IncrementVerification("insufficient_amount")
		return false
	}

	v.metrics.IncrementVerification("verified")
	return true
}
