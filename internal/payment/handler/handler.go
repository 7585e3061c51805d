package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/payment/models"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/requestcontext"
)

// Service defines the payment queries the handler exposes.
type Service interface {
	HistoryFor(ctx context.Context, caller id.PrincipalID) ([]*models.VerifiedPayment, error)
	IsReferenceUsed(ctx context.Context, ref id.BlockRef) (bool, error)
}

// Handler wires the payment endpoints.
type Handler struct {
	payments Service
}

func New(payments Service) *Handler {
	return &Handler{payments: payments}
}

// Register mounts the payment routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/payments", h.handleHistory)
	r.Get("/payments/refs/{ref}", h.handleReferenceStatus)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payments, err := h.payments.HistoryFor(ctx, requestcontext.Caller(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if payments == nil {
		payments = []*models.VerifiedPayment{}
	}
	shared.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) handleReferenceStatus(w http.ResponseWriter, r *http.Request) {
	ref, err := id.ParseBlockRef(chi.URLParam(r, "ref"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid block reference"))
		return
	}
	used, err := h.payments.IsReferenceUsed(r.Context(), ref)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"block_ref": ref.String(),
		"consumed":  used,
	})
}
