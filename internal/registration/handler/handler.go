package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	namemodels "namereg/internal/names/models"
	seasonservice "namereg/internal/season/service"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// Service defines the registration operations the handler exposes.
type Service interface {
	Register(ctx context.Context, caller id.PrincipalID, name, address string,
		addressType namemodels.AddressType, seasonID id.SeasonID, blockRef id.BlockRef) (id.PaymentID, error)
	ActiveSeason(ctx context.Context) (*seasonservice.ActiveInfo, error)
}

// Handler wires the registration endpoints.
type Handler struct {
	registrations Service
	logger        *slog.Logger
}

func New(registrations Service, logger *slog.Logger) *Handler {
	return &Handler{registrations: registrations, logger: logger}
}

// Register mounts the registration routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registration", h.handleRegister)
	r.Get("/registration/active-season", h.handleActiveSeason)
}

type registerRequest struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	AddressType string      `json:"address_type"`
	SeasonID    id.SeasonID `json:"season_id"`
	BlockRef    id.BlockRef `json:"block_ref"`
}

type registerResponse struct {
	PaymentID string `json:"payment_id"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	addressType, err := namemodels.ParseAddressType(req.AddressType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	paymentID, err := h.registrations.Register(ctx, requestcontext.Caller(ctx),
		req.Name, req.Address, addressType, req.SeasonID, req.BlockRef)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"name", req.Name,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, registerResponse{PaymentID: paymentID.String()})
}

func (h *Handler) handleActiveSeason(w http.ResponseWriter, r *http.Request) {
	info, err := h.registrations.ActiveSeason(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, info)
}
