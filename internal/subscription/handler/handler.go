package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/subscription/models"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// Service defines the subscription operations the handler exposes.
type Service interface {
	Mine(ctx context.Context, caller id.PrincipalID) (*models.Subscription, error)
	Pause(ctx context.Context, caller, user id.PrincipalID) (*models.Subscription, error)
	Resume(ctx context.Context, caller, user id.PrincipalID) (*models.Subscription, error)
}

// Handler wires the subscription endpoints.
type Handler struct {
	subs Service
}

func New(subs Service) *Handler {
	return &Handler{subs: subs}
}

// Register mounts the subscription routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subscriptions/me", h.handleMine)
	r.Post("/subscriptions/{principal}/pause", h.handlePause)
	r.Post("/subscriptions/{principal}/resume", h.handleResume)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub, err := h.subs.Mine(ctx, requestcontext.Caller(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.subs.Pause)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.subs.Resume)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, caller, user id.PrincipalID) (*models.Subscription, error)) {

	ctx := r.Context()
	user := id.PrincipalID(chi.URLParam(r, "principal"))
	sub, err := apply(ctx, requestcontext.Caller(ctx), user)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}
