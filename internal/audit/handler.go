package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// AdminGate authorizes access to the audit log.
type AdminGate interface {
	RequireAdmin(ctx context.Context, caller id.PrincipalID) error
}

// Handler exposes the audit log to admins.
type Handler struct {
	store Store
	gate  AdminGate
}

func NewHandler(store Store, gate AdminGate) *Handler {
	return &Handler{store: store, gate: gate}
}

// Register mounts the audit routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gate.RequireAdmin(ctx, requestcontext.Caller(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}

	var (
		entries []Entry
		err     error
	)
	if actor := r.URL.Query().Get("actor"); actor != "" {
		entries, err = h.store.ListByActor(ctx, id.PrincipalID(actor))
	} else {
		entries, err = h.store.List(ctx)
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}
