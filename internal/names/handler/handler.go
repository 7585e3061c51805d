package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/names/models"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
)

// Service defines the name lookups the handler exposes. Writes go through
// the registration flow, never through this surface.
type Service interface {
	Lookup(ctx context.Context, name string) (*models.NameRecord, error)
	LookupByOwner(ctx context.Context, owner id.PrincipalID) (*models.NameRecord, error)
	List(ctx context.Context) ([]*models.NameRecord, error)
	IsNameTaken(ctx context.Context, name string) (bool, error)
}

// Handler wires the read-only name endpoints.
type Handler struct {
	names Service
}

func New(names Service) *Handler {
	return &Handler{names: names}
}

// Register mounts the name routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/names", h.handleList)
	r.Get("/names/{name}", h.handleLookup)
	r.Get("/names/{name}/availability", h.handleAvailability)
	r.Get("/owners/{principal}/name", h.handleLookupByOwner)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.names.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	record, err := h.names.Lookup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	taken, err := h.names.IsNameTaken(r.Context(), name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"name":      name,
		"available": !taken,
	})
}

func (h *Handler) handleLookupByOwner(w http.ResponseWriter, r *http.Request) {
	owner := id.PrincipalID(chi.URLParam(r, "principal"))
	record, err := h.names.LookupByOwner(r.Context(), owner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}
