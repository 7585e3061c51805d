package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/content/models"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// Service defines the content operations the handler exposes.
type Service interface {
	Get(ctx context.Context, name string, kind models.Kind) (*models.Entry, error)
	Put(ctx context.Context, caller id.PrincipalID, name string, kind models.Kind, body string) (*models.Entry, error)
}

// Handler wires the name-content endpoints.
type Handler struct {
	content Service
}

func New(content Service) *Handler {
	return &Handler{content: content}
}

// Register mounts the content routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/names/{name}/content/{kind}", h.handleGet)
	r.Put("/names/{name}/content/{kind}", h.handlePut)
}

type putRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entry, err := h.content.Get(r.Context(), chi.URLParam(r, "name"), kind)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req putRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	entry, err := h.content.Put(ctx, requestcontext.Caller(ctx), chi.URLParam(r, "name"), kind, req.Body)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entry)
}
