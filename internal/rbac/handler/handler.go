package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"namereg/internal/rbac/models"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	"namereg/pkg/requestcontext"
)

// Service defines the role operations the handler exposes.
type Service interface {
	RoleOf(ctx context.Context, caller id.PrincipalID) models.Role
	Bootstrap(ctx context.Context, caller id.PrincipalID) (models.Assignment, error)
	Assign(ctx context.Context, caller, target id.PrincipalID, role models.Role) (models.Assignment, error)
	List(ctx context.Context, caller id.PrincipalID) ([]models.Assignment, error)
}

// Handler wires the role endpoints.
type Handler struct {
	roles  Service
	logger *slog.Logger
}

func New(roles Service, logger *slog.Logger) *Handler {
	return &Handler{roles: roles, logger: logger}
}

// Register mounts the role routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/roles/me", h.handleMyRole)
	r.Get("/roles", h.handleList)
	r.Post("/roles", h.handleAssign)
	r.Post("/roles/bootstrap", h.handleBootstrap)
}

type assignRequest struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`
}

type roleResponse struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`
}

func (h *Handler) handleMyRole(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.Caller(r.Context())
	role := h.roles.RoleOf(r.Context(), caller)
	shared.WriteJSON(w, http.StatusOK, roleResponse{
		Principal: caller.String(),
		Role:      string(role),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.roles.List(r.Context(), requestcontext.Caller(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, assignments)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assignRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	assignment, err := h.roles.Assign(ctx, requestcontext.Caller(ctx), id.PrincipalID(req.Principal), role)
	if err != nil {
		h.logger.WarnContext(ctx, "role assignment rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, assignment)
}

func (h *Handler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assignment, err := h.roles.Bootstrap(ctx, requestcontext.Caller(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, assignment)
}
