package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"namereg/internal/season/models"
	"namereg/internal/season/service"
	"namereg/internal/transport/http/shared"
	id "namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	"namereg/pkg/requestcontext"
)

// Service defines the season operations the handler exposes.
type Service interface {
	Create(ctx context.Context, caller id.PrincipalID, name string, start, end time.Time, maxNames, minLen, maxLen uint32, price uint64) (*models.Season, error)
	Activate(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error)
	End(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error)
	Cancel(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error)
	Get(ctx context.Context, seasonID id.SeasonID) (*models.Season, error)
	List(ctx context.Context) ([]*models.Season, error)
	ActiveSeasonInfo(ctx context.Context) (*service.ActiveInfo, error)
}

// Handler wires the season endpoints. Mutations are admin-gated inside the
// service; queries are open.
type Handler struct {
	seasons Service
	logger  *slog.Logger
}

func New(seasons Service, logger *slog.Logger) *Handler {
	return &Handler{seasons: seasons, logger: logger}
}

// Register mounts the season routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/seasons", h.handleList)
	r.Post("/seasons", h.handleCreate)
	r.Get("/seasons/active", h.handleActiveInfo)
	r.Get("/seasons/{id}", h.handleGet)
	r.Post("/seasons/{id}/activate", h.handleActivate)
	r.Post("/seasons/{id}/end", h.handleEnd)
	r.Post("/seasons/{id}/cancel", h.handleCancel)
}

type createRequest struct {
	Name          string    `json:"name"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	MaxNames      uint32    `json:"max_names"`
	MinNameLength uint32    `json:"min_name_length"`
	MaxNameLength uint32    `json:"max_name_length"`
	Price         uint64    `json:"price"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	season, err := h.seasons.Create(ctx, requestcontext.Caller(ctx),
		req.Name, req.StartTime, req.EndTime,
		req.MaxNames, req.MinNameLength, req.MaxNameLength, req.Price)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, season)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.seasons.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if seasons == nil {
		seasons = []*models.Season{}
	}
	shared.WriteJSON(w, http.StatusOK, seasons)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	seasonID, err := seasonIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	season, err := h.seasons.Get(r.Context(), seasonID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, season)
}

func (h *Handler) handleActiveInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.seasons.ActiveSeasonInfo(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.seasons.Activate)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.seasons.End)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.seasons.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, caller id.PrincipalID, seasonID id.SeasonID) (*models.Season, error)) {

	ctx := r.Context()
	seasonID, err := seasonIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	season, err := apply(ctx, requestcontext.Caller(ctx), seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "season transition rejected",
			"season_id", seasonID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, season)
}

func seasonIDParam(r *http.Request) (id.SeasonID, error) {
	seasonID, err := id.ParseSeasonID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid season id")
	}
	return seasonID, nil
}
