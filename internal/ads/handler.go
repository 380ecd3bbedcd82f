package ads

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adboard/adboard/internal/authz"
	"github.com/adboard/adboard/internal/platform/httpx"
	"github.com/adboard/adboard/internal/shared"
)

// Handler exposes ad CRUD endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ad routes. Reads are public; writes need a session.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.getAd)
	r.Group(func(r chi.Router) {
		r.Use(authz.RequireUser)
		r.Post("/", h.createAd)
		r.Put("/{id}", h.updateAd)
		r.Delete("/{id}", h.deleteAd)
	})
}

type createAdRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type updateAdRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type adResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Owner       string    `json:"owner"`
}

func (h *Handler) createAd(w http.ResponseWriter, r *http.Request) {
	var req createAdRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := shared.IdentityFromContext(r.Context())
	id, err := h.service.Create(r.Context(), caller.UserID, req.Title, req.Description)
	if err != nil {
		h.fail(w, "create ad", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, httpx.MessageBody{Message: "Ad created successfully!", ID: id})
}

func (h *Handler) getAd(w http.ResponseWriter, r *http.Request) {
	id, ok := adID(r)
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	ad, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get ad", err)
		return
	}
	httpx.JSON(w, http.StatusOK, adResponse{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		CreatedAt:   ad.CreatedAt,
		Owner:       ad.OwnerEmail,
	})
}

func (h *Handler) updateAd(w http.ResponseWriter, r *http.Request) {
	id, ok := adID(r)
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req updateAdRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	patch := Patch{Title: req.Title, Description: req.Description}
	if err := h.service.Update(r.Context(), id, shared.IdentityFromContext(r.Context()), patch); err != nil {
		h.fail(w, "update ad", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Ad updated successfully!")
}

func (h *Handler) deleteAd(w http.ResponseWriter, r *http.Request) {
	id, ok := adID(r)
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.IdentityFromContext(r.Context())); err != nil {
		h.fail(w, "delete ad", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Ad deleted successfully!")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// adID parses the {id} path segment. Non-numeric ids are treated as absent.
func adID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
