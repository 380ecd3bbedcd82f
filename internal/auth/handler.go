package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adboard/adboard/internal/authz"
	"github.com/adboard/adboard/internal/platform/httpx"
	"github.com/adboard/adboard/internal/shared"
)

// SessionStore is the subset of the session manager used by auth endpoints.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (*shared.Session, error)
	Destroy(ctx context.Context, token string) error
	SetCookie(w http.ResponseWriter, sess *shared.Session)
	ClearCookie(w http.ResponseWriter)
}

// Handler wires HTTP endpoints for registration and login flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions SessionStore
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions SessionStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessions: sessions}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.With(authz.RequireUser).Post("/logout", h.handleLogout)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return req, err
	}
	return req, httpx.Validate(req)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCredentials(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "register", err)
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", id))
	httpx.Message(w, http.StatusCreated, "User registered successfully!")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCredentials(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "login", err)
		return
	}

	// Rotate any session the client already holds.
	if old := shared.SessionTokenFromContext(r.Context()); old != "" {
		if err := h.sessions.Destroy(r.Context(), old); err != nil {
			h.logger.Warn("destroy previous session", slog.Any("error", err))
		}
	}

	sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	h.sessions.SetCookie(w, sess)
	httpx.Message(w, http.StatusOK, "Logged in successfully!")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), shared.SessionTokenFromContext(r.Context())); err != nil {
		h.fail(w, "logout", err)
		return
	}
	h.sessions.ClearCookie(w)
	httpx.Message(w, http.StatusOK, "Logged out successfully!")
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
