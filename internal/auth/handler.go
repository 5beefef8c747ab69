package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	sessions    *shared.SessionManager
	csrfManager *shared.CSRFManager
	validate    *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		sessions:    sessions,
		csrfManager: csrf,
		validate:    validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// sessionInfo is the login and whoami response body. The capability list is
// the actor's login snapshot, which the client feeds into its gates.
type sessionInfo struct {
	UserID       int64              `json:"userId"`
	Name         string             `json:"name,omitempty"`
	Role         string             `json:"role"`
	Capabilities []authz.Capability `json:"capabilities"`
	CSRFToken    string             `json:"csrfToken,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	sess.SetActor(user.Actor())
	if err := h.sessions.Commit(r.Context(), w, sess); err != nil {
		h.logger.Error("commit session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}

	httpx.JSON(w, http.StatusOK, sessionInfo{
		UserID:       user.ID,
		Name:         user.Name,
		Role:         user.Role,
		Capabilities: user.Capabilities,
		CSRFToken:    h.csrfManager.Token(sess),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
		if err := h.sessions.Commit(r.Context(), w, sess); err != nil {
			h.logger.Warn("destroy session", slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	actor, ok := sess.Actor()
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
		return
	}
	httpx.JSON(w, http.StatusOK, sessionInfo{
		UserID:       actor.UserID,
		Role:         actor.Role,
		Capabilities: actor.Capabilities,
		CSRFToken:    h.csrfManager.Token(sess),
	})
}
