package materials

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler manages material stock endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers material routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.CapMaterialsView))
		r.Get("/materials", h.list)
		r.Get("/materials/stats", h.stats)
		r.Get("/materials/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAll(authz.CapMaterialsCreate))
		r.Post("/materials", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAll(authz.CapMaterialsEdit))
		r.Put("/materials/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		// The transition's own capability is enforced in the service;
		// view access is enough to reach the route.
		r.Use(h.authz.RequireAny(authz.CapMaterialsView))
		r.Post("/materials/{id}/transitions/{action}", h.transition)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := httpx.CollectionQuery(r, Columns(), FilterKeys()...)
	overview, err := h.service.Overview(r.Context(), q, authz.GateFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list materials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.logger.Error("material statistics", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid material id")
		return
	}
	item, err := h.service.Get(r.Context(), id, authz.GateFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateRequest
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	created, err := h.service.Create(r.Context(), input, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid material id")
		return
	}
	var input UpdateRequest
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	actor, _ := authz.ActorFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), id, input, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid material id")
		return
	}
	action := lifecycle.Action(chi.URLParam(r, "action"))
	actor, _ := authz.ActorFromContext(r.Context())
	item, err := h.service.Apply(r.Context(), id, action, authz.GateFromContext(r.Context()), actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}
