package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/acquisitions"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/clients"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/transports"
	"github.com/meridian-erp/meridian-erp/internal/materials"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/orders"
	"github.com/meridian-erp/meridian-erp/internal/production"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler         *auth.Handler
	AcquisitionsHandler *acquisitions.Handler
	OrdersHandler       *orders.Handler
	MaterialsHandler    *materials.Handler
	ProductionHandler   *production.Handler
	ClientsHandler      *clients.Handler
	SuppliersHandler    *suppliers.Handler
	TransportsHandler   *transports.Handler
	UsersHandler        *users.Handler
	JobsHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(r)

	r.Route("/api", func(r chi.Router) {
		params.AcquisitionsHandler.MountRoutes(r)
		params.OrdersHandler.MountRoutes(r)
		params.MaterialsHandler.MountRoutes(r)
		params.ProductionHandler.MountRoutes(r)
		params.ClientsHandler.MountRoutes(r)
		params.SuppliersHandler.MountRoutes(r)
		params.TransportsHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobsHandler.MountRoutes(r)
		})
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
