package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/admin"
	"github.com/frahmantamala/grievance-portal/internal/export"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/frahmantamala/grievance-portal/internal/metrics"
	"github.com/frahmantamala/grievance-portal/internal/report"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/store"
	"github.com/frahmantamala/grievance-portal/internal/transport"
	"github.com/frahmantamala/grievance-portal/internal/transport/middleware"
	"github.com/frahmantamala/grievance-portal/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// Dependencies groups everything the router mounts. Nil handlers leave their
// routes unregistered.
type Dependencies struct {
	Config           *internal.Config
	Logger           *slog.Logger
	Store            store.Adapter
	Sessions         *session.Manager
	Metrics          *metrics.Manager
	OpenAPI          []byte
	AdminHandler     *admin.Handler
	GrievanceHandler *grievance.Handler
	ReportHandler    *report.Handler
	ExportHandler    *export.Handler
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	base := transport.NewBaseHandler(deps.Logger)
	healthHandler := NewHealthHandler(base, Check{
		Name:    "store",
		Target:  deps.Store,
		Details: map[string]any{"backend": deps.Config.Store.Backend},
	})

	// Apply global middleware
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins, deps.Logger))
	router.Use(middleware.RequestID(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger,
		middleware.SkipPaths(deps.Config.Observability.Metrics.Path, swagger.DocumentURL)))
	if deps.Metrics != nil {
		router.Use(middleware.RequestMetrics(deps.Metrics))
	}
	router.Use(middleware.RecoveryMiddleware(deps.Logger, deps.Metrics))

	// Serve OpenAPI document at root (outside API prefix)
	if len(deps.OpenAPI) > 0 {
		router.Get(swagger.DocumentURL, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(deps.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	metricsCfg := deps.Config.Observability.Metrics
	if deps.Metrics != nil && metricsCfg.Enabled && metricsCfg.Path != "" {
		router.Handle(metricsCfg.Path, deps.Metrics.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if gh := deps.GrievanceHandler; gh != nil {
			r.Route("/grievances", func(gr chi.Router) {
				gr.Post("/", gh.Submit)
				gr.Get("/", gh.List)
				gr.Post("/{id}/upvote", gh.Upvote)
			})
			r.Get("/stats", gh.Stats)
		}

		if ah := deps.AdminHandler; ah != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/register", ah.Register)
				sr.Post("/login", ah.Login)
				sr.Post("/logout", ah.Logout)
			})
		}

		if deps.Sessions == nil {
			return
		}

		// Admin routes require a live session
		r.Route("/admin", func(pr chi.Router) {
			pr.Use(deps.Sessions.RequireSession(base))

			if ah := deps.AdminHandler; ah != nil {
				pr.Get("/me", ah.Me)
			}

			if gh := deps.GrievanceHandler; gh != nil {
				pr.Route("/grievances", func(gr chi.Router) {
					gr.Get("/", gh.AdminList)
					gr.Post("/clear", gh.ClearAll)
					gr.Patch("/{id}/status", gh.UpdateStatus)
					gr.Post("/{id}/notes", gh.AppendNote)
				})
			}

			if rh := deps.ReportHandler; rh != nil {
				pr.Get("/report", rh.GetReport)
			}

			if eh := deps.ExportHandler; eh != nil {
				pr.Get("/export", eh.Download)
			}
		})
	})
}
