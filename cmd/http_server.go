package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/grievance-portal/api"
	"github.com/frahmantamala/grievance-portal/internal/admin"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/export"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/frahmantamala/grievance-portal/internal/report"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/store"
	"github.com/frahmantamala/grievance-portal/internal/transport"
	"github.com/frahmantamala/grievance-portal/internal/transport/rest"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

const sessionSweepInterval = time.Minute

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := app.Logger

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	doc, err := api.Load(ctx)
	if err != nil {
		lg.Error("openapi document rejected", "error", err)
		os.Exit(1)
	}
	lg.Debug("openapi document loaded", "paths", doc.Paths.Len())

	if seeded, err := app.Admins.EnsureSeeded(ctx); err != nil {
		lg.Warn("default admin seeding failed", "error", err)
	} else if seeded {
		lg.Info("default admin seeded", "username", admin.DefaultUsername)
	}

	sessions := session.NewManager(app.Config.Security.JWTSecret, app.Config.Security.SessionTTL, lg)
	router := setupRoutes(app, sessions)

	subscribeEventLog(app)
	go forwardStoreChanges(ctx, app)
	go sweepSessions(ctx, app, sessions)

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr, "store", app.Config.Store.Backend)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: app.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       app.Config.Server.ReadTimeout,
		WriteTimeout:      app.Config.Server.WriteTimeout,
		IdleTimeout:       app.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			stop()
			app.Close()
			os.Exit(1)
		}
	}

	stop()
	app.Close()
	lg.Info("Server stopped")
}

func setupRoutes(app *App, sessions *session.Manager) *chi.Mux {
	base := transport.NewBaseHandler(app.Logger)
	router := chi.NewRouter()

	rest.RegisterAllRoutes(router, rest.Dependencies{
		Config:           app.Config,
		Logger:           app.Logger,
		Store:            app.Store,
		Sessions:         sessions,
		Metrics:          app.Metrics,
		OpenAPI:          api.Document(),
		AdminHandler:     admin.NewHandler(base, app.Admins, sessions, app.Metrics),
		GrievanceHandler: grievance.NewHandler(base, app.Grievances),
		ReportHandler:    report.NewHandler(base, app.Reports),
		ExportHandler:    export.NewHandler(base, app.Exports),
	})
	return router
}

func subscribeEventLog(app *App) {
	app.Bus.Subscribe(events.AllEvents, func(ctx context.Context, event events.Event) error {
		app.Logger.Debug("event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})
}

// forwardStoreChanges republishes remote backend notifications on the bus so
// writes from other instances are observable locally.
func forwardStoreChanges(ctx context.Context, app *App) {
	w, ok := store.WatcherOf(app.Store)
	if !ok {
		return
	}
	err := w.Watch(ctx, func(c store.Change) {
		if err := app.Bus.Publish(ctx, events.NewStoreChangedEvent(c.Collection, c.Op)); err != nil {
			app.Logger.Warn("failed to publish store change", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error("store watch stopped", "error", err)
	}
}

func sweepSessions(ctx context.Context, app *App, sessions *session.Manager) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				app.Logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
