package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"murmur/internal/logging"
)

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(svc *Service, logger *slog.Logger) http.Handler {
	logger = logging.NewComponentLogger(logger, "api")
	h := &handlers{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(recovery(logger))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/status", h.status)

		r.Get("/folders", h.listFolders)
		r.Post("/folders", h.addFolder)
		r.Put("/folders/{folderID}", h.updateFolder)

		r.Post("/scan", h.scan)

		r.Get("/jobs", h.listJobs)
		r.Post("/jobs/retry", h.retryJobs)
		r.Get("/jobs/{jobID}", h.getJob)

		r.Get("/logs", h.listLogs)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.updateSettings)
	})
	return r
}
