package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/nfsee/internal/repo"
)

// NewRouter creates the API router with all endpoints registered. Metrics
// are served from gatherer, or the default registry when it is nil.
func NewRouter(r repo.Repository, log *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	containers := &ContainersHandler{Repo: r}
	items := &ItemsHandler{Repo: r}
	search := &SearchHandler{Repo: r, Log: log}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, LoggingMiddleware(log), middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.Route("/api", func(api chi.Router) {
		api.Route("/containers", func(c chi.Router) {
			c.Get("/", containers.List)
			c.Post("/", containers.Create)
			c.Get("/{id}", containers.Get)
			c.Put("/{id}", containers.Update)
			c.Delete("/{id}", containers.Delete)
			c.Get("/{id}/items", items.List)
		})

		api.Route("/items", func(i chi.Router) {
			i.Post("/", items.Create)
			i.Get("/{id}", items.Get)
			i.Put("/{id}", items.Update)
			i.Delete("/{id}", items.Delete)
			i.Post("/{id}/toggle", items.Toggle)
		})

		api.Get("/search", search.Search)
		api.Get("/search/stream", search.Stream)
	})

	return mux
}
