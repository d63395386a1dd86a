// Package api provides the HTTP surface of the dataset reduction service.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"datareduce/internal/middleware"
	"datareduce/internal/service"
)

// Handler bundles the services behind the REST routes.
type Handler struct {
	datasets *service.DatasetService
	reduce   *service.ReduceService
	analysis *service.AnalysisService
	logger   *slog.Logger
}

func NewHandler(datasets *service.DatasetService, reduce *service.ReduceService, analysis *service.AnalysisService, logger *slog.Logger) *Handler {
	return &Handler{datasets: datasets, reduce: reduce, analysis: analysis, logger: logger}
}

// RouterConfig carries the cross-cutting HTTP settings.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Router builds the chi router with the full middleware stack.
func (h *Handler) Router(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", h.uploadDataset)
		r.Get("/", h.listDatasets)

		r.Route("/{datasetID}", func(r chi.Router) {
			r.Get("/schema", h.getSchema)
			r.Get("/preview", h.previewDataset)
			r.Get("/columns/{column}/distinct", h.distinctValues)

			r.Post("/reduce/preview", h.previewReduce)
			r.Post("/reduce/export", h.exportReduce)

			r.Get("/analysis/bootstrap", h.bootstrap)
			r.Get("/analysis/profile", h.profile)
			r.Get("/analysis/time-trend", h.timeTrend)
			r.Get("/analysis/top-products", h.topProducts)
			r.Get("/analysis/top-members", h.topMembers)
			r.Get("/analysis/average-order-value", h.averageOrderValue)
			r.Get("/analysis/new-vs-returning", h.newVsReturning)
		})
	})

	r.Get("/api/analysis/capabilities", h.capabilities)

	return r
}

// queryInt parses an optional integer query parameter; absent or garbage
// values fall back to zero, which the services treat as "use the default".
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
