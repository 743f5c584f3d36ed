// internal/api/http/router.go
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/mindengage-evalreports/internal/export"
)

type RouterOptions struct {
	CORSOrigins    []string
	ExportPrefix   string
	RequestTimeout time.Duration
	// Gatherer backs /metrics; nil leaves the route unmounted.
	Gatherer prometheus.Gatherer
}

func NewRouter(svc Reports, opts RouterOptions) chi.Router {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/reports", func(rr chi.Router) {
		rr.Get("/evaluations", ReportHandler(svc))
		rr.Get("/evaluations.csv", CSVHandler(svc, export.KindEvaluations, opts.ExportPrefix))
		rr.Get("/program-summary.csv", CSVHandler(svc, export.KindProgramSummary, opts.ExportPrefix))
		rr.Get("/panelist-summary.csv", CSVHandler(svc, export.KindPanelistSummary, opts.ExportPrefix))
		rr.Get("/programs", FilterOptionsHandler(svc))
		rr.Post("/refresh", RefreshHandler(svc))
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", ReadyHandler(svc))
	return r
}
