package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rolegate/internal/application/registry"
	"github.com/rolegate/internal/config"
	"github.com/rolegate/internal/transport/http/handler"
)

// NewRouter builds the operational HTTP surface: liveness, registry status
// and prometheus metrics. Verification itself never flows through HTTP.
func NewRouter(cfg *config.Config, reg *registry.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}))

	statusH := handler.NewStatusHandler(reg)

	r.Get("/", statusH.Alive)
	r.Get("/healthz", statusH.Alive)
	r.Get("/status", statusH.Status)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
