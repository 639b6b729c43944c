package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

// NewRouter mounts the API under /api/v1 with health, readiness and metrics at the root
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/stats/filtered", h.GetFilteredStats)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.GetTournaments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTournament)
				r.Get("/matches", h.GetTournamentMatches)
				r.Get("/weapons", h.GetTournamentWeapons)
				r.Get("/players", h.GetTournamentPlayers)
				r.Get("/stats", h.GetTournamentStats)
			})
		})

		r.Post("/ingest/events", h.IngestEvents)
	})

	return r
}
