package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/http/handlers"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/middleware"
)

// NewRouter assembles the HTTP surface. Identity runs on everything under
// /v1 except the health probe; the rate limiter only gates the endpoints
// that spend provider budget.
func NewRouter(app *handlers.App, limiter middleware.RateLimitDecider, logger zerolog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-User-ID", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Route("/jobs", func(r chi.Router) {
			r.With(middleware.RateLimit(limiter)).Post("/", app.JobsCreate)
			r.Get("/{job_id}", app.JobStatus)
			r.Get("/{job_id}/stream", app.JobStream)
			r.Post("/{job_id}/retry", app.JobRetry)
		})

		r.With(middleware.RateLimit(limiter)).Post("/generate", app.GenerateStream)

		r.Get("/usage", app.UsageGet)
		r.With(middleware.RateLimit(limiter)).Post("/usage/claim", app.UsageClaim)

		r.Get("/stats", app.StatsGet)
	})

	return r
}
