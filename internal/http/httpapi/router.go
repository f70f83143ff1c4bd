package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// NewRouter assembles the HTTP surface: public health and leaderboard reads,
// and the authenticated session and payment operations.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Geo(lookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/leaderboard", app.Leaderboard)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.AuthJWT(cfg.JWTSecret),
			middleware.RequireVerifiedEmail,
			middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		)

		r.Get("/v1/me", app.Me)

		r.Route("/v1/sessions", func(r chi.Router) {
			r.Post("/", app.SessionStart)
			r.Post("/{id}/pause", app.SessionPause)
			r.Post("/{id}/resume", app.SessionResume)
			r.Post("/{id}/end", app.SessionEnd)
		})

		r.Route("/v1/payments", func(r chi.Router) {
			r.Post("/", app.PaymentsCreate)
			r.Post("/verify", app.PaymentsVerify)
		})
	})

	return r
}
