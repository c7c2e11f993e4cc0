package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/http/handlers"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/middleware"
)

// Options carries the middleware settings for the router.
type Options struct {
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	SubmitRateLimit int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", app.ListProducts)
		r.Get("/products/{productId}", app.GetProduct)
		r.Get("/tryon/jobs", app.ListJobs)
		r.Get("/stats", app.StatsSummary)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", app.ListLogs)
			r.Post("/", app.IngestLog)
			r.Delete("/", app.ClearLogs)
		})

		r.Post("/sessions", app.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", app.DeleteSession)
			r.Get("/notifications", app.Notifications)

			r.Route("/tryon", func(r chi.Router) {
				submitLimit := middleware.RateLimit(opts.SubmitRateLimit, time.Minute)
				r.With(submitLimit).Post("/", app.SubmitTryOn)
				r.With(submitLimit).Post("/retry", app.RetryTryOn)
				r.Get("/", app.TryOnView)
				r.Post("/reset", app.ResetTryOn)
				r.Get("/result", app.TryOnResult)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", app.GetWishlist)
				r.Post("/", app.AddToWishlist)
				r.Delete("/{productId}", app.RemoveFromWishlist)
			})

			r.Route("/compare", func(r chi.Router) {
				r.Get("/", app.GetWishlist)
				r.Post("/", app.AddToCompare)
				r.Delete("/", app.ClearCompare)
				r.Delete("/{productId}", app.RemoveFromCompare)
			})
		})
	})

	return r
}
