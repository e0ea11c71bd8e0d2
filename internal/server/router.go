package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voltaic-labs/examdex/internal/api"
	"github.com/voltaic-labs/examdex/internal/api/handlers"
	"github.com/voltaic-labs/examdex/internal/api/middleware"
)

type RouterConfig struct {
	APIKeys       []string
	AskHandler    *handlers.AskHandler
	SearchHandler *handlers.SearchHandler
	VerifyHandler *handlers.VerifyHandler
	ImageHandler  *handlers.ImageHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if len(cfg.APIKeys) > 0 {
			r.Use(middleware.APIKeyAuth(cfg.APIKeys))
		}

		r.Post("/ask", cfg.AskHandler.Ask)
		r.Post("/classify", cfg.AskHandler.Classify)

		r.Post("/search", cfg.SearchHandler.Search)
		r.Get("/codes/{code}", cfg.SearchHandler.LookupCode)

		r.Post("/verify/calculation", cfg.VerifyHandler.VerifyCalculation)

		r.Route("/images", func(r chi.Router) {
			r.Post("/init", cfg.ImageHandler.InitUpload)
			r.Post("/complete", cfg.ImageHandler.CompleteUpload)
			r.Get("/url", cfg.ImageHandler.GetDownloadURL)
		})
	})

	return r
}
