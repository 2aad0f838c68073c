package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/ascendia/internal/http/analysis"
	"github.com/MrJamesThe3rd/ascendia/internal/http/auth"
	"github.com/MrJamesThe3rd/ascendia/internal/http/export"
	"github.com/MrJamesThe3rd/ascendia/internal/http/investec"
)

type Options struct {
	AllowedOrigins []string
}

func New(
	opts Options,
	verifier *auth.Verifier,
	investecV1 *investec.Handler,
	analysisV1 *analysis.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(verifier.Middleware)

		r.Route("/investec", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			investecV1.Routes(r)
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			analysisV1.Routes(r)
		})

		r.Route("/export", exportV1.Routes)
	})

	return router
}
