// Package api serves the synthesizer over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/spendsight/internal/insight"
	"github.com/cleared-dev/spendsight/internal/logger"
)

// DefaultMaxBodyBytes bounds a request body.
const DefaultMaxBodyBytes = 10 << 20

// Handler holds the HTTP handlers' dependencies.
type Handler struct {
	synth    *insight.Synthesizer
	currency string
	log      zerolog.Logger
	maxBody  int64
}

func New(synth *insight.Synthesizer, currency string, log zerolog.Logger) *Handler {
	return &Handler{synth: synth, currency: currency, log: log, maxBody: DefaultMaxBodyBytes}
}

// Router mounts the API routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.Health)

	r.Get("/api/templates", h.ListTemplates)
	r.Post("/api/analysis", h.Analysis)
	r.Post("/api/insights/statistical", h.StatisticalInsights)
	r.Post("/api/insights/narrative", h.NarrativeInsights)
	r.Post("/api/ask/{templateID}", h.Ask)

	return r
}

// requestLogger attaches a request-scoped logger to the context and logs
// each completed request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := h.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

		l.Info().
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http.request")
	})
}
