package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and returns a configured Chi router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]string{"status": "ok", "service": "paywatch-transaction-api"})
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Stateless fraud assessment
		r.Post("/fraud/assess", h.AssessFraud)

		// Transaction ingestion, querying, and statistics
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.SubmitTransaction)
			r.Get("/", h.ListTransactions)
			r.Get("/stats", h.GetStats)
			r.Get("/{id}", h.GetTransaction)
			r.Post("/{id}/flag", h.FlagTransaction)
			r.Get("/{id}/reports", h.ListReports)
		})

		// Operator fraud reporting
		r.Post("/reports", h.ReportFraud)
	})

	return r
}

// requestLogger emits one slog record per request instead of chi's default
// text logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
