package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devmon-lab/chreos/pkg/domain/interfaces"
)

// Server represents the HTTP server
type Server struct {
	*http.Server
	router chi.Router
}

// NewServer creates a new HTTP server exposing the ingestion, debt and
// analytics APIs
func NewServer(
	ctx context.Context,
	addr string,
	ingestUC interfaces.Ingest,
	debtUC interfaces.TechnicalDebt,
	analyticsUC interfaces.Analytics,
) *Server {
	router := chi.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	h := &handler{
		ingest:    ingestUC,
		debt:      debtUC,
		analytics: analyticsUC,
	}

	// Health check and Prometheus metrics
	router.Get("/health", handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	// API routes
	router.Route("/api/orgs/{orgID}", func(r chi.Router) {
		r.Post("/tickets", h.handleCreateTicket)
		r.Post("/tickets/{ticketID}/resolve", h.handleResolveTicket)
		r.Get("/tickets", h.handleListTickets)

		r.Post("/usage", h.handleRecordUsage)

		r.Get("/areas", h.handleListAreas)
		r.Put("/areas/{areaID}", h.handleUpsertArea)

		r.Get("/debt", h.handleOrganizationDebt)
		r.Get("/debt/{areaID}", h.handleAreaDebt)

		r.Post("/analyses", h.handleRunAnalysis)
		r.Get("/analyses", h.handleListAnalyses)

		r.Get("/analytics/tickets", h.handleTicketBreakdown)
		r.Get("/analytics/correlation", h.handleUsageCorrelation)
		r.Get("/analytics/trends", h.handleTrendAnalysis)

		r.Get("/report", h.handleReport)
	})

	// Home page
	router.Get("/*", handleHome)

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router: router,
	}
}

// Router returns the underlying router, mainly for tests
func (s *Server) Router() chi.Router {
	return s.router
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chreos",
	})
}

// handleHome serves a minimal landing page
func handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>chreos</title></head>
<body>
    <h1>chreos</h1>
    <p>Technical debt analytics for support tickets and product usage.</p>
    <p>See <a href="/health">/health</a> and <a href="/metrics">/metrics</a>.</p>
</body>
</html>`)); err != nil {
		ctxlog.From(r.Context()).Error("Failed to write home page", "error", err)
	}
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	var message string
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	} else {
		message = err.Error()
	}

	writeJSON(w, r, status, map[string]string{
		"error": message,
	})
}
