// Package http serves the work order and weather alert API alongside the
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// WorkOrders is the work order service used by the API.
type WorkOrders interface {
	Create(ctx context.Context, order domain.WorkOrder) (domain.WorkOrder, error)
	Get(ctx context.Context, id string) (domain.WorkOrder, error)
	Update(ctx context.Context, id string, order domain.WorkOrder) (domain.WorkOrder, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, user string) ([]domain.WorkOrder, error)
}

// WeatherAggregator turns a batch of zip codes into their alert summaries.
type WeatherAggregator interface {
	Aggregate(ctx context.Context, zips []string) domain.BatchResult
}

// Server exposes the API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	orders     WorkOrders
	weather    WeatherAggregator
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes.
func NewServer(addr string, orders WorkOrders, weather WeatherAggregator, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{
		orders:  orders,
		weather: weather,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", handleBanner)
			r.Post("/", s.handleCreateOrder)
			r.Get("/{id}", s.handleGetOrder)
			r.Put("/{id}", s.handleUpdateOrder)
			r.Delete("/{id}", s.handleDeleteOrder)
		})
		r.Get("/users", handleBanner)
		r.Post("/users", s.handleOrdersByUser)
		r.Get("/weather", handleBanner)
		r.Post("/weather", s.handleWeather)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
