// Package inference serves predictions from one model loaded at startup.
package inference

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emiliopalmerini/poisonbench/internal/ml"
)

// Server exposes /health, /predict and /metrics over an immutable model.
type Server struct {
	model    *ml.Model
	router   chi.Router
	registry *prometheus.Registry
	metrics  *metrics
	validate *validator.Validate
	log      *slog.Logger
	port     int
}

// NewServer wires the routes. model is never modified or reloaded.
func NewServer(model *ml.Model, port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		model:    model,
		router:   chi.NewRouter(),
		registry: reg,
		metrics:  newMetrics(reg),
		validate: validator.New(),
		log:      log,
		port:     port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Post("/predict", s.handlePredict)
	s.router.Get("/schema", s.handleSchema)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// ServeHTTP lets the server be mounted or driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("inference server listening", "addr", server.Addr, "features", s.model.Schema.Names())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("server shutdown failed", "error", err)
		}
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
