// Package server exposes the HTTP surface: the chat endpoint, the direct
// product API, health and metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partpilot/server/internal/agent/graph"
	"github.com/partpilot/server/internal/agent/model"
	logx "github.com/partpilot/server/pkg/logger"
)

// Config carries the listener settings.
type Config struct {
	Addr       string
	CORSOrigin string
	// ServiceName and Environment show up on the root status endpoint.
	ServiceName string
	Environment string
}

// Server owns the HTTP listener and routes.
type Server struct {
	http *http.Server
}

// New wires all routes and middleware. The catalog backs the direct product
// API; the runner backs /chat.
func New(cfg Config, runner graph.Runner, catalog model.CatalogStore, health *Health) *Server {
	h := &handlers{
		runner:      runner,
		catalog:     catalog,
		serviceName: cfg.ServiceName,
		environment: cfg.Environment,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("GET /products/search", h.searchProducts)
	mux.HandleFunc("GET /products/{part_number}", h.getProduct)
	mux.HandleFunc("GET /products/{part_number}/installation", h.getInstallationGuide)
	mux.Handle("GET /health", health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           RequestLog(CORS(cfg.CORSOrigin, mux)),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until the listener closes. http.ErrServerClosed after a
// graceful Shutdown is passed through to the caller.
func (s *Server) Start() error {
	logx.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
