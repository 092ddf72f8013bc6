// Package server exposes the snapshot API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/crossarb/internal/server/handler"
	"github.com/alanyoungcy/crossarb/internal/server/middleware"
	"github.com/alanyoungcy/crossarb/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port              int
	CORSOrigins       []string
	APIKey            string // empty disables authentication
	RequestsPerSecond float64
	Burst             int
}

// Handlers aggregates the route handlers.
type Handlers struct {
	Health  *handler.HealthHandler
	Arb     *handler.ArbHandler
	Markets *handler.MarketHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Server is the HTTP + WebSocket API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New registers every route and wraps the mux in CORS, logging, rate
// limiting and auth, outermost first.
func New(cfg Config, h Handlers, hub *ws.Hub, observer middleware.RequestObserver, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	Routes(mux, h, hub)

	var limiter *middleware.ClientLimiter
	if cfg.RequestsPerSecond > 0 {
		limiter = middleware.NewClientLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	var root http.Handler = mux
	root = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(root)
	root = middleware.RateLimit(limiter)(root)
	root = middleware.Logging(logger, observer)(root)
	root = middleware.CORS(cfg.CORSOrigins)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// A manual refresh can take minutes against rate-limited venues.
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Routes registers the API on mux.
func Routes(mux *http.ServeMux, h Handlers, hub *ws.Hub) {
	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.HandleFunc("GET /api/status", h.Health.Status)

	mux.HandleFunc("GET /api/arbitrage", h.Arb.List)
	mux.HandleFunc("GET /api/arbitrage/top", h.Arb.Top)
	mux.HandleFunc("POST /api/arbitrage/refresh", h.Arb.Refresh)

	mux.HandleFunc("GET /api/markets/{venue}", h.Markets.List)
	mux.HandleFunc("GET /api/kalshi/series", h.Markets.Series)

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
}

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
