// Package server exposes the party, event, bet, and resolution operations
// over HTTP plus a WebSocket feed for live updates.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mofulabs/mofumarket/internal/domain"
	"github.com/mofulabs/mofumarket/internal/server/handler"
	"github.com/mofulabs/mofumarket/internal/server/middleware"
	"github.com/mofulabs/mofumarket/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKey          string // if empty, authentication is disabled
	RateLimit       int    // requests per window per client IP; 0 disables
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Parties *handler.PartyHandler
	Events  *handler.EventHandler
	Bets    *handler.BetHandler
	Calls   *handler.CallHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, optional rate limiting) and
// attaches the WebSocket hub. limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Party and membership endpoints.
	mux.HandleFunc("POST /api/parties", handlers.Parties.CreateParty)
	mux.HandleFunc("POST /api/parties/join", handlers.Parties.JoinParty)
	mux.HandleFunc("GET /api/parties/{id}", handlers.Parties.GetParty)
	mux.HandleFunc("GET /api/parties/slug/{slug}", handlers.Parties.GetPartyBySlug)
	mux.HandleFunc("GET /api/parties/{id}/members", handlers.Parties.ListMembers)
	mux.HandleFunc("DELETE /api/parties/{id}/members/{memberID}", handlers.Parties.KickMember)

	// Event endpoints.
	mux.HandleFunc("POST /api/events", handlers.Events.CreateEvent)
	mux.HandleFunc("GET /api/events/{id}", handlers.Events.GetEvent)
	mux.HandleFunc("PATCH /api/events/{id}", handlers.Events.UpdateTitle)
	mux.HandleFunc("GET /api/events/{id}/prices", handlers.Events.PriceHistory)
	mux.HandleFunc("GET /api/parties/{id}/events", handlers.Events.ListEvents)

	// Bet endpoints.
	mux.HandleFunc("POST /api/events/{id}/bets", handlers.Bets.PlaceBet)
	mux.HandleFunc("GET /api/events/{id}/bets", handlers.Bets.ListEventBets)
	mux.HandleFunc("GET /api/parties/{id}/bets", handlers.Bets.ListPartyBets)

	// Call and resolution endpoints.
	mux.HandleFunc("POST /api/events/{id}/calls", handlers.Calls.CallEvent)
	mux.HandleFunc("GET /api/events/{id}/calls", handlers.Calls.ListCalls)
	mux.HandleFunc("POST /api/calls/{id}/reverse", handlers.Calls.ReverseCall)
	mux.HandleFunc("POST /api/events/{id}/confirm", handlers.Calls.ConfirmOutcome)
	mux.HandleFunc("POST /api/events/{id}/reverse", handlers.Calls.ReverseOutcome)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
