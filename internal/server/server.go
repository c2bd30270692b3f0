// Package server exposes the account client over a small JSON HTTP API so
// local tools can share one client, and therefore one result cache.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/allyourbase/nexmoctl/internal/config"
	"github.com/allyourbase/nexmoctl/internal/httputil"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Account is the set of client operations the server exposes.
// *nexmo.Client implements it.
type Account interface {
	Balance(ctx context.Context) (float64, error)
	Pricing(ctx context.Context, countryCode string) (*nexmo.PricingResponse, error)
	NumbersList(ctx context.Context) ([]nexmo.Number, error)
	NumbersSearch(ctx context.Context, countryCode, pattern string) ([]nexmo.Number, error)
	NumbersBuy(ctx context.Context, countryCode, msisdn string) (bool, error)
	NumbersCancel(ctx context.Context, countryCode, msisdn string) (bool, error)
	SearchMessage(ctx context.Context, id string) (*nexmo.Message, error)
	SearchMessages(ctx context.Context, ids []string) (*nexmo.MessagesResponse, error)
	SearchMessagesByRecipient(ctx context.Context, to, date string) (*nexmo.MessagesResponse, error)
}

// Server is the HTTP facade.
type Server struct {
	cfg       *config.Config
	router    *chi.Mux
	http      *http.Server
	listener  net.Listener
	logger    *slog.Logger
	account   Account
	startTime time.Time
}

// New creates a Server with middleware and routes configured.
func New(cfg *config.Config, logger *slog.Logger, account Account) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))

	s := &Server{
		cfg:       cfg,
		router:    r,
		logger:    logger,
		account:   account,
		startTime: time.Now(),
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if cfg.Server.AuthToken != "" {
			r.Use(requireToken(cfg.Server.AuthToken))
		}

		r.Get("/balance", s.handleBalance)
		r.Get("/pricing/{country}", s.handlePricing)

		r.Route("/numbers", func(r chi.Router) {
			r.Get("/", s.handleNumbersList)
			r.Get("/search/{country}", s.handleNumbersSearch)
			r.Post("/{country}/{msisdn}/buy", s.handleNumbersBuy)
			r.Post("/{country}/{msisdn}/cancel", s.handleNumbersCancel)
		})

		r.Get("/messages", s.handleMessagesSearch)
		r.Get("/messages/{id}", s.handleMessage)
	})

	return s
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// StartWithReady begins listening. It closes the ready channel once the
// listener is bound, then blocks serving requests.
func (s *Server) StartWithReady(ready chan<- struct{}) error {
	s.http = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.listener = ln
	s.logger.Info("server starting", "address", ln.Addr().String())
	close(ready)

	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	// A zero timeout waits for in-flight requests without a deadline.
	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.logger.Info("shutting down server", "timeout", timeout)
	return s.http.Shutdown(ctx)
}

// Addr returns the bound listener address, or "" before the server starts.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}
