// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/config"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/mw"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/routes"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http     *http.Server
	logger   logger.Logger
	listener net.Listener
}

// NewRouter builds the router with global middlewares and every route.
func NewRouter(log logger.Logger, d deps.Deps) http.Handler {
	if d.TimeNow == nil {
		d.TimeNow = time.Now
	}

	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(mw.Log(log))

	routes.RegisterAll(r, d)

	return r
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, log logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(log, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:   s,
		logger: log,
	}
}

// Listen binds the listening socket. Requests are accepted once Serve runs,
// but connections queue from here on.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve accepts requests until Stop. Listen must have been called.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("http server is not listening")
	}
	s.logger.Infof("HTTP server listening on %s", s.listener.Addr())
	err := s.http.Serve(s.listener)
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
