package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/bridge"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/interfaces"
	"github.com/ternarybob/stencil/internal/plugin"
)

// Server is the HTTP relay between command producers and the polling
// executor. It owns the route table and the bound listener; the command
// queue is injected so tests can run any number of independent relays.
type Server struct {
	config  *common.Config
	queue   *bridge.Queue
	handler *BridgeHandler
	events  *EventStream
	logger  arbor.ILogger
	router  *http.ServeMux
	server  *http.Server

	port atomic.Int32 // bound port, set once Listen succeeds
}

// New creates a relay around the given queue and event service.
func New(config *common.Config, queue *bridge.Queue, events interfaces.EventService, logger arbor.ILogger) *Server {
	s := &Server{
		config: config,
		queue:  queue,
		events: NewEventStream(events, logger),
		logger: logger,
	}

	s.handler = NewBridgeHandler(queue, s.renderBootstrap, logger)
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// renderBootstrap renders the executor bootstrap against the bound port so
// the served snippet always points back at this relay instance.
func (s *Server) renderBootstrap() (string, error) {
	return plugin.RenderBootstrap(plugin.BootstrapParams{
		BridgeURL:    fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.CurrentPort()),
		PollInterval: s.config.Bridge.PollIntervalValue(),
		GraceDelay:   s.config.Bridge.GraceDelayValue(),
	})
}

// Start binds a listener and serves until Shutdown. When the configured port
// is taken it walks up port+1, port+2, ... to a capped number of retries,
// then fails loudly rather than probing forever.
func (s *Server) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("address", listener.Addr().String()).
		Msg("Bridge relay listening")
	s.logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d/plugin", s.config.Server.Host, s.CurrentPort())).
		Msg("Executor bootstrap available")

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) listen() (net.Listener, error) {
	retries := s.config.Server.MaxPortRetries
	if retries <= 0 {
		retries = 10
	}

	basePort := s.config.Server.Port
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		port := basePort + attempt
		listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.config.Server.Host, port))
		if err == nil {
			if attempt > 0 {
				s.logger.Warn().
					Int("configured_port", basePort).
					Int("bound_port", port).
					Msg("Configured port in use, bound to fallback")
			}
			s.port.Store(int32(port))
			return listener, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("no free port in range %d-%d: %w", basePort, basePort+retries, lastErr)
}

// CurrentPort returns the bound port, or the configured port before Start.
func (s *Server) CurrentPort() int {
	if port := s.port.Load(); port != 0 {
		return int(port)
	}
	return s.config.Server.Port
}

// Handler returns the fully wrapped relay handler. Test hook for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Shutdown gracefully shuts down the relay.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down bridge relay...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("Bridge relay stopped")
	return nil
}
