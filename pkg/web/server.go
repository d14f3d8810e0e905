// Package web serves the live focus dashboard: JSON status, a websocket
// status stream and Prometheus text metrics.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/focus"
	"github.com/teslashibe/focuson/pkg/hub"
	"github.com/teslashibe/focuson/pkg/session"
)

const shutdownTimeout = 5 * time.Second

// Server is the dashboard server. Publish is called by the sampling loop;
// handlers read the latest copy.
type Server struct {
	app    *fiber.App
	port   int
	logger *slog.Logger

	statusHub *hub.Hub

	mu     sync.RWMutex
	snap   focus.Snapshot
	totals session.Totals
	ready  bool
}

// NewServer creates a dashboard server for port.
func NewServer(port int) *Server {
	s := &Server{
		port:      port,
		logger:    log.Component("web.server"),
		statusHub: hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "FocusON Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/session", s.handleSession)

	app.Get("/metrics", s.handleMetrics)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("web: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the status hub and serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())

	go s.statusHub.Run(ctx)
	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Publish stores the latest state and pushes the snapshot to websocket clients.
func (s *Server) Publish(snap focus.Snapshot, totals session.Totals) {
	s.mu.Lock()
	s.snap = snap
	s.totals = totals
	s.ready = true
	s.mu.Unlock()

	if err := s.statusHub.BroadcastJSON(snap); err != nil {
		s.logger.Warn("encode status", "error", err)
	}
}

func (s *Server) latest() (focus.Snapshot, session.Totals, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.totals, s.ready
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.statusHub.ClientCount()
}
