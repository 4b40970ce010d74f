// Package web serves scenes, evaluated frames and render jobs over HTTP and
// WebSocket.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-autonate/pkg/hub"
	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxFrames caps the range served by GET /api/scenes/:id/frames.
	// Longer ranges must go through a render job.
	MaxFrames int

	// StaticDir, if set, is served at "/".
	StaticDir string

	// AccessLog enables per-request logging.
	AccessLog bool
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		MaxFrames: 900,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFarm sets the farm used for synchronous frame ranges.
func WithFarm(f *render.Farm) Option {
	return func(s *Server) { s.farm = f }
}

// WithHub sets the preview hub. Use this when job and scene notifications
// are wired to the hub before the server exists.
func WithHub(h *hub.Hub) Option {
	return func(s *Server) { s.preview = h }
}

// Server is the autonate API server
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	scenes  *scene.Registry
	jobs    *render.Jobs
	farm    *render.Farm
	preview *hub.Hub

	started time.Time
}

// NewServer creates a new API server
func NewServer(cfg Config, scenes *scene.Registry, jobs *render.Jobs, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = DefaultConfig().MaxFrames
	}

	s := &Server{
		cfg:     cfg,
		logger:  slog.Default(),
		scenes:  scenes,
		jobs:    jobs,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	if s.farm == nil {
		s.farm = render.NewFarm(render.WithLogger(s.logger))
	}
	if s.preview == nil {
		s.preview = hub.New("preview", s.logger)
	}
	s.preview.OnMessage(s.handlePreviewMessage)

	app := fiber.New(fiber.Config{
		AppName:               "autonate",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/scenes", s.handleListScenes)
	api.Get("/scenes/:id", s.handleGetScene)
	api.Get("/scenes/:id/frames", s.handleFrameRange)
	api.Get("/scenes/:id/frames/:frame", s.handleFrame)
	api.Post("/scenes/:id/render", s.handleSubmitRender)
	api.Get("/jobs", s.handleListJobs)
	api.Get("/jobs/:id", s.handleGetJob)
	api.Delete("/jobs/:id", s.handleCancelJob)
	api.Get("/jobs/:id/frames", s.handleJobFrames)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))
	app.Get("/ws/scenes/:id/scrub", s.scrubHandler())

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the preview hub.
func (s *Server) Hub() *hub.Hub {
	return s.preview
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the preview hub and serves on ln until ctx is done, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.preview.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}
