// Package api wires the gin router: middleware, route groups and server
// lifecycle.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/handlers"
	"github.com/enerlind-render/odoo-agent/internal/api/middleware"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	Token          string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Deps bundles everything the routes need.
type Deps struct {
	Gateway handlers.Gateway
	Recon   handlers.Reconciler
	Bills   handlers.BillSender
	Linker  handlers.MoveLinker
	Self    odoo.SelfExclusion
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the server with all routes and middleware attached.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		config: cfg,
		engine: engine,
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes(deps)

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.RequestLogging(s.logger, "/healthz"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.config.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		// cors.New panics when no origin is allowed at all.
		corsConfig.AllowOrigins = DefaultConfig().AllowedOrigins
	}
	corsConfig.AllowHeaders = []string{"Accept", "Authorization", "Content-Type"}
	s.engine.Use(cors.New(corsConfig))
}

// setupRoutes configures all API routes. Everything except the liveness
// probe sits behind bearer auth.
func (s *Server) setupRoutes(deps Deps) {
	healthHandler := handlers.NewHealthHandler(deps.Gateway)
	s.engine.GET("/healthz", healthHandler.Healthz)

	auth := middleware.BearerAuth(s.config.Token)

	og := s.engine.Group("/odoo", auth)
	{
		og.GET("/ping", healthHandler.Ping)

		reconHandler := handlers.NewReconHandler(deps.Recon)
		og.GET("/reconcile/suggest", reconHandler.Suggest)
		og.POST("/reconcile/apply", reconHandler.Apply)
		og.POST("/reconcile/auto", reconHandler.Auto)

		providersHandler := handlers.NewProvidersHandler(deps.Gateway, deps.Self)
		og.GET("/providers/search", providersHandler.Search)
		og.POST("/providers/ensure", providersHandler.Ensure)

		invoicesHandler := handlers.NewInvoicesHandler(deps.Gateway, deps.Bills, deps.Linker, deps.Self, s.logger)
		og.GET("/attachments/find_by_checksum", invoicesHandler.FindByChecksum)
		og.POST("/invoices/fill_draft", invoicesHandler.FillDraft)
		og.POST("/invoices/attach", invoicesHandler.Attach)
		og.POST("/invoices/validate", invoicesHandler.Validate)
		og.POST("/invoices/extract", invoicesHandler.Extract)
	}

	vg := s.engine.Group("/vendorbills", auth)
	{
		billsHandler := handlers.NewVendorBillsHandler(deps.Bills)
		vg.POST("/send", billsHandler.Send)
		vg.GET("/sends", billsHandler.ListSends)
		vg.GET("/stats", billsHandler.Stats)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("api server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}
