package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/engine"
)

// NewRouter builds the gin router for e. Every request context carries
// logger.
func NewRouter(e *engine.Engine, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	h := NewHandler(e)
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
		v1.GET("/node-types", h.ListNodeTypes)
		v1.POST("/workflows/validate", h.ValidateWorkflow)

		v1.POST("/executions", h.CreateExecution)
		v1.GET("/executions/:id", h.GetExecution)
		v1.GET("/executions/:id/logs", h.GetLogs)
		v1.DELETE("/executions/:id", h.CancelExecution)
		v1.GET("/executions/:id/approvals", h.ListApprovals)
		v1.POST("/executions/:id/nodes/:node/signature", h.DeliverSignature)
		v1.POST("/executions/:id/nodes/:node/signing-error", h.DeliverSigningError)
	}
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), logger))
		c.Next()
		logger.Debug("HTTP request served.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Server runs the router on an address until shut down.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a server for handler listening on addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("API server starting", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
