package ui

import (
	"fmt"
	"io/fs"
	"net/http"

	"datastory/internal/metrics"
	"datastory/ui/middleware"

	"github.com/gin-gonic/gin"
)

// setupMiddleware configures Gin middleware and the embedded static files
func (s *Server) setupMiddleware() error {
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(middleware.RequestID())
	if s.cfg.Metrics {
		s.router.Use(metrics.GinMiddleware())
	}
	s.router.Use(middleware.MaxBodySize(s.cfg.Server.MaxUploadMB))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to open static files: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}
