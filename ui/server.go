package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"datastory/adapters/loader"
	"datastory/app"
	"datastory/internal"
	"datastory/internal/config"
	"datastory/internal/samples"
	"datastory/models"
	"datastory/ui/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html templates/fragments/*.html static/*
var embeddedFiles embed.FS

// UsageReporter summarizes recorded narrative token usage
type UsageReporter interface {
	GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error)
}

// Deps are the collaborators the server needs. Usage may be nil.
type Deps struct {
	Config  *config.Config
	Stories *app.StoryService
	Samples *samples.Registry
	Loader  *loader.Loader
	Usage   UsageReporter
	Ready   func() error
}

// Server serves the upload page, the story page and the JSON API
type Server struct {
	router    *gin.Engine
	templates *template.Template
	render    *services.RenderService
	log       *internal.Logger

	cfg     *config.Config
	stories *app.StoryService
	samples *samples.Registry
	loader  *loader.Loader
	usage   UsageReporter
	ready   func() error
}

// NewServer parses the embedded templates and registers routes
func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Loader == nil {
		deps.Loader = loader.New()
	}
	if deps.Samples == nil {
		deps.Samples = samples.NewRegistry(deps.Loader)
	}

	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		render:    services.NewRenderService(templates),
		log:       internal.NewLogger(internal.ParseLogLevel(deps.Config.LogLevel)).With("UI"),
		cfg:       deps.Config,
		stories:   deps.Stories,
		samples:   deps.Samples,
		loader:    deps.Loader,
		usage:     deps.Usage,
		ready:     deps.Ready,
	}

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	// Pages
	s.router.GET("/", s.handleIndex)
	s.router.POST("/story", s.handleStoryPage)
	s.router.POST("/question", s.handleQuestionFragment)

	// JSON API
	api := s.router.Group("/api")
	api.GET("/samples", s.handleListSamples)
	api.GET("/samples/:name", s.handleSamplePreview)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/prompt", s.handlePrompt)
	api.POST("/story", s.handleStory)
	api.POST("/question", s.handleQuestion)
	api.POST("/chart", s.handleChart)
	api.POST("/insights/:kind", s.handleInsight)
	api.GET("/usage", s.handleUsage)

	if s.cfg.Metrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	s.router.GET("/healthz", s.handleHealth)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.ready != nil {
		if err := s.ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
