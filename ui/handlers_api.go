package ui

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"datastory/domain/core"
	"datastory/internal/analysis"
	"datastory/internal/chart"
	"datastory/internal/errors"

	"github.com/gin-gonic/gin"
)

const (
	previewRows      = 10
	defaultUsageDays = 30
)

func (s *Server) handleListSamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"samples": s.samples.Info()})
}

func (s *Server) handleSamplePreview(c *gin.Context) {
	name := c.Param("name")
	info, ok := s.samples.Lookup(name)
	if !ok {
		s.respondError(c, errors.WithCode(errors.CodeNotFound, fmt.Errorf("%w: %q", core.ErrSampleNotFound, name)))
		return
	}
	ds, err := s.samples.Load(name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"info": info, "rows": ds.NumRows(), "preview": ds.Head(previewRows)})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	a, err := s.stories.Analyze(ds)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset":     ds.Name,
		"analysis":    a,
		"key_metrics": analysis.ExtractKeyMetrics(ds, nil),
	})
}

func (s *Server) handlePrompt(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	prompt, err := s.stories.CompilePrompt(ds, req.storyConfig())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": prompt, "config": req.storyConfig()})
}

func (s *Server) handleStory(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.stories.GenerateStory(c.Request.Context(), ds, req.storyConfig())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleQuestion(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.stories.AskQuestion(c.Request.Context(), ds, req.Question)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleChart binds one chart spec and reports why it failed, unlike the
// story pipeline which silently drops unbindable charts
func (s *Server) handleChart(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ch, err := s.stories.Binder().Bind(ds, chart.Spec{Type: req.Type, XColumn: req.XColumn, YColumn: req.YColumn, Title: req.Title})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// handleInsight runs one extractor: trend, anomalies or correlations
func (s *Server) handleInsight(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := s.loadDataset(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	switch kind := c.Param("kind"); kind {
	case "trend":
		result, err := analysis.DetectTrend(ds, req.DateColumn, req.ValueColumn)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case "anomalies":
		method := req.Method
		if method == "" {
			method = analysis.MethodIQR
		}
		threshold := req.Threshold
		if threshold <= 0 {
			threshold = analysis.DefaultAnomalyThreshold
		}
		result, err := analysis.DetectAnomalies(ds, req.Column, method, threshold)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case "correlations":
		threshold := req.Threshold
		if threshold <= 0 {
			threshold = analysis.DefaultCorrelationThreshold
		}
		c.JSON(http.StatusOK, gin.H{"threshold": threshold, "pairs": analysis.RankCorrelations(ds, threshold)})
	default:
		s.respondError(c, errors.NotFound(fmt.Sprintf("insight %q", kind)))
	}
}

func (s *Server) handleUsage(c *gin.Context) {
	if s.usage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage ledger is not configured (DATABASE_URL is empty)", "code": errors.CodeConfigInvalid})
		return
	}

	days := defaultUsageDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(c, errors.InvalidInput("days must be a positive integer"))
			return
		}
		days = n
	}

	end := time.Now().UTC()
	summary, err := s.usage.GetUsageSummary(c.Request.Context(), end.AddDate(0, 0, -days), end)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
