package ui

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"datastory/internal/analysis"
	"datastory/internal/chart"
	"datastory/ui/services"

	"github.com/gin-gonic/gin"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatNumber": chart.FormatNumber,
		"formatPtr": func(v *float64, precision int) string {
			if v == nil {
				return "N/A"
			}
			return chart.FormatNumber(*v, precision)
		},
		"percent": func(v *float64) string {
			if v == nil {
				return "N/A"
			}
			return chart.FormatNumber(*v, 1) + "%"
		},
		"describe": chart.ColumnDescription,
		"markdown": services.Markdown,
		"toJSON": func(v interface{}) (string, error) {
			raw, err := json.Marshal(v)
			return string(raw), err
		},
		"metricColumns": func(m analysis.KeyMetrics) []string { return sortedKeys(m.Columns) },
		"satisfactionColumns": func(m analysis.KeyMetrics) []string {
			return sortedKeys(m.AvgSatisfaction)
		},
		"add": func(a, b int) int { return a + b },
	}
}

// renderTemplate executes a template into a buffer first so a failure never
// leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.log.Error("Template error for %s: %v (data %T)", templateName, err, data)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.log.Error("Error writing template response: %v", err)
	}
}
