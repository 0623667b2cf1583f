package services

import (
	"html/template"
	"log"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderService renders narrative text and HTML fragments
type RenderService struct {
	templates *template.Template
}

func NewRenderService(templates *template.Template) *RenderService {
	return &RenderService{
		templates: templates,
	}
}

// Markdown converts narrative text to HTML. Raw HTML in the source is dropped,
// so model output can never inject markup.
func Markdown(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.Safelink | html.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML([]byte(text), p, renderer))
}

// Markdown is the package-level Markdown, for callers holding the service
func (s *RenderService) Markdown(text string) template.HTML {
	return Markdown(text)
}

// RenderFragment executes a fragment template and returns its HTML, or an
// inline error block when rendering fails
func (s *RenderService) RenderFragment(name string, data interface{}) string {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[ERROR] Failed to render %s template: %v", name, err)
		return `<div class="alert alert-error">Error rendering ` + template.HTMLEscapeString(name) + `</div>`
	}
	return buf.String()
}
