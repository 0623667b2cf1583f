// Package fragments provides template name constants for the embedded templates
package fragments

import "strings"

// Template names as registered by ParseFS (base file names)
const (
	// Pages
	IndexPage = "index.html"
	StoryPage = "story.html"

	// Layout
	Header = "header.html"
	Footer = "footer.html"

	// Fragments
	InsightCard  = "insight_card.html"
	ChartCard    = "chart_card.html"
	ProfileTable = "profile_table.html"
	KeyMetrics   = "key_metrics.html"
	AnswerCard   = "answer_card.html"
)

// GetAllTemplatePaths returns all template names for registration checks
func GetAllTemplatePaths() []string {
	return []string{
		IndexPage,
		StoryPage,
		Header,
		Footer,
		InsightCard,
		ChartCard,
		ProfileTable,
		KeyMetrics,
		AnswerCard,
	}
}

// GetTemplateCategory returns the category for a given template name
func GetTemplateCategory(name string) string {
	switch {
	case name == IndexPage || name == StoryPage:
		return "page"
	case name == Header || name == Footer:
		return "layout"
	case strings.HasSuffix(name, ".html"):
		return "fragment"
	default:
		return "unknown"
	}
}
