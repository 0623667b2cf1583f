package ai

import (
	"encoding/json"
	"fmt"
	"log"

	"datastory/domain/dataset"
	"datastory/domain/story"
	"datastory/internal/analysis"
)

const (
	// SampleRows is the number of values per column kept in the prompt sample
	SampleRows = 5
	// SummaryTopCategories is the number of categories kept per column
	SummaryTopCategories = 3
	// SummaryCorrelationThreshold is the minimum |r| kept in the summary
	SummaryCorrelationThreshold = 0.5
)

// ColumnSummary is the reduced profile of one column
type ColumnSummary struct {
	Type          string                  `json:"type"`
	Mean          *float64                `json:"mean,omitempty"`
	Min           *float64                `json:"min,omitempty"`
	Max           *float64                `json:"max,omitempty"`
	TopCategories []dataset.CategoryCount `json:"top_categories,omitempty"`
}

// HighCorrelation is a strongly related column pair kept in the summary
type HighCorrelation struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Correlation float64 `json:"correlation"`
}

// SimplifiedSummary is the bounded view of an analysis sent to the model
type SimplifiedSummary struct {
	BasicInfo        dataset.BasicInfo        `json:"basic_info"`
	ColumnSummary    map[string]ColumnSummary `json:"column_summary"`
	HighCorrelations []HighCorrelation        `json:"high_correlations,omitempty"`
}

var audienceTraits = map[story.Audience]string{
	story.AudienceExecutive: "Business decision makers interested in core business impact and strategic insight. They prefer business value and actionable conclusions over technical detail.",
	story.AudienceMarketing: "Marketing professionals interested in customer behaviour, segments, campaign performance and market trends. They prefer business value and strategic marketing insight.",
	story.AudienceTechnical: "Data and engineering specialists interested in in-depth analysis and technical detail. They appreciate notes on statistical significance, methodology and data quality.",
	story.AudienceGeneral:   "Readers who may lack data analysis expertise and prefer insights explained in everyday language rather than technical terms.",
}

var focusInstructions = map[story.Focus]string{
	story.FocusTrends:       "Identify and explain the main trends in the data, such as changes over time, growth or decline patterns and recurring cycles.",
	story.FocusAnomalies:    "Identify and explain unusual patterns, outliers, unexpected values and areas that need special attention.",
	story.FocusCorrelations: "Analyze and explain the relationships, correlations and possible causal links between variables.",
	story.FocusHolistic:     "Derive comprehensive insights with business value from the data and propose possible action items.",
}

var lengthInstructions = map[story.Length]string{
	story.LengthBrief:    "Summarize only the key points concisely. Keep the whole response to 3-4 main insights with short explanations.",
	story.LengthNormal:   "Explain the main insights and their meaning in balance, with a reasonable amount of detail and examples.",
	story.LengthDetailed: "Provide an in-depth analysis of each insight with varied examples, detailed explanation and additional context.",
}

const (
	genericAudience = "A general reader."
	genericFocus    = "Find and explain the key insights in the data."
	genericLength   = "Provide a balanced explanation."
)

// AudienceTraits resolves an audience to its instruction fragment
func AudienceTraits(a story.Audience) string {
	if s, ok := audienceTraits[a]; ok {
		return s
	}
	return genericAudience
}

// FocusInstruction resolves a focus to its instruction fragment
func FocusInstruction(f story.Focus) string {
	if s, ok := focusInstructions[f]; ok {
		return s
	}
	return genericFocus
}

// LengthInstruction resolves a length to its instruction fragment
func LengthInstruction(l story.Length) string {
	if s, ok := lengthInstructions[l]; ok {
		return s
	}
	return genericLength
}

// Simplify reduces an analysis to its basic shape, a per-column type tag with
// mean/min/max or top categories, and the correlation pairs with |r| >= 0.5.
func Simplify(a dataset.Analysis) SimplifiedSummary {
	summary := SimplifiedSummary{
		BasicInfo:     a.BasicInfo,
		ColumnSummary: make(map[string]ColumnSummary, len(a.NumericStats)+len(a.CategoricalStats)),
	}

	for col, s := range a.NumericStats {
		summary.ColumnSummary[col] = ColumnSummary{Type: "numeric", Mean: s.Mean, Min: s.Min, Max: s.Max}
	}

	for col, counts := range a.CategoricalStats {
		top := counts
		if len(top) > SummaryTopCategories {
			top = top[:SummaryTopCategories]
		}
		summary.ColumnSummary[col] = ColumnSummary{Type: "categorical", TopCategories: top}
	}

	if a.Correlation != nil {
		for _, p := range analysis.RankMatrix(a.Correlation, SummaryCorrelationThreshold) {
			summary.HighCorrelations = append(summary.HighCorrelations, HighCorrelation{
				Column1: p.Column1, Column2: p.Column2, Correlation: p.Coefficient,
			})
		}
	}

	return summary
}

// PromptCompiler renders story and question prompts from an analysis
type PromptCompiler struct {
	prompts *PromptManager
}

// NewPromptCompiler creates a compiler; promptsDir may be empty
func NewPromptCompiler(promptsDir string) *PromptCompiler {
	return &PromptCompiler{prompts: NewPromptManager(promptsDir)}
}

// Compile renders the story prompt for an analysis, a configuration and a
// data sample. The sample is truncated to SampleRows values per column.
func (pc *PromptCompiler) Compile(a dataset.Analysis, cfg story.Config, sample dataset.Sample) (string, error) {
	info, err := json.MarshalIndent(Simplify(a), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	if sample == nil {
		sample = dataset.Sample{}
	}
	sampleJSON, err := json.MarshalIndent(sample.Truncate(SampleRows), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sample: %w", err)
	}

	prompt, err := pc.prompts.RenderPrompt(PromptStory, map[string]string{
		"AUDIENCE":            string(cfg.Audience),
		"AUDIENCE_TRAITS":     AudienceTraits(cfg.Audience),
		"FOCUS_INSTRUCTIONS":  FocusInstruction(cfg.Focus),
		"LENGTH_INSTRUCTIONS": LengthInstruction(cfg.Length),
		"DATA_INFO":           string(info),
		"SAMPLE_DATA":         string(sampleJSON),
	})
	if err != nil {
		return "", err
	}

	log.Printf("[PromptCompiler] Compiled story prompt - audience=%s focus=%s length=%s chars=%d",
		cfg.Audience, cfg.Focus, cfg.Length, len(prompt))
	return prompt, nil
}

// CompileQuestion renders the prompt for a specific question. The full
// analysis is embedded, not the simplified summary.
func (pc *PromptCompiler) CompileQuestion(a dataset.Analysis, question string) (string, error) {
	info, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}

	return pc.prompts.RenderPrompt(PromptQuestion, map[string]string{
		"QUESTION":  question,
		"DATA_INFO": string(info),
	})
}
