// Package story models the narrative returned for a dataset and how it is requested.
package story

// Audience selects who the story is written for
type Audience string

// Focus selects what the story emphasizes
type Focus string

// Length selects how long the story is
type Length string

const (
	AudienceExecutive Audience = "executive"
	AudienceMarketing Audience = "marketing"
	AudienceTechnical Audience = "technical"
	AudienceGeneral   Audience = "general"

	FocusTrends       Focus = "trends"
	FocusAnomalies    Focus = "anomalies"
	FocusCorrelations Focus = "correlations"
	FocusHolistic     Focus = "holistic"

	LengthBrief    Length = "brief"
	LengthNormal   Length = "normal"
	LengthDetailed Length = "detailed"
)

// Audiences, Foci and Lengths list the recognised values in display order
var (
	Audiences = []Audience{AudienceExecutive, AudienceMarketing, AudienceTechnical, AudienceGeneral}
	Foci      = []Focus{FocusTrends, FocusAnomalies, FocusCorrelations, FocusHolistic}
	Lengths   = []Length{LengthBrief, LengthNormal, LengthDetailed}
)

// Config is the story request configuration. Unrecognised values are accepted
// and rendered with generic instructions.
type Config struct {
	Audience Audience `json:"audience"`
	Focus    Focus    `json:"focus"`
	Length   Length   `json:"length"`
}

// DefaultConfig is used when the caller leaves every field empty
func DefaultConfig() Config {
	return Config{Audience: AudienceGeneral, Focus: FocusHolistic, Length: LengthNormal}
}

// WithDefaults fills empty fields from DefaultConfig
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Audience == "" {
		c.Audience = d.Audience
	}
	if c.Focus == "" {
		c.Focus = d.Focus
	}
	if c.Length == "" {
		c.Length = d.Length
	}
	return c
}

// ChartRecommendation is a chart descriptor suggested by the narrative service
type ChartRecommendation struct {
	Type        string `json:"type"`
	XColumn     string `json:"x_column"`
	YColumn     string `json:"y_column"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Insight is one finding of the story
type Insight struct {
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	ChartRecommendation *ChartRecommendation `json:"chart_recommendation,omitempty"`
}

// Action is one recommended next step
type Action struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Response is the parsed data story. Every field is optional.
type Response struct {
	KeyInsights        []Insight `json:"key_insights"`
	Narrative          string    `json:"narrative"`
	RecommendedActions []Action  `json:"recommended_actions"`
}

// Answer is the parsed reply to a specific question about the dataset
type Answer struct {
	Answer              string               `json:"answer"`
	Explanation         string               `json:"explanation"`
	DataPoints          []string             `json:"data_points"`
	Limitations         string               `json:"limitations"`
	ChartRecommendation *ChartRecommendation `json:"chart_recommendation,omitempty"`
}
