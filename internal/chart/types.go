// Package chart binds chart recommendations to a dataset and produces
// render-ready chart configurations.
package chart

import "datastory/domain/story"

// Chart types
const (
	TypeBar     = "bar"
	TypeLine    = "line"
	TypeScatter = "scatter"
	TypePie     = "pie"
	TypeHeatmap = "heatmap"
)

// Series kinds
const (
	KindData  = "data"
	KindTrend = "trend"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Spec is a chart request: a type and the columns it plots. YColumn is
// unused by heatmaps.
type Spec struct {
	Type    string `json:"type"`
	XColumn string `json:"x_column"`
	YColumn string `json:"y_column"`
	Title   string `json:"title"`
}

// FromRecommendation converts a narrative chart recommendation
func FromRecommendation(rec *story.ChartRecommendation) Spec {
	if rec == nil {
		return Spec{}
	}
	return Spec{Type: rec.Type, XColumn: rec.XColumn, YColumn: rec.YColumn, Title: rec.Title}
}

// Chart defines how to render a chart.
type Chart struct {
	ChartType  string   `json:"chartType"`
	Title      string   `json:"title"`
	XAxis      string   `json:"xAxis,omitempty"`
	YAxis      string   `json:"yAxis,omitempty"`
	Series     []Series `json:"series"`
	Colors     []string `json:"colors,omitempty"`
	Heatmap    *Heatmap `json:"heatmap,omitempty"`
	ShowLegend bool     `json:"showLegend"`
	ShowGrid   bool     `json:"showGrid"`
	Style      string   `json:"style,omitempty"`
	Font       string   `json:"font,omitempty"`
}

// Series represents a data series in a chart.
type Series struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Data  []Point `json:"data"`
	Color string  `json:"color,omitempty"`
}

// Point is one plotted value. X is set for numeric x axes; Percent for pie slices.
type Point struct {
	Label   string   `json:"label"`
	X       *float64 `json:"x,omitempty"`
	Value   float64  `json:"value"`
	Percent *float64 `json:"percent,omitempty"`
}

// Heatmap is an annotated correlation matrix. Nil cells are undefined.
type Heatmap struct {
	Columns     []string     `json:"columns"`
	Cells       [][]*float64 `json:"cells"`
	Annotations [][]string   `json:"annotations"`
	CellColors  [][]string   `json:"cellColors"`
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
