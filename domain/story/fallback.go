package story

import (
	"fmt"

	"datastory/domain/dataset"
)

// Fallback builds the deterministic story shown when the narrative service
// returns nothing. Its single chart is a bar of the first column against the
// first numeric column; the recommendation is omitted when either is absent.
func Fallback(ds *dataset.Dataset) *Response {
	insight := Insight{
		Title: "Dataset overview",
		Description: fmt.Sprintf("The dataset has %d rows and %d columns. This placeholder insight is shown because the narrative service did not return a story.",
			ds.NumRows(), ds.NumColumns()),
	}

	numeric := ds.NumericColumns()
	if ds.NumColumns() > 0 && len(numeric) > 0 {
		insight.ChartRecommendation = &ChartRecommendation{
			Type:        "bar",
			XColumn:     ds.Columns[0].Name,
			YColumn:     numeric[0].Name,
			Title:       "Sample chart",
			Description: fmt.Sprintf("%s by %s", numeric[0].Name, ds.Columns[0].Name),
		}
	}

	return &Response{
		KeyInsights: []Insight{insight},
		Narrative:   "This is a placeholder narrative. It is replaced by the generated story once the narrative service responds successfully.",
		RecommendedActions: []Action{{
			Title:       "Review the data",
			Description: "Check the profile and charts above, then try generating the story again.",
		}},
	}
}
