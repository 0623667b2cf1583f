package story

import (
	"errors"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned when content is not a JSON document
	ErrInvalidJSON = errors.New("content is not valid JSON")
	// ErrNotObject is returned when the document is valid JSON but not an object
	ErrNotObject = errors.New("content is not a JSON object")
)

// Parse validates a story document field by field. Absent or mistyped fields
// are left empty; only a non-object document is rejected.
func Parse(content string) (*Response, error) {
	root, err := parseObject(content)
	if err != nil {
		return nil, err
	}

	resp := &Response{Narrative: text(root.Get("narrative"))}

	for _, item := range objects(root.Get("key_insights")) {
		resp.KeyInsights = append(resp.KeyInsights, Insight{
			Title:               text(item.Get("title")),
			Description:         text(item.Get("description")),
			ChartRecommendation: chart(item.Get("chart_recommendation")),
		})
	}

	for _, item := range objects(root.Get("recommended_actions")) {
		resp.RecommendedActions = append(resp.RecommendedActions, Action{
			Title:       text(item.Get("title")),
			Description: text(item.Get("description")),
		})
	}

	return resp, nil
}

// ParseAnswer validates a question answer document the same way
func ParseAnswer(content string) (*Answer, error) {
	root, err := parseObject(content)
	if err != nil {
		return nil, err
	}

	ans := &Answer{
		Answer:              text(root.Get("answer")),
		Explanation:         text(root.Get("explanation")),
		Limitations:         text(root.Get("limitations")),
		ChartRecommendation: chart(root.Get("chart_recommendation")),
	}
	if points := root.Get("data_points"); points.IsArray() {
		for _, p := range points.Array() {
			if s := text(p); s != "" {
				ans.DataPoints = append(ans.DataPoints, s)
			}
		}
	}
	return ans, nil
}

func parseObject(content string) (gjson.Result, error) {
	if !gjson.Valid(content) {
		return gjson.Result{}, ErrInvalidJSON
	}
	root := gjson.Parse(content)
	if !root.IsObject() {
		return gjson.Result{}, ErrNotObject
	}
	return root, nil
}

// objects returns the object elements of an array, skipping anything else
func objects(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	var out []gjson.Result
	for _, item := range r.Array() {
		if item.IsObject() {
			out = append(out, item)
		}
	}
	return out
}

// text reads scalars as their string form and ignores objects and arrays
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number, gjson.True, gjson.False:
		return r.Raw
	default:
		return ""
	}
}

func chart(r gjson.Result) *ChartRecommendation {
	if !r.IsObject() {
		return nil
	}
	return &ChartRecommendation{
		Type:        text(r.Get("type")),
		XColumn:     text(r.Get("x_column")),
		YColumn:     text(r.Get("y_column")),
		Title:       text(r.Get("title")),
		Description: text(r.Get("description")),
	}
}
