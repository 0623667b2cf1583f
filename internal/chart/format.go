package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders v with M/K suffixes; NaN renders as N/A
func FormatNumber(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "N/A"
	case math.Abs(v) >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', precision, 64) + "M"
	case math.Abs(v) >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', precision, 64) + "K"
	case math.Abs(v) < 0.01 && v != 0:
		return fmt.Sprintf("%.6f", v)
	default:
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

type columnDescription struct {
	key, description string
}

// columnDescriptions covers the bundled sample columns, checked in order for
// partial matches
var columnDescriptions = []columnDescription{
	{"date", "Date"},
	{"region", "Region"},
	{"product_category", "Product category"},
	{"sales_amount", "Sales amount"},
	{"units_sold", "Units sold"},
	{"customer_type", "Customer type"},
	{"promotion_active", "Promotion active"},
	{"campaign_id", "Campaign ID"},
	{"channel", "Marketing channel"},
	{"cost", "Cost"},
	{"impressions", "Impressions"},
	{"clicks", "Clicks"},
	{"conversions", "Conversions"},
	{"conversion_value", "Conversion value"},
	{"target_audience", "Target audience"},
	{"survey_id", "Survey ID"},
	{"customer_id", "Customer ID"},
	{"age_group", "Age group"},
	{"gender", "Gender"},
	{"purchase_frequency", "Purchase frequency"},
	{"product_quality_rating", "Product quality rating"},
	{"customer_service_rating", "Customer service rating"},
	{"price_satisfaction", "Price satisfaction"},
	{"recommendation_likelihood", "Recommendation likelihood"},
	{"overall_satisfaction", "Overall satisfaction"},
	{"feedback_text", "Feedback text"},
}

// ColumnDescription returns a readable description of a known column name,
// matching exactly first and then by substring. Unknown names are returned as is.
func ColumnDescription(name string) string {
	for _, d := range columnDescriptions {
		if d.key == name {
			return d.description
		}
	}
	lower := strings.ToLower(name)
	for _, d := range columnDescriptions {
		if strings.Contains(lower, d.key) {
			return d.description
		}
	}
	return name
}
