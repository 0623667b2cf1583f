// Package samples bundles the demo datasets offered next to file upload.
package samples

import (
	"embed"
	"fmt"

	"datastory/adapters/loader"
	"datastory/domain/core"
	"datastory/domain/dataset"
	"datastory/internal/errors"
)

//go:embed data/*.csv
var files embed.FS

// Info describes one bundled dataset
type Info struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
}

var catalog = []Info{
	{
		Name:        "sales_data",
		Title:       "Sales data",
		Description: "Daily sales with date, region, product category, sales amount and units sold.",
		Columns:     []string{"date", "region", "product_category", "sales_amount", "units_sold", "customer_type", "promotion_active"},
	},
	{
		Name:        "marketing_campaign",
		Title:       "Marketing campaign data",
		Description: "Campaign performance across channels: cost, impressions, clicks and conversions.",
		Columns:     []string{"campaign_id", "date", "channel", "cost", "impressions", "clicks", "conversions", "conversion_value", "target_audience"},
	},
	{
		Name:        "customer_satisfaction",
		Title:       "Customer satisfaction survey",
		Description: "Survey results on product quality, customer service and price satisfaction.",
		Columns: []string{"survey_id", "date", "customer_id", "age_group", "gender", "purchase_frequency",
			"product_quality_rating", "customer_service_rating", "price_satisfaction",
			"recommendation_likelihood", "overall_satisfaction", "feedback_text"},
	},
}

// Registry loads bundled datasets through the file loader
type Registry struct {
	loader *loader.Loader
}

// NewRegistry creates a registry; a nil loader uses loader.New()
func NewRegistry(l *loader.Loader) *Registry {
	if l == nil {
		l = loader.New()
	}
	return &Registry{loader: l}
}

// Info lists the bundled datasets in display order
func (r *Registry) Info() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the description of a bundled dataset
func (r *Registry) Lookup(name string) (Info, bool) {
	for _, info := range catalog {
		if info.Name == name {
			return info, true
		}
	}
	return Info{}, false
}

// Load parses a bundled dataset by name. Unknown names fail with NOT_FOUND.
func (r *Registry) Load(name string) (*dataset.Dataset, error) {
	if _, ok := r.Lookup(name); !ok {
		return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("%w: %q", core.ErrSampleNotFound, name))
	}

	data, err := files.ReadFile("data/" + name + ".csv")
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("%w: %q", core.ErrSampleNotFound, name))
	}

	ds, err := r.loader.LoadBytes(name+".csv", data)
	if err != nil {
		return nil, err
	}
	ds.Name = name
	return ds, nil
}
