package chart

import (
	"fmt"

	"datastory/domain/dataset"
)

// DefaultMaxCharts is the number of charts AutoGenerate produces by default
const DefaultMaxCharts = 3

// AutoGenerate recommends and binds up to max charts from column kinds: date
// trends for the first two numeric columns, a categorical total, a numeric
// scatter and, with three or more numeric columns, a correlation heatmap.
func (b *Binder) AutoGenerate(ds *dataset.Dataset, max int) []*Chart {
	if max <= 0 {
		max = DefaultMaxCharts
	}

	numeric := ds.NumericColumns()
	categorical := ds.ColumnsOfType(dataset.ColumnCategorical)
	dates := ds.ColumnsOfType(dataset.ColumnDatetime)

	var specs []Spec
	if len(dates) > 0 {
		for i, num := range numeric {
			if i == 2 {
				break
			}
			specs = append(specs, Spec{
				Type: TypeLine, XColumn: dates[0].Name, YColumn: num.Name,
				Title: fmt.Sprintf("%s over %s", num.Name, dates[0].Name),
			})
		}
	}
	if len(categorical) > 0 && len(numeric) > 0 {
		specs = append(specs, Spec{
			Type: TypeBar, XColumn: categorical[0].Name, YColumn: numeric[0].Name,
			Title: fmt.Sprintf("Total %s by %s", numeric[0].Name, categorical[0].Name),
		})
	}
	if len(numeric) >= 2 {
		specs = append(specs, Spec{
			Type: TypeScatter, XColumn: numeric[0].Name, YColumn: numeric[1].Name,
			Title: fmt.Sprintf("%s vs %s", numeric[0].Name, numeric[1].Name),
		})
	}
	if len(numeric) >= 3 {
		specs = append(specs, Spec{Type: TypeHeatmap, Title: DefaultHeatmapTitle})
	}

	charts := make([]*Chart, 0, max)
	for _, spec := range specs {
		if c := b.Render(ds, spec); c != nil {
			charts = append(charts, c)
			if len(charts) >= max {
				break
			}
		}
	}
	return charts
}
