// Package dataset holds transformations that return a new dataset.
package dataset

import (
	"log"
	"math"
	"sort"
	"strings"

	domainDataset "datastory/domain/dataset"
	"datastory/internal/profiling"
)

// OutlierIQRMultiplier sets the clipping bounds Q1 - k*IQR and Q3 + k*IQR
const OutlierIQRMultiplier = 1.5

// CleanOptions selects the optional cleaning steps
type CleanOptions struct {
	HandleMissing  bool `json:"handle_missing"`
	HandleOutliers bool `json:"handle_outliers"`
}

// Clean returns a cleaned copy of ds; the input is never modified.
// Columns whose name contains "date" become datetime when every present value
// parses. HandleMissing fills numeric gaps with the mean and categorical gaps
// with the mode. HandleOutliers clips numeric values to the IQR bounds.
func Clean(ds *domainDataset.Dataset, opts CleanOptions) *domainDataset.Dataset {
	out := ds.Clone()

	for i, col := range out.Columns {
		if !strings.Contains(strings.ToLower(col.Name), "date") || col.Type == domainDataset.ColumnDatetime {
			continue
		}
		if converted, ok := domainDataset.AsDatetime(col); ok {
			out.Columns[i] = converted
			log.Printf("[Clean] Converted %s to datetime", col.Name)
		}
	}

	if opts.HandleMissing {
		for _, col := range out.Columns {
			switch col.Type {
			case domainDataset.ColumnNumeric:
				fillNumeric(col)
			case domainDataset.ColumnCategorical:
				fillCategorical(col)
			}
		}
	}

	if opts.HandleOutliers {
		for _, col := range out.NumericColumns() {
			clip(col)
		}
	}

	return domainDataset.New(out.Name, out.Columns)
}

func fillNumeric(col *domainDataset.Column) {
	m := profiling.Mean(col.Floats())
	if math.IsNaN(m) {
		return
	}
	for i, v := range col.Values {
		if v.Missing {
			col.Values[i] = domainDataset.Number(m)
		}
	}
}

// fillCategorical uses the most frequent value; ties go to the smallest label
func fillCategorical(col *domainDataset.Column) {
	counts := make(map[string]int)
	hasMissing := false
	for _, v := range col.Values {
		if v.Missing {
			hasMissing = true
			continue
		}
		counts[v.Str]++
	}
	if !hasMissing || len(counts) == 0 {
		return
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	mode := labels[0]
	for _, label := range labels[1:] {
		if counts[label] > counts[mode] {
			mode = label
		}
	}

	for i, v := range col.Values {
		if v.Missing {
			col.Values[i] = domainDataset.Text(mode)
		}
	}
}

func clip(col *domainDataset.Column) {
	values := col.Floats()
	if len(values) == 0 {
		return
	}
	q1 := profiling.Quantile(values, 0.25)
	q3 := profiling.Quantile(values, 0.75)
	iqr := q3 - q1
	lower, upper := q1-OutlierIQRMultiplier*iqr, q3+OutlierIQRMultiplier*iqr

	for i, v := range col.Values {
		if v.Missing {
			continue
		}
		col.Values[i] = domainDataset.Number(math.Max(lower, math.Min(upper, v.Num)))
	}
}
