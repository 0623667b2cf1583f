// Package profiling computes the statistical profile that feeds prompt compilation.
package profiling

import (
	"log"
	"math"
	"time"

	"datastory/domain/dataset"
)

// DefaultTopK is how many frequent values are kept per label column
const DefaultTopK = 5

// DataProfiler computes dataset.Analysis values
type DataProfiler struct {
	topK int
}

// NewDataProfiler creates a profiler keeping DefaultTopK values per label column
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{topK: DefaultTopK}
}

// Profile analyzes the dataset. It never fails: undefined statistics are nil or NaN.
func (dp *DataProfiler) Profile(ds *dataset.Dataset) dataset.Analysis {
	start := time.Now()
	analysis := dataset.Analysis{
		BasicInfo: dataset.BasicInfo{
			Rows:        ds.NumRows(),
			Columns:     ds.NumColumns(),
			ColumnNames: ds.ColumnNames(),
			ColumnTypes: make(map[string]dataset.ColumnType, ds.NumColumns()),
		},
		MissingValues: make(map[string]int, ds.NumColumns()),
	}

	for _, col := range ds.Columns {
		analysis.BasicInfo.ColumnTypes[col.Name] = col.Type
		analysis.MissingValues[col.Name] = col.MissingCount()

		switch col.Type {
		case dataset.ColumnNumeric:
			if analysis.NumericStats == nil {
				analysis.NumericStats = make(map[string]dataset.NumericStats)
			}
			analysis.NumericStats[col.Name] = Summarize(col.Floats())
		case dataset.ColumnCategorical, dataset.ColumnBoolean:
			if analysis.CategoricalStats == nil {
				analysis.CategoricalStats = make(map[string][]dataset.CategoryCount)
			}
			analysis.CategoricalStats[col.Name] = TopValues(col, dp.topK)
		case dataset.ColumnDatetime:
			if r, ok := dateRange(col); ok {
				if analysis.DatetimeStats == nil {
					analysis.DatetimeStats = make(map[string]dataset.DatetimeRange)
				}
				analysis.DatetimeStats[col.Name] = r
			}
		}
	}

	analysis.Correlation = Correlations(ds)

	log.Printf("[Profiler] %s profiled in %.2fms", ds.Name, float64(time.Since(start).Nanoseconds())/1e6)
	return analysis
}

func dateRange(col *dataset.Column) (dataset.DatetimeRange, bool) {
	minIdx, maxIdx := -1, -1
	for i, v := range col.Values {
		if v.Missing {
			continue
		}
		if minIdx < 0 || v.Time.Before(col.Values[minIdx].Time) {
			minIdx = i
		}
		if maxIdx < 0 || v.Time.After(col.Values[maxIdx].Time) {
			maxIdx = i
		}
	}
	if minIdx < 0 {
		return dataset.DatetimeRange{}, false
	}
	return dataset.DatetimeRange{Min: col.Label(minIdx), Max: col.Label(maxIdx)}, true
}

// IsDefined reports whether a coefficient is a real number
func IsDefined(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}
