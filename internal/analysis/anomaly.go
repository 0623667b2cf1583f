package analysis

import (
	"fmt"
	"strings"

	"datastory/domain/core"
	"datastory/domain/dataset"
	"datastory/internal/errors"
	"datastory/internal/profiling"
)

// Anomaly detection methods
const (
	MethodIQR    = "iqr"
	MethodZScore = "zscore"
)

const (
	// DefaultAnomalyThreshold is the IQR multiplier, and the |z| cutoff for z-scores
	DefaultAnomalyThreshold = 1.5
	// MaxListedAnomalies caps how many flagged rows are returned verbatim
	MaxListedAnomalies = 10
)

// AnomalyResult lists values outside the expected range of a column
type AnomalyResult struct {
	Column         string                   `json:"column"`
	Method         string                   `json:"method"`
	Threshold      float64                  `json:"threshold"`
	LowerBound     *float64                 `json:"lower_bound,omitempty"`
	UpperBound     *float64                 `json:"upper_bound,omitempty"`
	AnomalyCount   int                      `json:"anomaly_count"`
	AnomalyPercent float64                  `json:"anomaly_percent"`
	Anomalies      []map[string]interface{} `json:"anomalies"`
	Note           string                   `json:"note,omitempty"`
}

// DetectAnomalies flags rows of column outside Q1-k*IQR..Q3+k*IQR (iqr) or with
// |z| > k (zscore, population standard deviation). Missing cells are never flagged.
// A non-positive threshold selects DefaultAnomalyThreshold.
func DetectAnomalies(ds *dataset.Dataset, column, method string, threshold float64) (*AnomalyResult, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, errors.AnalysisError("anomaly", core.NewColumnNotFoundError(column))
	}
	if !col.IsNumeric() {
		return nil, errors.AnalysisError("anomaly", core.NewColumnNotNumericError(column))
	}
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = MethodIQR
	}

	values := col.Floats()
	result := &AnomalyResult{Column: column, Method: method, Threshold: threshold}

	var lower, upper float64
	switch method {
	case MethodIQR:
		if len(values) == 0 {
			return result, nil
		}
		q1 := profiling.Quantile(values, 0.25)
		q3 := profiling.Quantile(values, 0.75)
		iqr := q3 - q1
		lower, upper = q1-threshold*iqr, q3+threshold*iqr
	case MethodZScore:
		if len(values) == 0 {
			return result, nil
		}
		mean := profiling.Mean(values)
		std, err := profiling.PopulationStdDev(values)
		if err != nil || std == 0 {
			// A constant column has no spread, so nothing deviates
			result.LowerBound, result.UpperBound = dataset.Float(mean), dataset.Float(mean)
			return result, nil
		}
		lower, upper = mean-threshold*std, mean+threshold*std
	default:
		return nil, errors.AnalysisError("anomaly", fmt.Errorf("%w: %s", core.ErrUnknownMethod, method))
	}
	result.LowerBound = dataset.Float(lower)
	result.UpperBound = dataset.Float(upper)

	var flagged []int
	for i, v := range col.Values {
		if v.Missing {
			continue
		}
		if outside(v.Num, lower, upper) {
			flagged = append(flagged, i)
		}
	}

	result.AnomalyCount = len(flagged)
	if rows := ds.NumRows(); rows > 0 {
		result.AnomalyPercent = float64(len(flagged)) / float64(rows) * 100
	}
	if len(flagged) > MaxListedAnomalies {
		result.Note = fmt.Sprintf("%d anomalies found; the full list is omitted", len(flagged))
		return result, nil
	}
	result.Anomalies = make([]map[string]interface{}, 0, len(flagged))
	for _, i := range flagged {
		result.Anomalies = append(result.Anomalies, ds.Row(i))
	}
	return result, nil
}

// outside uses strict inequalities, so values on a bound are kept
func outside(v, lower, upper float64) bool {
	return v < lower || v > upper
}
