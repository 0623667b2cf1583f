package dataset

import (
	"encoding/json"
	"math"
)

// Analysis is the statistical profile of a dataset
type Analysis struct {
	BasicInfo        BasicInfo                  `json:"basic_info"`
	NumericStats     map[string]NumericStats    `json:"numeric_stats,omitempty"`
	CategoricalStats map[string][]CategoryCount `json:"categorical_stats,omitempty"`
	DatetimeStats    map[string]DatetimeRange   `json:"datetime_stats,omitempty"`
	Correlation      *CorrelationMatrix         `json:"correlation,omitempty"`
	MissingValues    map[string]int             `json:"missing_values"`
}

// BasicInfo describes the shape of the dataset
type BasicInfo struct {
	Rows        int                   `json:"rows"`
	Columns     int                   `json:"columns"`
	ColumnNames []string              `json:"column_names"`
	ColumnTypes map[string]ColumnType `json:"column_types"`
}

// NumericStats are nil when the column has no present values
// (Std is also nil for a single value).
type NumericStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Std    *float64 `json:"std"`
}

// CategoryCount is one entry of a most-frequent-values list
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DatetimeRange is the span covered by a date column
type DatetimeRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// CorrelationMatrix holds pairwise Pearson coefficients between numeric columns.
// Undefined coefficients are NaN and serialize as null.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Get returns the coefficient for a pair; ok is false for unknown columns or NaN
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.indexOf(a), m.indexOf(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	v := m.Values[i][j]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (m *CorrelationMatrix) indexOf(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MarshalJSON renders the matrix as {column: {column: r}}
func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]*float64, len(m.Columns))
	for i, a := range m.Columns {
		row := make(map[string]*float64, len(m.Columns))
		for j, b := range m.Columns {
			v := m.Values[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[b] = nil
				continue
			}
			row[b] = &v
		}
		out[a] = row
	}
	return json.Marshal(out)
}

// Float returns a pointer to f, or nil when f is not finite
func Float(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
