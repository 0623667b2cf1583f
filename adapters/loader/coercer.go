package loader

import (
	"strconv"
	"strings"

	"datastory/domain/dataset"
)

// CoercionConfig defines the share of present cells that must parse for a type to win
type CoercionConfig struct {
	NumericThreshold   float64 `json:"numeric_threshold"`
	BooleanThreshold   float64 `json:"boolean_threshold"`
	TimestampThreshold float64 `json:"timestamp_threshold"`
}

// DefaultCoercionConfig requires every present cell to parse, so a single stray
// label keeps a column categorical
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   1.0,
		BooleanThreshold:   1.0,
		TimestampThreshold: 1.0,
	}
}

// missingMarkers are the cell spellings read as "no value"
var missingMarkers = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-NaN": true, "-nan": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// TypeCoercer infers a column type from raw cells and converts them
type TypeCoercer struct {
	config CoercionConfig
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// TypeAnalysis counts how many present cells parse as each type
type TypeAnalysis struct {
	TotalCount      int
	ValidCount      int
	NumericCount    int
	BooleanCount    int
	TimestampCount  int
	RecommendedType dataset.ColumnType
}

// IsMissing reports whether a raw cell counts as empty
func IsMissing(raw string) bool {
	return missingMarkers[strings.TrimSpace(raw)]
}

// AnalyzeTypeDistribution decides the column type for a sequence of raw cells
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}

	for _, raw := range values {
		if IsMissing(raw) {
			continue
		}
		analysis.ValidCount++
		s := strings.TrimSpace(raw)
		if _, ok := parseNumeric(s); ok {
			analysis.NumericCount++
		}
		if _, ok := parseBoolean(s); ok {
			analysis.BooleanCount++
		}
		if _, ok := dataset.ParseTimestamp(s); ok {
			analysis.TimestampCount++
		}
	}

	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

func (c *TypeCoercer) determineRecommendedType(a TypeAnalysis) dataset.ColumnType {
	// An all-empty column carries no type information and is kept numeric so
	// its statistics report as undefined.
	if a.ValidCount == 0 {
		return dataset.ColumnNumeric
	}
	valid := float64(a.ValidCount)
	switch {
	case float64(a.NumericCount)/valid >= c.config.NumericThreshold:
		return dataset.ColumnNumeric
	case float64(a.BooleanCount)/valid >= c.config.BooleanThreshold:
		return dataset.ColumnBoolean
	case float64(a.TimestampCount)/valid >= c.config.TimestampThreshold:
		return dataset.ColumnDatetime
	default:
		return dataset.ColumnCategorical
	}
}

// CoerceColumn converts raw cells to a typed column. Cells that do not parse
// as the column type become missing.
func (c *TypeCoercer) CoerceColumn(name string, raw []string) *dataset.Column {
	kind := c.AnalyzeTypeDistribution(raw).RecommendedType
	col := &dataset.Column{Name: name, Type: kind, Values: make([]dataset.Value, len(raw))}

	for i, cell := range raw {
		if IsMissing(cell) {
			col.Values[i] = dataset.Missing()
			continue
		}
		s := strings.TrimSpace(cell)
		switch kind {
		case dataset.ColumnNumeric:
			if f, ok := parseNumeric(s); ok {
				col.Values[i] = dataset.Number(f)
			} else {
				col.Values[i] = dataset.Missing()
			}
		case dataset.ColumnBoolean:
			if b, ok := parseBoolean(s); ok {
				col.Values[i] = dataset.Boolean(b)
			} else {
				col.Values[i] = dataset.Missing()
			}
		case dataset.ColumnDatetime:
			if t, ok := dataset.ParseTimestamp(s); ok {
				col.Values[i] = dataset.Timestamp(t)
			} else {
				col.Values[i] = dataset.Missing()
			}
		default:
			col.Values[i] = dataset.Text(cell)
		}
	}
	return col
}

func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBoolean(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
