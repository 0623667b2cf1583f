package analysis

import (
	"math"
	"sort"

	"datastory/domain/dataset"
	"datastory/internal/profiling"
)

// DefaultCorrelationThreshold is the minimum |r| reported by RankCorrelations
const DefaultCorrelationThreshold = 0.5

// CorrelationPair is one strongly related pair of numeric columns
type CorrelationPair struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Coefficient float64 `json:"coefficient"`
}

// RankCorrelations returns each unordered numeric pair with |r| >= threshold,
// strongest first. Undefined coefficients are skipped.
func RankCorrelations(ds *dataset.Dataset, threshold float64) []CorrelationPair {
	m := profiling.Correlations(ds)
	if m == nil {
		return []CorrelationPair{}
	}
	return RankMatrix(m, threshold)
}

// RankMatrix applies the ranking to an already computed matrix
func RankMatrix(m *dataset.CorrelationMatrix, threshold float64) []CorrelationPair {
	pairs := []CorrelationPair{}
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if !profiling.IsDefined(r) || math.Abs(r) < threshold {
				continue
			}
			pairs = append(pairs, CorrelationPair{Column1: m.Columns[i], Column2: m.Columns[j], Coefficient: r})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Coefficient) > math.Abs(pairs[j].Coefficient)
	})
	return pairs
}
