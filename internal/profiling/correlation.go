package profiling

import (
	"math"

	"datastory/domain/dataset"

	"gonum.org/v1/gonum/stat"
)

// Correlations builds the Pearson matrix over every numeric column, in file order.
// It returns nil when fewer than two numeric columns exist.
func Correlations(ds *dataset.Dataset) *dataset.CorrelationMatrix {
	numeric := ds.NumericColumns()
	if len(numeric) < 2 {
		return nil
	}

	m := &dataset.CorrelationMatrix{
		Columns: make([]string, len(numeric)),
		Values:  make([][]float64, len(numeric)),
	}
	for i, c := range numeric {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, len(numeric))
	}
	for i := range numeric {
		for j := i; j < len(numeric); j++ {
			r := Pearson(numeric[i], numeric[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// Pearson correlates two numeric columns over rows where both are present.
// The result is NaN when fewer than two such rows exist or either side is constant.
func Pearson(a, b *dataset.Column) float64 {
	x, y := PairedFloats(a, b)
	return PearsonFloats(x, y)
}

// PearsonFloats is Pearson over already-paired slices
func PearsonFloats(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// PairedFloats returns the values of two columns at rows where both are present
func PairedFloats(a, b *dataset.Column) ([]float64, []float64) {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	x := make([]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if a.Values[i].Missing || b.Values[i].Missing {
			continue
		}
		x = append(x, a.Values[i].Num)
		y = append(y, b.Values[i].Num)
	}
	return x, y
}
