package profiling

import (
	"math"
	"sort"

	"datastory/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Summarize computes mean, median, min, max and sample standard deviation.
// Every field is nil for an empty input; Std is nil for a single value.
func Summarize(data []float64) dataset.NumericStats {
	var out dataset.NumericStats
	if len(data) == 0 {
		return out
	}

	if mean, err := stats.Mean(data); err == nil {
		out.Mean = dataset.Float(mean)
	}
	if median, err := stats.Median(data); err == nil {
		out.Median = dataset.Float(median)
	}
	if min, err := stats.Min(data); err == nil {
		out.Min = dataset.Float(min)
	}
	if max, err := stats.Max(data); err == nil {
		out.Max = dataset.Float(max)
	}
	if len(data) > 1 {
		if std, err := stats.StandardDeviationSample(data); err == nil {
			out.Std = dataset.Float(std)
		}
	}
	return out
}

// PopulationStdDev is the ddof=0 standard deviation used for z-scores
func PopulationStdDev(data []float64) (float64, error) {
	return stats.StandardDeviationPopulation(data)
}

// Mean is a thin wrapper that reports NaN for an empty input
func Mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Quantile returns the q-th quantile (0 <= q <= 1) by linear interpolation
// between closest ranks: position (n-1)*q over the sorted values.
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := float64(len(sorted)-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// TopValues counts label frequencies and returns the k most frequent.
// Ties keep first-seen order.
func TopValues(col *dataset.Column, k int) []dataset.CategoryCount {
	counts := make(map[string]int)
	var order []string
	for i := range col.Values {
		if col.Values[i].Missing {
			continue
		}
		label := col.Label(i)
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	out := make([]dataset.CategoryCount, len(order))
	for i, label := range order {
		out[i] = dataset.CategoryCount{Value: label, Count: counts[label]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > k {
		out = out[:k]
	}
	return out
}
