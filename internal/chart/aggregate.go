package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"datastory/domain/dataset"
	"datastory/internal/profiling"
)

type aggregate func([]float64) float64

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 { return profiling.Mean(values) }

// rowOrder returns the rows whose x cell is present, in row order
func rowOrder(x *dataset.Column) []int {
	order := make([]int, 0, x.Len())
	for i, v := range x.Values {
		if !v.Missing {
			order = append(order, i)
		}
	}
	return order
}

// rows emits one point per row in order, skipping missing y cells
func rows(x, y *dataset.Column, order []int) []Point {
	points := make([]Point, 0, len(order))
	for _, i := range order {
		yv := y.Values[i]
		if yv.Missing {
			continue
		}
		p := Point{Label: x.Label(i), Value: yv.Num}
		if x.IsNumeric() {
			xv := x.Values[i].Num
			p.X = &xv
		}
		points = append(points, p)
	}
	return points
}

// groupBy aggregates y per distinct x label, ordered by label. Numeric x
// groups are ordered by value. Groups with no present y values are dropped.
func groupBy(x, y *dataset.Column, agg aggregate) []Point {
	groups := make(map[string][]float64)
	keys := make(map[string]float64)
	var labels []string
	for i, v := range x.Values {
		if v.Missing {
			continue
		}
		label := x.Label(i)
		if _, ok := keys[label]; !ok {
			keys[label] = v.Num
			labels = append(labels, label)
		}
		if yv := y.Values[i]; !yv.Missing {
			groups[label] = append(groups[label], yv.Num)
		}
	}
	if x.IsNumeric() {
		sort.Slice(labels, func(i, j int) bool { return keys[labels[i]] < keys[labels[j]] })
	} else {
		sort.Strings(labels)
	}

	points := make([]Point, 0, len(labels))
	for _, label := range labels {
		values := groups[label]
		if len(values) == 0 {
			continue
		}
		points = append(points, Point{Label: label, Value: agg(values)})
	}
	return points
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// coolwarm maps r in [-1, 1] from blue through grey to red
func coolwarm(r float64) string {
	r = math.Max(-1, math.Min(1, r))
	cold := [3]float64{0x3B, 0x4C, 0xC0}
	mid := [3]float64{0xDD, 0xDD, 0xDD}
	warm := [3]float64{0xB4, 0x04, 0x26}

	from, to, t := mid, warm, r
	if r < 0 {
		from, to, t = mid, cold, -r
	}
	var rgb [3]int
	for i := range rgb {
		rgb[i] = int(math.Round(from[i] + (to[i]-from[i])*t))
	}
	return fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2])
}
