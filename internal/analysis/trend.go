// Package analysis extracts trend, anomaly and correlation insights from a dataset.
package analysis

import (
	"math"
	"sort"
	"time"

	"datastory/domain/core"
	"datastory/domain/dataset"
	"datastory/internal/errors"
	"datastory/internal/profiling"

	"gonum.org/v1/gonum/stat"
)

// Trend directions and strengths
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionUnclear = "unclear"

	StrengthStrong         = "strong"
	StrengthModerate       = "moderate"
	StrengthWeak           = "weak"
	StrengthNotSignificant = "not significant"

	MethodRegression = "regression"
	MethodEndpoints  = "endpoints"
)

const (
	minTrendRows       = 3
	minSeasonalityRows = 12
	significanceLevel  = 0.05
	seasonalityRatio   = 0.2
)

// TrendResult describes the overall movement of a value over time
type TrendResult struct {
	DateColumn    string       `json:"date_column"`
	ValueColumn   string       `json:"value_column"`
	Points        int          `json:"points"`
	Method        string       `json:"method"`
	Direction     string       `json:"direction"`
	Strength      string       `json:"strength,omitempty"`
	Slope         *float64     `json:"slope,omitempty"`
	RSquared      *float64     `json:"r_squared,omitempty"`
	PValue        *float64     `json:"p_value,omitempty"`
	PercentChange *float64     `json:"percent_change,omitempty"`
	Seasonality   *Seasonality `json:"seasonality,omitempty"`
}

// Seasonality compares calendar-month averages
type Seasonality struct {
	Exists           bool     `json:"exists"`
	PeakMonth        int      `json:"peak_month,omitempty"`
	PeakMonthName    string   `json:"peak_month_name,omitempty"`
	LowestMonth      int      `json:"lowest_month,omitempty"`
	LowestMonthName  string   `json:"lowest_month_name,omitempty"`
	VariationPercent *float64 `json:"variation_percent,omitempty"`
}

type observation struct {
	at    time.Time
	value float64
}

// DetectTrend fits value against days since the earliest date.
// A significant fit (p < 0.05) yields up/down with a strength from |r|; otherwise the
// direction is unclear. When no fit is possible the first and last values are compared.
func DetectTrend(ds *dataset.Dataset, dateColumn, valueColumn string) (*TrendResult, error) {
	dateCol, ok := ds.Column(dateColumn)
	if !ok {
		return nil, errors.AnalysisError("trend", core.NewColumnNotFoundError(dateColumn))
	}
	valueCol, ok := ds.Column(valueColumn)
	if !ok {
		return nil, errors.AnalysisError("trend", core.NewColumnNotFoundError(valueColumn))
	}
	dates, ok := dataset.AsDatetime(dateCol)
	if !ok {
		return nil, errors.AnalysisError("trend", core.ErrNotDatetime)
	}
	if !valueCol.IsNumeric() {
		return nil, errors.AnalysisError("trend", core.NewColumnNotNumericError(valueColumn))
	}

	obs := make([]observation, 0, dates.Len())
	for i := 0; i < dates.Len() && i < valueCol.Len(); i++ {
		if dates.Values[i].Missing || valueCol.Values[i].Missing {
			continue
		}
		obs = append(obs, observation{at: dates.Values[i].Time, value: valueCol.Values[i].Num})
	}
	if len(obs) < minTrendRows {
		return nil, errors.AnalysisError("trend", core.NewInsufficientDataError(len(obs), minTrendRows))
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].at.Before(obs[j].at) })

	result := &TrendResult{DateColumn: dateColumn, ValueColumn: valueColumn, Points: len(obs)}
	if !fitRegression(obs, result) {
		compareEndpoints(obs, result)
	}
	if len(obs) >= minSeasonalityRows {
		result.Seasonality = detectSeasonality(obs)
	}
	return result, nil
}

// fitRegression fills the regression fields; it reports false when the fit is undefined
func fitRegression(obs []observation, result *TrendResult) bool {
	origin := obs[0].at
	x := make([]float64, len(obs))
	y := make([]float64, len(obs))
	for i, o := range obs {
		x[i] = math.Floor(o.at.Sub(origin).Hours() / 24)
		y[i] = o.value
	}
	if stat.Variance(x, nil) == 0 {
		return false
	}

	_, slope := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) {
		return false
	}
	r := 0.0
	if stat.Variance(y, nil) > 0 {
		r = stat.Correlation(x, y, nil)
	}
	p := CorrelationPValue(r, len(obs))

	result.Method = MethodRegression
	result.Slope = dataset.Float(slope)
	result.RSquared = dataset.Float(r * r)
	result.PValue = dataset.Float(p)

	if p < significanceLevel {
		result.Direction = DirectionDown
		if slope > 0 {
			result.Direction = DirectionUp
		}
		switch abs := math.Abs(r); {
		case abs > 0.7:
			result.Strength = StrengthStrong
		case abs > 0.4:
			result.Strength = StrengthModerate
		default:
			result.Strength = StrengthWeak
		}
		return true
	}

	result.Direction = DirectionUnclear
	result.Strength = StrengthNotSignificant
	return true
}

func compareEndpoints(obs []observation, result *TrendResult) {
	first, last := obs[0].value, obs[len(obs)-1].value
	result.Method = MethodEndpoints
	if last > first {
		result.Direction = DirectionUp
		result.PercentChange = dataset.Float((last/first - 1) * 100)
		return
	}
	result.Direction = DirectionDown
	result.PercentChange = dataset.Float((first/last - 1) * 100)
}

// detectSeasonality groups by calendar month. It reports a pattern when the spread
// of monthly means exceeds 20% of their average.
func detectSeasonality(obs []observation) *Seasonality {
	var sums [13]float64
	var counts [13]int
	for _, o := range obs {
		m := int(o.at.Month())
		sums[m] += o.value
		counts[m]++
	}

	var means []float64
	peak, low := 0, 0
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		mean := sums[m] / float64(counts[m])
		means = append(means, mean)
		if peak == 0 || mean > sums[peak]/float64(counts[peak]) {
			peak = m
		}
		if low == 0 || mean < sums[low]/float64(counts[low]) {
			low = m
		}
	}

	peakMean := sums[peak] / float64(counts[peak])
	lowMean := sums[low] / float64(counts[low])
	spread := peakMean - lowMean
	avg := profiling.Mean(means)

	if !(spread > avg*seasonalityRatio) {
		return &Seasonality{Exists: false}
	}
	return &Seasonality{
		Exists:           true,
		PeakMonth:        peak,
		PeakMonthName:    time.Month(peak).String(),
		LowestMonth:      low,
		LowestMonthName:  time.Month(low).String(),
		VariationPercent: dataset.Float(spread / avg * 100),
	}
}
