package analysis

import (
	stderrors "errors"
	"math"
	"testing"
	"time"

	"datastory/domain/core"
	"datastory/domain/dataset"
	apperrors "datastory/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n) }

func series(values ...float64) *dataset.Dataset {
	dates := make([]time.Time, len(values))
	for i := range values {
		dates[i] = day(i)
	}
	return dataset.New("s", []*dataset.Column{
		dataset.DatetimeColumn("date", dates...),
		dataset.NumericColumn("value", values...),
	})
}

func TestDetectTrendSignificantUp(t *testing.T) {
	ds := series(1, 3, 5, 7, 9, 11, 13, 15, 17, 19)

	tr, err := DetectTrend(ds, "date", "value")
	require.NoError(t, err)

	assert.Equal(t, MethodRegression, tr.Method)
	assert.Equal(t, DirectionUp, tr.Direction)
	assert.Equal(t, StrengthStrong, tr.Strength)
	assert.InDelta(t, 2.0, *tr.Slope, 1e-9)
	assert.InDelta(t, 1.0, *tr.RSquared, 1e-9)
	assert.Less(t, *tr.PValue, 0.05)
	assert.Nil(t, tr.Seasonality)
}

func TestDetectTrendSignificantDownIsSortedByDate(t *testing.T) {
	// rows are out of order; sorting by date gives a clean decline
	ds := dataset.New("s", []*dataset.Column{
		dataset.DatetimeColumn("date", day(3), day(0), day(2), day(1), day(4)),
		dataset.NumericColumn("value", 4, 10, 6, 8, 2),
	})

	tr, err := DetectTrend(ds, "date", "value")
	require.NoError(t, err)
	assert.Equal(t, DirectionDown, tr.Direction)
	assert.InDelta(t, -2.0, *tr.Slope, 1e-9)
}

func TestDetectTrendNotSignificant(t *testing.T) {
	tr, err := DetectTrend(series(5, 1, 5, 1, 5, 1), "date", "value")
	require.NoError(t, err)

	assert.Equal(t, DirectionUnclear, tr.Direction)
	assert.Equal(t, StrengthNotSignificant, tr.Strength)
	require.NotNil(t, tr.PValue)
	assert.Greater(t, *tr.PValue, 0.05)
}

func TestDetectTrendEndpointFallback(t *testing.T) {
	ds := dataset.New("s", []*dataset.Column{
		dataset.DatetimeColumn("date", day(0), day(0), day(0)),
		dataset.NumericColumn("value", 10, 20, 15),
	})

	tr, err := DetectTrend(ds, "date", "value")
	require.NoError(t, err)
	assert.Equal(t, MethodEndpoints, tr.Method)
	assert.Equal(t, DirectionUp, tr.Direction)
	assert.InDelta(t, 50.0, *tr.PercentChange, 1e-9)
	assert.Nil(t, tr.PValue)
}

func TestDetectTrendConvertsDateStrings(t *testing.T) {
	ds := dataset.New("s", []*dataset.Column{
		dataset.CategoricalColumn("date", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"),
		dataset.NumericColumn("value", 1, 2, 3, 4),
	})
	tr, err := DetectTrend(ds, "date", "value")
	require.NoError(t, err)
	assert.Equal(t, DirectionUp, tr.Direction)
}

func TestDetectTrendErrors(t *testing.T) {
	tests := []struct {
		name   string
		ds     *dataset.Dataset
		date   string
		value  string
		target error
	}{
		{"too few rows", series(1, 2), "date", "value", core.ErrInsufficientData},
		{"missing column", series(1, 2, 3), "date", "nope", core.ErrColumnNotFound},
		{"not a date", dataset.New("s", []*dataset.Column{
			dataset.CategoricalColumn("date", "a", "b", "c"),
			dataset.NumericColumn("value", 1, 2, 3),
		}), "date", "value", core.ErrNotDatetime},
		{"not numeric", dataset.New("s", []*dataset.Column{
			dataset.DatetimeColumn("date", day(0), day(1), day(2)),
			dataset.CategoricalColumn("value", "x", "y", "z"),
		}), "date", "value", core.ErrColumnNotNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectTrend(tt.ds, tt.date, tt.value)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.target), "got %v", err)
			assert.Equal(t, apperrors.CodeAnalysisError, apperrors.GetCode(err))
		})
	}
}

func TestDetectTrendSeasonality(t *testing.T) {
	dates := make([]time.Time, 12)
	values := make([]float64, 12)
	for i := range dates {
		dates[i] = time.Date(2023, time.Month(i+1), 15, 0, 0, 0, 0, time.UTC)
		values[i] = 10
	}
	values[6] = 20

	ds := dataset.New("s", []*dataset.Column{
		dataset.DatetimeColumn("date", dates...),
		dataset.NumericColumn("value", values...),
	})
	tr, err := DetectTrend(ds, "date", "value")
	require.NoError(t, err)

	require.NotNil(t, tr.Seasonality)
	assert.True(t, tr.Seasonality.Exists)
	assert.Equal(t, 7, tr.Seasonality.PeakMonth)
	assert.Equal(t, "July", tr.Seasonality.PeakMonthName)
	assert.Equal(t, 1, tr.Seasonality.LowestMonth)
	assert.InDelta(t, 92.3077, *tr.Seasonality.VariationPercent, 1e-3)

	for i := range values {
		values[i] = 10
	}
	flat := dataset.New("s", []*dataset.Column{
		dataset.DatetimeColumn("date", dates...),
		dataset.NumericColumn("value", values...),
	})
	tr, err = DetectTrend(flat, "date", "value")
	require.NoError(t, err)
	assert.False(t, tr.Seasonality.Exists)
}

func numericDataset(name string, values ...float64) *dataset.Dataset {
	return dataset.New("a", []*dataset.Column{
		dataset.CategoricalColumn("id", labels(len(values))...),
		dataset.NumericColumn(name, values...),
	})
}

func labels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i%26))
	}
	return out
}

func TestDetectAnomaliesIQR(t *testing.T) {
	ds := numericDataset("x", 1, 2, 3, 4, 5, 6, 7, 8, 9, 100)

	res, err := DetectAnomalies(ds, "x", MethodIQR, 1.5)
	require.NoError(t, err)

	assert.InDelta(t, -3.5, *res.LowerBound, 1e-9)
	assert.InDelta(t, 14.5, *res.UpperBound, 1e-9)
	assert.Equal(t, 1, res.AnomalyCount)
	assert.InDelta(t, 10.0, res.AnomalyPercent, 1e-9)
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, 100.0, res.Anomalies[0]["x"])
	assert.Equal(t, "j", res.Anomalies[0]["id"])
	assert.Empty(t, res.Note)
}

func TestDetectAnomaliesIQRSmallSeries(t *testing.T) {
	ds := numericDataset("v", 1, 2, 3, 4, 5, 100)

	res, err := DetectAnomalies(ds, "v", MethodIQR, 1.5)
	require.NoError(t, err)

	assert.InDelta(t, -1.5, *res.LowerBound, 1e-9)
	assert.InDelta(t, 8.5, *res.UpperBound, 1e-9)
	assert.Equal(t, 1, res.AnomalyCount)
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, 100.0, res.Anomalies[0]["v"])
}

func TestDetectAnomaliesZScore(t *testing.T) {
	ds := numericDataset("x", 1, 2, 3, 4, 5, 6, 7, 8, 9, 100)

	res, err := DetectAnomalies(ds, "x", MethodZScore, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnomalyCount)

	constant := numericDataset("x", 3, 3, 3)
	res, err = DetectAnomalies(constant, "x", MethodZScore, 2)
	require.NoError(t, err)
	assert.Zero(t, res.AnomalyCount)
}

func TestDetectAnomaliesSkipsMissingCells(t *testing.T) {
	ds := numericDataset("x", 1, 2, math.NaN(), 3, 4, 100)

	res, err := DetectAnomalies(ds, "x", "", 0)
	require.NoError(t, err)
	assert.Equal(t, MethodIQR, res.Method)
	assert.Equal(t, DefaultAnomalyThreshold, res.Threshold)
	assert.Equal(t, 1, res.AnomalyCount)
	assert.InDelta(t, 100.0/6.0, res.AnomalyPercent, 1e-9)
}

func TestDetectAnomaliesOmitsLongLists(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	res, err := DetectAnomalies(numericDataset("x", values...), "x", MethodIQR, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 40, res.AnomalyCount)
	assert.Nil(t, res.Anomalies)
	assert.NotEmpty(t, res.Note)
}

func TestDetectAnomaliesErrors(t *testing.T) {
	ds := numericDataset("x", 1, 2, 3)

	_, err := DetectAnomalies(ds, "missing", MethodIQR, 1.5)
	assert.True(t, stderrors.Is(err, core.ErrColumnNotFound))

	_, err = DetectAnomalies(ds, "id", MethodIQR, 1.5)
	assert.True(t, stderrors.Is(err, core.ErrColumnNotNumeric))

	_, err = DetectAnomalies(ds, "x", "mad", 1.5)
	assert.True(t, stderrors.Is(err, core.ErrUnknownMethod))
}

func TestRankCorrelations(t *testing.T) {
	ds := dataset.New("c", []*dataset.Column{
		dataset.NumericColumn("a", 1, 2, 3, 4, 5),
		dataset.NumericColumn("b", 2, 4, 6, 8, 10),
		dataset.CategoricalColumn("label", "x", "y", "x", "y", "x"),
		dataset.NumericColumn("c", 5, 3, 4, 1, 2),
	})

	pairs := RankCorrelations(ds, DefaultCorrelationThreshold)
	require.Len(t, pairs, 3)
	assert.Equal(t, "a", pairs[0].Column1)
	assert.Equal(t, "b", pairs[0].Column2)
	assert.InDelta(t, 1.0, pairs[0].Coefficient, 1e-9)
	assert.Equal(t, CorrelationPair{Column1: "a", Column2: "c", Coefficient: pairs[1].Coefficient}, pairs[1])
	assert.InDelta(t, -0.8, pairs[1].Coefficient, 1e-9)
	assert.Equal(t, "b", pairs[2].Column1)

	assert.Len(t, RankCorrelations(ds, 0.9), 1)
	assert.Empty(t, RankCorrelations(numericDataset("x", 1, 2, 3), 0.5))
}

func TestExtractKeyMetrics(t *testing.T) {
	ds := dataset.New("k", []*dataset.Column{
		dataset.DatetimeColumn("date",
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)),
		dataset.NumericColumn("sales_amount", 100, 50, 300),
		dataset.NumericColumn("clicks", 10, 10, 0),
		dataset.NumericColumn("conversions", 1, 2, 0),
		dataset.NumericColumn("price_satisfaction", 4, 5, 3),
	})

	m := ExtractKeyMetrics(ds, nil)

	assert.InDelta(t, 450.0, *m.TotalSales, 1e-9)
	assert.Equal(t, []MonthlyTotal{{Month: "2024-01", Total: 150}, {Month: "2024-02", Total: 300}}, m.MonthlySales)
	assert.InDelta(t, 100.0, *m.GrowthRate, 1e-9)
	assert.InDelta(t, 15.0, *m.ConversionRate, 1e-9)
	assert.InDelta(t, 4.0, *m.AvgSatisfaction["price_satisfaction"], 1e-9)
	assert.InDelta(t, 450.0, *m.Columns["sales_amount"].Sum, 1e-9)
}

func TestCorrelationPValue(t *testing.T) {
	assert.Equal(t, 1.0, CorrelationPValue(0.9, 2))
	assert.Equal(t, 0.0, CorrelationPValue(1, 10))
	assert.InDelta(t, 1.0, CorrelationPValue(0, 10), 1e-9)
	assert.Less(t, CorrelationPValue(0.9, 20), 0.001)
}
