package analysis

import (
	"sort"
	"strings"

	"datastory/domain/dataset"
	"datastory/internal/profiling"

	"github.com/montanaflynn/stats"
)

// ColumnMetrics are the headline numbers of one numeric column
type ColumnMetrics struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Sum    *float64 `json:"sum"`
}

// MonthlyTotal is a calendar month (YYYY-MM) and its summed value
type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// KeyMetrics collects per-column summaries plus the business metrics recognised
// from well-known column names
type KeyMetrics struct {
	Columns         map[string]ColumnMetrics `json:"columns"`
	TotalSales      *float64                 `json:"total_sales,omitempty"`
	MonthlySales    []MonthlyTotal           `json:"monthly_sales,omitempty"`
	GrowthRate      *float64                 `json:"growth_rate,omitempty"`
	ConversionRate  *float64                 `json:"conversion_rate,omitempty"`
	AvgSatisfaction map[string]*float64      `json:"avg_satisfaction,omitempty"`
}

// ExtractKeyMetrics summarizes numeric columns. columnMap may rename the
// "sales" role (default sales_amount).
func ExtractKeyMetrics(ds *dataset.Dataset, columnMap map[string]string) KeyMetrics {
	metrics := KeyMetrics{Columns: make(map[string]ColumnMetrics)}

	for _, col := range ds.NumericColumns() {
		values := col.Floats()
		s := profiling.Summarize(values)
		m := ColumnMetrics{Mean: s.Mean, Median: s.Median, Min: s.Min, Max: s.Max}
		if len(values) > 0 {
			if sum, err := stats.Sum(values); err == nil {
				m.Sum = dataset.Float(sum)
			}
		}
		metrics.Columns[col.Name] = m
	}

	salesName := "sales_amount"
	if name, ok := columnMap["sales"]; ok && name != "" {
		salesName = name
	}
	if sales, ok := ds.Column(salesName); ok && sales.IsNumeric() {
		total, _ := stats.Sum(sales.Floats())
		metrics.TotalSales = dataset.Float(total)
		if dates := firstDateColumn(ds); dates != nil {
			metrics.MonthlySales = monthlyTotals(dates, sales)
			if n := len(metrics.MonthlySales); n > 1 {
				first, last := metrics.MonthlySales[0].Total, metrics.MonthlySales[n-1].Total
				metrics.GrowthRate = dataset.Float((last/first - 1) * 100)
			}
		}
	}

	clicks, okClicks := ds.Column("clicks")
	conversions, okConv := ds.Column("conversions")
	if okClicks && okConv && clicks.IsNumeric() && conversions.IsNumeric() {
		clickSum, _ := stats.Sum(clicks.Floats())
		convSum, _ := stats.Sum(conversions.Floats())
		rate := 0.0
		if clickSum > 0 {
			rate = convSum / clickSum * 100
		}
		metrics.ConversionRate = dataset.Float(rate)
	}

	for _, col := range ds.NumericColumns() {
		lower := strings.ToLower(col.Name)
		if !strings.Contains(lower, "satisfaction") && !strings.Contains(lower, "rating") {
			continue
		}
		if metrics.AvgSatisfaction == nil {
			metrics.AvgSatisfaction = make(map[string]*float64)
		}
		metrics.AvgSatisfaction[col.Name] = dataset.Float(profiling.Mean(col.Floats()))
	}

	return metrics
}

// firstDateColumn returns the first column named like a date that holds dates
func firstDateColumn(ds *dataset.Dataset) *dataset.Column {
	for _, col := range ds.Columns {
		if !strings.Contains(strings.ToLower(col.Name), "date") {
			continue
		}
		if dt, ok := dataset.AsDatetime(col); ok {
			return dt
		}
		return nil
	}
	return nil
}

func monthlyTotals(dates, values *dataset.Column) []MonthlyTotal {
	sums := make(map[string]float64)
	for i := 0; i < dates.Len() && i < values.Len(); i++ {
		if dates.Values[i].Missing || values.Values[i].Missing {
			continue
		}
		sums[dates.Values[i].Time.Format("2006-01")] += values.Values[i].Num
	}
	out := make([]MonthlyTotal, 0, len(sums))
	for month, total := range sums {
		out = append(out, MonthlyTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
