package chart

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"datastory/domain/core"
	"datastory/domain/dataset"
	"datastory/internal/config"
	"datastory/internal/errors"
	"datastory/internal/metrics"
	"datastory/internal/profiling"

	"gonum.org/v1/gonum/stat"
)

// DefaultHeatmapTitle is used when a heatmap request has no title
const DefaultHeatmapTitle = "Correlation heatmap"

// Binder validates chart specs against a dataset and builds charts
type Binder struct {
	style StyleResult
	font  FontResult
}

// NewBinder resolves the configured style and font once. A failed resolution
// falls back and is reported through Style and Font.
func NewBinder(cfg config.ChartConfig, lookup FontLookup) *Binder {
	b := &Binder{style: ResolveStyle(cfg.Style), font: ResolveFont(cfg.Font, lookup)}
	if !b.style.OK {
		log.Printf("[ChartBinder] WARN: %s", b.style.Reason)
	}
	if !b.font.OK || b.font.Reason != "" {
		log.Printf("[ChartBinder] WARN: %s", b.font.Reason)
	}
	return b
}

// Style returns the resolved chart style
func (b *Binder) Style() StyleResult { return b.style }

// Font returns the resolved chart font
func (b *Binder) Font() FontResult { return b.font }

// Render binds spec to ds and returns nil when the spec cannot be bound.
// It never panics.
func (b *Binder) Render(ds *dataset.Dataset, spec Spec) (c *Chart) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ChartBinder] ERROR: rendering %s chart panicked: %v", spec.Type, r)
			metrics.ObserveChart(metricType(spec.Type), false)
			c = nil
		}
	}()

	c, err := b.Bind(ds, spec)
	if err != nil {
		log.Printf("[ChartBinder] WARN: %v", err)
		return nil
	}
	return c
}

// Bind validates and builds the chart. Errors carry CHART_BINDING_ERROR and
// wrap a domain/core sentinel.
func (b *Binder) Bind(ds *dataset.Dataset, spec Spec) (*Chart, error) {
	chartType := strings.ToLower(strings.TrimSpace(spec.Type))
	c, err := b.bind(ds, chartType, spec)
	metrics.ObserveChart(metricType(chartType), err == nil)
	if err != nil {
		return nil, errors.ChartBindingError(chartType, err)
	}
	c.Style = b.style.Style
	c.Font = b.font.Family
	return c, nil
}

func (b *Binder) bind(ds *dataset.Dataset, chartType string, spec Spec) (*Chart, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", core.ErrInsufficientData)
	}

	if chartType == TypeHeatmap {
		return heatmap(ds, spec.Title)
	}

	switch chartType {
	case TypeBar, TypeLine, TypeScatter, TypePie:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedChart, spec.Type)
	}

	x, y, err := axes(ds, spec)
	if err != nil {
		return nil, err
	}
	if !y.IsNumeric() {
		return nil, core.NewColumnNotNumericError(y.Name)
	}

	title := spec.Title
	if title == "" {
		title = fmt.Sprintf("%s by %s", y.Name, x.Name)
	}
	c := &Chart{
		ChartType:  chartType,
		Title:      title,
		XAxis:      x.Name,
		YAxis:      y.Name,
		ShowLegend: chartType == TypePie,
		ShowGrid:   chartType != TypePie,
	}

	switch chartType {
	case TypeBar:
		c.Series = []Series{bar(x, y)}
	case TypeLine:
		c.Series = []Series{line(x, y)}
	case TypeScatter:
		c.Series = scatter(x, y)
	case TypePie:
		s, err := pie(x, y)
		if err != nil {
			return nil, err
		}
		c.Series = []Series{s}
	}

	if chartType == TypePie {
		c.Colors = assignColors(len(c.Series[0].Data))
	} else {
		c.Colors = assignColors(len(c.Series))
		for i := range c.Series {
			c.Series[i].Color = c.Colors[i]
		}
	}
	return c, nil
}

// axes resolves both columns, in x then y order
func axes(ds *dataset.Dataset, spec Spec) (*dataset.Column, *dataset.Column, error) {
	if spec.XColumn == "" || spec.YColumn == "" {
		return nil, nil, fmt.Errorf("%w: x_column=%q y_column=%q", core.ErrMissingAxis, spec.XColumn, spec.YColumn)
	}
	x, ok := ds.Column(spec.XColumn)
	if !ok {
		return nil, nil, core.NewColumnNotFoundError(spec.XColumn)
	}
	y, ok := ds.Column(spec.YColumn)
	if !ok {
		return nil, nil, core.NewColumnNotFoundError(spec.YColumn)
	}
	return x, y, nil
}

func bar(x, y *dataset.Column) Series {
	if x.IsCategorical() {
		return Series{Name: y.Name, Kind: KindData, Data: groupBy(x, y, sum)}
	}
	return Series{Name: y.Name, Kind: KindData, Data: rows(x, y, rowOrder(x))}
}

func line(x, y *dataset.Column) Series {
	switch {
	case x.Type == dataset.ColumnDatetime:
		order := rowOrder(x)
		sort.SliceStable(order, func(i, j int) bool {
			return x.Values[order[i]].Time.Before(x.Values[order[j]].Time)
		})
		return Series{Name: y.Name, Kind: KindData, Data: rows(x, y, order)}
	case x.IsCategorical():
		return Series{Name: y.Name, Kind: KindData, Data: groupBy(x, y, mean)}
	default:
		return Series{Name: y.Name, Kind: KindData, Data: rows(x, y, rowOrder(x))}
	}
}

func scatter(x, y *dataset.Column) []Series {
	points := rows(x, y, rowOrder(x))
	series := []Series{{Name: y.Name, Kind: KindData, Data: points}}
	if !x.IsNumeric() {
		return series
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = *p.X, p.Value
	}
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return series
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	lo, hi := minMax(xs)
	trend := Series{Name: "Trend", Kind: KindTrend}
	for _, v := range []float64{lo, hi} {
		xv := v
		trend.Data = append(trend.Data, Point{Label: formatFloat(xv), X: &xv, Value: alpha + beta*xv})
	}
	return append(series, trend)
}

func pie(x, y *dataset.Column) (Series, error) {
	points := groupBy(x, y, sum)
	total := 0.0
	for _, p := range points {
		if p.Value < 0 {
			return Series{}, fmt.Errorf("%w: pie slice %q is negative", core.ErrInsufficientData, p.Label)
		}
		total += p.Value
	}
	if total == 0 {
		return Series{}, fmt.Errorf("%w: pie values sum to zero", core.ErrInsufficientData)
	}
	for i := range points {
		pct := math.Round(points[i].Value/total*1000) / 10
		points[i].Percent = &pct
		points[i].Label = fmt.Sprintf("%s (%.1f%%)", points[i].Label, pct)
	}
	return Series{Name: y.Name, Kind: KindData, Data: points}, nil
}

func heatmap(ds *dataset.Dataset, title string) (*Chart, error) {
	m := profiling.Correlations(ds)
	if m == nil {
		return nil, fmt.Errorf("%w: heatmap needs at least 2, have %d", core.ErrNotEnoughNumerics, len(ds.NumericColumns()))
	}
	if title == "" {
		title = DefaultHeatmapTitle
	}

	h := &Heatmap{Columns: m.Columns}
	for _, row := range m.Values {
		cells := make([]*float64, len(row))
		notes := make([]string, len(row))
		colors := make([]string, len(row))
		for j, v := range row {
			cells[j] = dataset.Float(v)
			if cells[j] == nil {
				notes[j] = "n/a"
				colors[j] = "#DDDDDD"
				continue
			}
			notes[j] = fmt.Sprintf("%.2f", v)
			colors[j] = coolwarm(v)
		}
		h.Cells = append(h.Cells, cells)
		h.Annotations = append(h.Annotations, notes)
		h.CellColors = append(h.CellColors, colors)
	}

	return &Chart{ChartType: TypeHeatmap, Title: title, Heatmap: h, Series: []Series{}}, nil
}

// metricType bounds the chart type label used in metrics
func metricType(t string) string {
	switch t {
	case TypeBar, TypeLine, TypeScatter, TypePie, TypeHeatmap:
		return t
	default:
		return "unknown"
	}
}
