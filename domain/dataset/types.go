// Package dataset holds the in-memory table the rest of the pipeline reads from.
package dataset

import (
	"math"
	"strconv"
	"time"
)

// ColumnType is the inferred kind of a column
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
	ColumnDatetime    ColumnType = "datetime"
	ColumnBoolean     ColumnType = "boolean"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Value is one cell. Only the field matching the owning column's type is meaningful.
type Value struct {
	Missing bool
	Num     float64
	Str     string
	Time    time.Time
	Bool    bool
}

// Missing is the empty cell
func Missing() Value { return Value{Missing: true} }

// Number is a numeric cell. NaN and ±Inf are stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{Num: f}
}

func Text(s string) Value {
	if s == "" {
		return Missing()
	}
	return Value{Str: s}
}

func Timestamp(t time.Time) Value { return Value{Time: t} }

func Boolean(b bool) Value { return Value{Bool: b} }

// Column is a named, typed series of cells
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// Len returns the number of rows in the column
func (c *Column) Len() int { return len(c.Values) }

// MissingCount returns how many cells are empty
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Missing {
			n++
		}
	}
	return n
}

// IsNumeric reports whether arithmetic applies to the column
func (c *Column) IsNumeric() bool { return c.Type == ColumnNumeric }

// IsCategorical reports whether the column groups rows by label
func (c *Column) IsCategorical() bool {
	return c.Type == ColumnCategorical || c.Type == ColumnBoolean
}

// Floats returns the present numeric values in row order
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Missing {
			out = append(out, v.Num)
		}
	}
	return out
}

// Label renders the cell at row i the way it is displayed and grouped.
// Missing cells render as the empty string.
func (c *Column) Label(i int) string {
	v := c.Values[i]
	if v.Missing {
		return ""
	}
	switch c.Type {
	case ColumnNumeric:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ColumnDatetime:
		return formatTime(v.Time)
	case ColumnBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Interface returns the JSON-friendly form of the cell at row i (nil when missing)
func (c *Column) Interface(i int) interface{} {
	v := c.Values[i]
	if v.Missing {
		return nil
	}
	switch c.Type {
	case ColumnNumeric:
		return v.Num
	case ColumnDatetime:
		return formatTime(v.Time)
	case ColumnBoolean:
		return v.Bool
	default:
		return v.Str
	}
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

// Dataset is an ordered set of equal-length columns
type Dataset struct {
	Name    string
	Columns []*Column
	index   map[string]int
}

// New builds a dataset from columns, keeping their order
func New(name string, columns []*Column) *Dataset {
	d := &Dataset{Name: name, Columns: columns, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		d.index[c.Name] = i
	}
	return d
}

// NumRows returns the row count (0 for a dataset without columns)
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

func (d *Dataset) NumColumns() int { return len(d.Columns) }

// Column looks a column up by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// ColumnNames returns the header in file order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnsOfType returns the columns of any of the given types, in file order
func (d *Dataset) ColumnsOfType(types ...ColumnType) []*Column {
	var out []*Column
	for _, c := range d.Columns {
		for _, t := range types {
			if c.Type == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// NumericColumns is shorthand for ColumnsOfType(ColumnNumeric)
func (d *Dataset) NumericColumns() []*Column { return d.ColumnsOfType(ColumnNumeric) }

// Row returns row i keyed by column name
func (d *Dataset) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(d.Columns))
	for _, c := range d.Columns {
		row[c.Name] = c.Interface(i)
	}
	return row
}

// Clone deep-copies the dataset so callers can transform it freely
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.Columns))
	for i, c := range d.Columns {
		values := make([]Value, len(c.Values))
		copy(values, c.Values)
		cols[i] = &Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return New(d.Name, cols)
}

// Sample maps each column name to its leading values
type Sample map[string][]interface{}

// Head returns the first n rows as a column-wise sample
func (d *Dataset) Head(n int) Sample {
	if n > d.NumRows() {
		n = d.NumRows()
	}
	s := make(Sample, len(d.Columns))
	for _, c := range d.Columns {
		vals := make([]interface{}, n)
		for i := 0; i < n; i++ {
			vals[i] = c.Interface(i)
		}
		s[c.Name] = vals
	}
	return s
}

// Truncate keeps at most n values per column
func (s Sample) Truncate(n int) Sample {
	out := make(Sample, len(s))
	for name, vals := range s {
		if len(vals) > n {
			vals = vals[:n]
		}
		out[name] = vals
	}
	return out
}
