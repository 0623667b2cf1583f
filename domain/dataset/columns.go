package dataset

import (
	"strings"
	"time"
)

// NumericColumn builds a numeric column; NaN entries become missing cells
func NumericColumn(name string, values ...float64) *Column {
	col := &Column{Name: name, Type: ColumnNumeric, Values: make([]Value, len(values))}
	for i, v := range values {
		col.Values[i] = Number(v)
	}
	return col
}

// CategoricalColumn builds a label column; empty strings become missing cells
func CategoricalColumn(name string, values ...string) *Column {
	col := &Column{Name: name, Type: ColumnCategorical, Values: make([]Value, len(values))}
	for i, v := range values {
		col.Values[i] = Text(v)
	}
	return col
}

// DatetimeColumn builds a date column; zero times become missing cells
func DatetimeColumn(name string, values ...time.Time) *Column {
	col := &Column{Name: name, Type: ColumnDatetime, Values: make([]Value, len(values))}
	for i, v := range values {
		if v.IsZero() {
			col.Values[i] = Missing()
			continue
		}
		col.Values[i] = Timestamp(v)
	}
	return col
}

func BooleanColumn(name string, values ...bool) *Column {
	col := &Column{Name: name, Type: ColumnBoolean, Values: make([]Value, len(values))}
	for i, v := range values {
		col.Values[i] = Boolean(v)
	}
	return col
}

// timestampFormats are tried in order; the first layout that parses wins
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"2006.01.02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseTimestamp parses s with the first matching supported layout
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AsDatetime returns a datetime view of col. Datetime columns are returned as-is;
// label columns are converted when every present cell parses as a timestamp.
func AsDatetime(col *Column) (*Column, bool) {
	if col.Type == ColumnDatetime {
		return col, true
	}
	if col.Type != ColumnCategorical {
		return nil, false
	}
	out := &Column{Name: col.Name, Type: ColumnDatetime, Values: make([]Value, len(col.Values))}
	for i, v := range col.Values {
		if v.Missing {
			out.Values[i] = Missing()
			continue
		}
		t, ok := ParseTimestamp(v.Str)
		if !ok {
			return nil, false
		}
		out.Values[i] = Timestamp(t)
	}
	return out, true
}
