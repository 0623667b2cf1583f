package dataset

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetAccessors(t *testing.T) {
	ds := New("t", []*Column{
		CategoricalColumn("region", "north", "", "south"),
		NumericColumn("sales", 1.5, math.NaN(), 3),
	})

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"region", "sales"}, ds.ColumnNames())

	sales, ok := ds.Column("sales")
	require.True(t, ok)
	assert.Equal(t, 1, sales.MissingCount())
	assert.Equal(t, []float64{1.5, 3}, sales.Floats())
	assert.Equal(t, "1.5", sales.Label(0))

	row := ds.Row(1)
	assert.Nil(t, row["region"])
	assert.Nil(t, row["sales"])

	_, ok = ds.Column("missing")
	assert.False(t, ok)
}

func TestLabelFormatting(t *testing.T) {
	assert.Equal(t, "true", BooleanColumn("b", true).Label(0))
	assert.Equal(t, "false", BooleanColumn("b", false).Label(0))
	assert.Equal(t, "10", NumericColumn("n", 10).Label(0))
	assert.Equal(t, "", NumericColumn("n", math.Inf(1)).Label(0))
}

func TestHeadAndTruncate(t *testing.T) {
	ds := New("t", []*Column{NumericColumn("x", 1, 2, 3, 4, 5, 6, 7)})

	head := ds.Head(10)
	assert.Len(t, head["x"], 7)

	short := head.Truncate(5)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0, 5.0}, short["x"])
	assert.Len(t, head["x"], 7, "truncate must not modify the original")
}

func TestCloneIsIndependent(t *testing.T) {
	ds := New("t", []*Column{NumericColumn("x", 1, 2)})
	c := ds.Clone()
	c.Columns[0].Values[0] = Number(99)

	assert.Equal(t, 1.0, ds.Columns[0].Values[0].Num)
}

func TestAsDatetime(t *testing.T) {
	col := CategoricalColumn("date", "2024-01-05", "", "01/31/2024")
	dt, ok := AsDatetime(col)
	require.True(t, ok)
	assert.Equal(t, ColumnDatetime, dt.Type)
	assert.True(t, dt.Values[1].Missing)
	assert.Equal(t, time.January, dt.Values[2].Time.Month())
	assert.Equal(t, "2024-01-05", dt.Label(0))

	_, ok = AsDatetime(CategoricalColumn("d", "2024-01-05", "soon"))
	assert.False(t, ok)
	_, ok = AsDatetime(NumericColumn("n", 1))
	assert.False(t, ok)
}

func TestCorrelationMatrixJSON(t *testing.T) {
	m := CorrelationMatrix{
		Columns: []string{"a", "b"},
		Values:  [][]float64{{1, math.NaN()}, {math.NaN(), 1}},
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"a":1,"b":null},"b":{"a":null,"b":1}}`, string(raw))

	_, ok := m.Get("a", "b")
	assert.False(t, ok)
	v, ok := m.Get("a", "a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}
