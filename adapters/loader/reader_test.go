package loader

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datastory/domain/core"
	"datastory/domain/dataset"
	apperrors "datastory/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

func noDetect([]byte) string { return "" }

func TestLoadUTF8CSVInfersTypes(t *testing.T) {
	csv := "date,region,sales,active\n" +
		"2024-01-01,north,10.5,true\n" +
		"2024-01-02,south,,false\n" +
		"2024-01-03,north,7,TRUE\n"

	ds, err := New().LoadBytes("sales.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"date", "region", "sales", "active"}, ds.ColumnNames())

	types := map[string]dataset.ColumnType{}
	for _, c := range ds.Columns {
		types[c.Name] = c.Type
	}
	assert.Equal(t, dataset.ColumnDatetime, types["date"])
	assert.Equal(t, dataset.ColumnCategorical, types["region"])
	assert.Equal(t, dataset.ColumnNumeric, types["sales"])
	assert.Equal(t, dataset.ColumnBoolean, types["active"])

	sales, _ := ds.Column("sales")
	assert.Equal(t, 1, sales.MissingCount())
}

func TestLoadStripsBOMAndKeepsKorean(t *testing.T) {
	csv := "\xEF\xBB\xBF지역,매출\n서울,100\n부산,200\n"

	ds, err := New().LoadBytes("kr.csv", []byte(csv))
	require.NoError(t, err)

	region, ok := ds.Column("지역")
	require.True(t, ok)
	assert.Equal(t, "서울", region.Label(0))
}

func TestLoadFallsBackToEUCKR(t *testing.T) {
	text := "지역,매출,비고\n서울특별시,100,정상\n부산광역시,200,확인\n"
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	l := New(WithDetector(noDetect))
	ds, err := l.LoadBytes("kr.csv", encoded)
	require.NoError(t, err)

	region, ok := ds.Column("지역")
	require.True(t, ok)
	assert.Equal(t, "부산광역시", region.Label(1))

	_, enc, err := l.DecodeText(encoded)
	require.NoError(t, err)
	assert.Equal(t, "cp949", enc)
}

func TestLoadSkipsUnknownDetectedEncoding(t *testing.T) {
	l := New(WithDetector(func([]byte) string { return "klingon-8" }))
	ds, err := l.LoadBytes("a.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumRows())
}

func TestLoadLatin1Fallback(t *testing.T) {
	// 0xE9 is "é" in Latin-1 and invalid as UTF-8 or EUC-KR
	data := []byte("name,city\nRen\xe9,Paris\n")

	l := New(WithDetector(noDetect))
	ds, err := l.LoadBytes("fr.csv", data)
	require.NoError(t, err)

	name, _ := ds.Column("name")
	assert.Equal(t, "René", name.Label(0))
}

func TestLoadRejectsMalformedCSV(t *testing.T) {
	// Too many fields on the data row fails in every encoding
	_, err := New(WithDetector(noDetect)).LoadBytes("bad.csv", []byte("a,b\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrNoSupportedEncoding))
	assert.Equal(t, apperrors.CodeLoadError, apperrors.GetCode(err))
}

func TestLoadPadsShortRowsAndDedupesHeaders(t *testing.T) {
	ds, err := New().LoadBytes("x.csv", []byte("a,a,\n1,2,3\n4\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2"}, ds.ColumnNames())
	second, _ := ds.Column("a.1")
	assert.True(t, second.Values[1].Missing)
}

func TestLoadAllMissingColumnIsNumeric(t *testing.T) {
	ds, err := New().LoadBytes("x.csv", []byte("a,b\n1,\n2,NA\n"))
	require.NoError(t, err)
	b, _ := ds.Column("b")
	assert.Equal(t, dataset.ColumnNumeric, b.Type)
	assert.Equal(t, 2, b.MissingCount())
}

func TestLoadNonFiniteCellsAreMissing(t *testing.T) {
	ds, err := New().LoadBytes("x.csv", []byte("a,b\n1,2\ninf,3\n4,5\n-Infinity,6\n"))
	require.NoError(t, err)

	a, ok := ds.Column("a")
	require.True(t, ok)
	assert.Equal(t, dataset.ColumnNumeric, a.Type)
	assert.Equal(t, 2, a.MissingCount())

	_, err = json.Marshal(ds.Head(10))
	assert.NoError(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := New().LoadBytes("x.parquet", []byte("PAR1"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrUnsupportedFormat))
}

func TestLoadUploadRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	l := New(WithTempDir(dir))

	ds, err := l.LoadUpload("upload.csv", strings.NewReader("x,y\n1,2\n3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, "upload.csv", ds.Name)

	_, err = l.LoadUpload("broken.csv", strings.NewReader("x\n\"unterminated\n"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be removed on success and failure")
}

func TestLoadExcelFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"product", "units"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"widget", 3}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"gadget", 5}))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := New().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())
	units, _ := ds.Column("units")
	assert.Equal(t, dataset.ColumnNumeric, units.Type)
	assert.Equal(t, []float64{3, 5}, units.Floats())
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	tests := []struct {
		name string
		in   []string
		want dataset.ColumnType
	}{
		{"numeric", []string{"1", "2.5", "-3e2", ""}, dataset.ColumnNumeric},
		{"boolean", []string{"True", "false"}, dataset.ColumnBoolean},
		{"datetime", []string{"2024-03-01", "2024-03-02 10:00:00"}, dataset.ColumnDatetime},
		{"mixed", []string{"1", "two"}, dataset.ColumnCategorical},
		{"empty", []string{"", "null"}, dataset.ColumnNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.AnalyzeTypeDistribution(tt.in).RecommendedType
			if got != tt.want {
				t.Fatalf("AnalyzeTypeDistribution(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
