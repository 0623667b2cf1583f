package ui

import (
	"html/template"
	"sort"
	"strings"

	"datastory/app"
	domainDataset "datastory/domain/dataset"
	"datastory/domain/story"
	"datastory/internal/chart"
	"datastory/internal/samples"
)

// ColumnRow is one line of the profile table
type ColumnRow struct {
	Name        string
	Description string
	Type        string
	Missing     int
	Mean        string
	Median      string
	Min         string
	Max         string
	Range       string
	TopValues   string
}

// IndexPage is the upload form
type IndexPage struct {
	Samples            []samples.Info
	Audiences          []story.Audience
	Foci               []story.Focus
	Lengths            []story.Length
	Defaults           story.Config
	NarrativeAvailable bool
	MaxUploadMB        int
	Error              string
}

// StoryPage renders a generated story
type StoryPage struct {
	Result    *app.StoryResult
	Sample    string // empty for uploads
	Columns   []ColumnRow
	Narrative template.HTML
	Headers   []string
	Rows      [][]string
}

// profileRows flattens an analysis into table rows in column order
func profileRows(a domainDataset.Analysis) []ColumnRow {
	rows := make([]ColumnRow, 0, len(a.BasicInfo.ColumnNames))
	for _, name := range a.BasicInfo.ColumnNames {
		row := ColumnRow{
			Name:        name,
			Description: chart.ColumnDescription(name),
			Type:        string(a.BasicInfo.ColumnTypes[name]),
			Missing:     a.MissingValues[name],
		}
		if s, ok := a.NumericStats[name]; ok {
			row.Mean, row.Median = formatStat(s.Mean), formatStat(s.Median)
			row.Min, row.Max = formatStat(s.Min), formatStat(s.Max)
		}
		if r, ok := a.DatetimeStats[name]; ok {
			row.Range = r.Min + " to " + r.Max
		}
		if counts, ok := a.CategoricalStats[name]; ok {
			parts := make([]string, 0, len(counts))
			for _, cc := range counts {
				parts = append(parts, cc.Value+" ("+chart.FormatNumber(float64(cc.Count), 0)+")")
			}
			row.TopValues = strings.Join(parts, ", ")
		}
		rows = append(rows, row)
	}
	return rows
}

func formatStat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return chart.FormatNumber(*v, 2)
}

// previewTable renders a sample as header and string rows in column order
func previewTable(ds *domainDataset.Dataset, n int) ([]string, [][]string) {
	headers := ds.ColumnNames()
	rows := n
	if ds.NumRows() < rows {
		rows = ds.NumRows()
	}
	out := make([][]string, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]string, len(ds.Columns))
		for j, col := range ds.Columns {
			out[i][j] = col.Label(i)
		}
	}
	return headers, out
}

// sortedKeys returns map keys in order, for templates
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// answerFragment is the question reply shown under the story
type answerFragment struct {
	Result *app.QuestionResult
	Error  string
	Code   string
}
