// Package loader turns uploaded CSV and Excel files into datasets.
package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datastory/domain/core"
	"datastory/domain/dataset"
	"datastory/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Loader reads tabular files with encoding detection and type inference
type Loader struct {
	detect  DetectFunc
	coercer *TypeCoercer
	tempDir string
}

// Option configures a Loader
type Option func(*Loader)

// WithDetector replaces the charset detector
func WithDetector(detect DetectFunc) Option {
	return func(l *Loader) { l.detect = detect }
}

// WithTempDir sets where uploads are staged before reading
func WithTempDir(dir string) Option {
	return func(l *Loader) { l.tempDir = dir }
}

// New creates a loader with the default detector and coercion rules
func New(opts ...Option) *Loader {
	l := &Loader{
		detect:  DetectCharset,
		coercer: NewTypeCoercer(DefaultCoercionConfig()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadUpload stages an uploaded stream in a temporary file, reads it, and
// removes the file on every path
func (l *Loader) LoadUpload(filename string, r io.Reader) (*dataset.Dataset, error) {
	pattern := "upload-*" + strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp(l.tempDir, pattern)
	if err != nil {
		return nil, errors.LoadError(filename, fmt.Errorf("create temp file: %w", err))
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			log.Printf("[Loader] failed to remove temp file %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, errors.LoadError(filename, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.LoadError(filename, fmt.Errorf("close temp file: %w", err))
	}

	ds, err := l.LoadFile(tmp.Name())
	if err != nil {
		return nil, err
	}
	ds.Name = filename
	return ds, nil
}

// LoadFile reads a .csv or .xlsx file from disk
func (l *Loader) LoadFile(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.LoadError(filepath.Base(path), err)
	}
	return l.LoadBytes(filepath.Base(path), data)
}

// LoadBytes reads file contents, dispatching on the extension of name
func (l *Loader) LoadBytes(name string, data []byte) (*dataset.Dataset, error) {
	start := time.Now()
	var (
		ds  *dataset.Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		ds, err = l.readExcel(name, data)
	case ".csv", ".txt", "":
		ds, err = l.readCSV(name, data)
	default:
		err = errors.LoadError(name, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, filepath.Ext(name)))
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[Loader] %s loaded in %.2fms (%d rows, %d columns)",
		name, float64(time.Since(start).Nanoseconds())/1e6, ds.NumRows(), ds.NumColumns())
	return ds, nil
}

// readCSV tries the detected encoding and then each fallback. A candidate fails
// when decoding or parsing fails; the first one that succeeds wins.
func (l *Loader) readCSV(name string, data []byte) (*dataset.Dataset, error) {
	detected := ""
	if l.detect != nil {
		detected = l.detect(data)
	}

	var lastErr error
	for _, enc := range candidateEncodings(detected) {
		text, err := decode(data, enc)
		if err != nil {
			lastErr = err
			continue
		}
		records, err := parseCSV(text)
		if err != nil {
			lastErr = err
			continue
		}
		ds, err := l.buildDataset(name, records)
		if err != nil {
			return nil, errors.LoadError(name, err)
		}
		log.Printf("[Loader] %s decoded as %s (detected %q)", name, enc, detected)
		return ds, nil
	}

	return nil, errors.LoadError(name, fmt.Errorf("%w: %v", core.ErrNoSupportedEncoding, lastErr))
}

// DecodeText exposes the encoding chain for callers that need the text only.
// It returns the decoded text and the encoding that succeeded.
func (l *Loader) DecodeText(data []byte) (string, string, error) {
	detected := ""
	if l.detect != nil {
		detected = l.detect(data)
	}
	for _, enc := range candidateEncodings(detected) {
		if text, err := decode(data, enc); err == nil {
			return text, enc, nil
		}
	}
	return "", "", core.ErrNoSupportedEncoding
}

func parseCSV(text string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, core.ErrEmptyFile
	}
	width := len(records[0])
	for i, rec := range records[1:] {
		if len(rec) > width {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, width, len(rec))
		}
	}
	return records, nil
}

// readExcel reads the first worksheet
func (l *Loader) readExcel(name string, data []byte) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.LoadError(name, fmt.Errorf("failed to open Excel file: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.LoadError(name, core.ErrEmptyFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.LoadError(name, fmt.Errorf("failed to read %s: %w", sheets[0], err))
	}
	if len(rows) == 0 {
		return nil, errors.LoadError(name, core.ErrEmptyFile)
	}

	ds, err := l.buildDataset(name, rows)
	if err != nil {
		return nil, errors.LoadError(name, err)
	}
	return ds, nil
}

// buildDataset turns a header row plus data rows into typed columns.
// Short rows are padded with missing cells.
func (l *Loader) buildDataset(name string, records [][]string) (*dataset.Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, core.ErrEmptyFile
	}
	headers := normalizeHeaders(records[0])
	rows := records[1:]

	columns := make([]*dataset.Column, len(headers))
	for j, header := range headers {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			}
		}
		columns[j] = l.coercer.CoerceColumn(header, raw)
	}
	return dataset.New(name, columns), nil
}

// normalizeHeaders trims names, names blanks "Unnamed: i" and suffixes duplicates ".1", ".2"
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		base := h
		for seen[h] > 0 {
			h = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[h]++
		headers[i] = h
	}
	return headers
}
