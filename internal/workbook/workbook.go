// Package workbook reads uploaded tariff files into named sheets of
// string cells. It knows nothing about tariffs; the sheets it returns
// are decoded into typed rows by the caller.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedFormat is returned by Read for file extensions it cannot
// parse.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Sheet is a named table. The first row is the header.
type Sheet struct {
	Name string
	Rows [][]string
}

// NewSheet returns a sheet with cleaned cells. Cells are trimmed and
// NFC normalized, fully empty rows are dropped.
func NewSheet(name string, rows [][]string) *Sheet {
	s := &Sheet{Name: cleanCell(name)}
	for _, row := range rows {
		cleaned := make([]string, len(row))
		empty := true
		for i, cell := range row {
			cleaned[i] = cleanCell(cell)
			if cleaned[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		s.Rows = append(s.Rows, cleaned)
	}

	return s
}

func cleanCell(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Header returns the first row, or nil for an empty sheet.
func (s *Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}

	return s.Rows[0]
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	if len(s.Rows) == 0 {
		return 0
	}

	return len(s.Rows) - 1
}

// Head returns the header and at most n data rows.
func (s *Sheet) Head(n int) [][]string {
	if len(s.Rows) == 0 {
		return [][]string{}
	}
	if n+1 > len(s.Rows) {
		n = len(s.Rows) - 1
	}

	return s.Rows[:n+1]
}

// Reader returns a row reader over the sheet. Every record has the width
// of the header: shorter rows are padded with empty cells and cells
// beyond the last header column are dropped. It satisfies csvutil.Reader.
func (s *Sheet) Reader() *RowReader {
	return &RowReader{sheet: s}
}

// RowReader reads a sheet row by row.
type RowReader struct {
	sheet *Sheet
	next  int
}

func (r *RowReader) Read() ([]string, error) {
	if r.next >= len(r.sheet.Rows) {
		return nil, io.EOF
	}

	row := r.sheet.Rows[r.next]
	r.next++

	record := make([]string, len(r.sheet.Header()))
	copy(record, row)

	return record, nil
}

// Workbook is a set of sheets in the order they were read.
type Workbook struct {
	sheets []*Sheet
}

// New returns a workbook holding sheets.
func New(sheets ...*Sheet) *Workbook {
	w := &Workbook{}
	for _, s := range sheets {
		w.Add(s)
	}

	return w
}

// Add adds s to the workbook. A sheet with the same name is replaced.
func (w *Workbook) Add(s *Sheet) {
	for i, existing := range w.sheets {
		if existing.Name == s.Name {
			w.sheets[i] = s
			return
		}
	}

	w.sheets = append(w.sheets, s)
}

// Merge adds every sheet of other to w.
func (w *Workbook) Merge(other *Workbook) {
	for _, s := range other.sheets {
		w.Add(s)
	}
}

// Sheet returns the sheet called name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for _, s := range w.sheets {
		if s.Name == name {
			return s, true
		}
	}

	return nil, false
}

// Sheets returns all sheets in read order.
func (w *Workbook) Sheets() []*Sheet {
	return w.sheets
}

// Names returns the sheet names in read order.
func (w *Workbook) Names() []string {
	names := make([]string, 0, len(w.sheets))
	for _, s := range w.sheets {
		names = append(names, s.Name)
	}

	return names
}

// Read parses r according to the extension of filename.
//
// .xlsx and .xlsm files are read with every worksheet. .csv files become
// a single sheet named after the file without extension. .html, .htm
// and .xls files are expected to be HTML table exports, each table
// becoming one sheet.
func Read(filename string, r io.Reader) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		return ReadCSV(name, r)
	case ".html", ".htm", ".xls":
		return ReadHTML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(filename))
	}
}
