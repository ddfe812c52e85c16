package workbook

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads a single sheet called name. The delimiter is ';' when the
// header line contains more semicolons than commas, which is what German
// spreadsheet programs export, and ',' otherwise.
func ReadCSV(name string, r io.Reader) (*Workbook, error) {
	br := bufio.NewReader(r)

	// Skip a UTF-8 byte order mark.
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	first, err := br.Peek(br.Size())
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("reading csv %q: %w", name, err)
	}
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(first)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv %q: %w", name, err)
	}

	return New(NewSheet(name, rows)), nil
}

func sniffDelimiter(header []byte) rune {
	if bytes.Count(header, []byte{';'}) > bytes.Count(header, []byte{','}) {
		return ';'
	}

	return ','
}
