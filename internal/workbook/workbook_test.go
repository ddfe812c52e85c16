package workbook

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewSheet_CleansCells(t *testing.T) {
	s := NewSheet(" GWK ", [][]string{
		{" GW ", "Z01"},
		{"", " "},
		{"bis 20 kg", "Ö"},
	})

	assert.Equal(t, "GWK", s.Name)
	assert.Equal(t, [][]string{{"GW", "Z01"}, {"bis 20 kg", "Ö"}}, s.Rows)
	assert.Equal(t, 1, s.Len())
}

func TestSheetHead(t *testing.T) {
	s := NewSheet("GWK", [][]string{{"GW"}, {"1"}, {"2"}, {"3"}})

	assert.Equal(t, [][]string{{"GW"}, {"1"}, {"2"}}, s.Head(2))
	assert.Len(t, s.Head(10), 4)
	assert.Empty(t, NewSheet("empty", nil).Head(5))
}

func TestRowReader_PadsShortRows(t *testing.T) {
	r := NewSheet("GWK", [][]string{{"GW", "Z01", "Z02"}, {"20"}}).Reader()

	header, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"GW", "Z01", "Z02"}, header)

	row, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"20", "", ""}, row)

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestRowReader_DropsCellsBeyondHeader(t *testing.T) {
	r := NewSheet("GWK", [][]string{{"GW", "Z03"}, {"bis 20 kg", "12.5", "Notiz"}}).Reader()

	_, err := r.Read()
	require.NoError(t, err)

	row, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"bis 20 kg", "12.5"}, row)
}

func TestWorkbook_AddReplacesByName(t *testing.T) {
	w := New(NewSheet("GWK", [][]string{{"old"}}), NewSheet("Zoneneinteilung", nil))
	w.Merge(New(NewSheet("GWK", [][]string{{"new"}})))

	assert.Equal(t, []string{"GWK", "Zoneneinteilung"}, w.Names())
	s, ok := w.Sheet("GWK")
	require.True(t, ok)
	assert.Equal(t, "new", s.Header()[0])

	_, ok = w.Sheet("Tabelle1")
	assert.False(t, ok)
}

func TestRead_CSV(t *testing.T) {
	input := "\xEF\xBB\xBFLand;PLZ_2;Zone\nDeutschland;01;3\n\"Österreich\";10;7\n"

	w, err := Read("uploads/Zoneneinteilung.csv", strings.NewReader(input))
	require.NoError(t, err)

	s, ok := w.Sheet("Zoneneinteilung")
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{"Land", "PLZ_2", "Zone"},
		{"Deutschland", "01", "3"},
		{"Österreich", "10", "7"},
	}, s.Rows)
}

func TestRead_CSVCommaDelimited(t *testing.T) {
	w, err := Read("GWK.CSV", strings.NewReader("GW,Z01\nbis 20 kg,\"12,5\"\n"))
	require.NoError(t, err)

	s, ok := w.Sheet("GWK")
	require.True(t, ok)
	assert.Equal(t, []string{"bis 20 kg", "12,5"}, s.Rows[1])
}

func TestRead_HTML(t *testing.T) {
	doc := `<html><body>
<table><caption>GWK</caption>
  <tr><th>GW</th><th>Z03</th></tr>
  <tr><td> bis 20 kg </td><td>12.50</td></tr>
</table>
<table data-sheet="Zoneneinteilung">
  <tr><th>Land</th><th>PLZ_2</th><th>Zone</th></tr>
  <tr><td>Deutschland</td><td>10</td><td>3</td></tr>
</table>
<table id="notes"><tr><td>Stand 2024</td></tr></table>
<table><tr><td>x</td></tr></table>
</body></html>`

	w, err := Read("tarif.xls", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"GWK", "Zoneneinteilung", "notes", "Table4"}, w.Names())

	s, _ := w.Sheet("GWK")
	assert.Equal(t, [][]string{{"GW", "Z03"}, {"bis 20 kg", "12.50"}}, s.Rows)
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("GWK")
	require.NoError(t, err)
	_, err = f.NewSheet("Zoneneinteilung")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("GWK", "A1", &[]any{"GW", "Z01", "Z03"}))
	require.NoError(t, f.SetSheetRow("GWK", "A2", &[]any{"bis 20 kg", 10, 12.5}))
	require.NoError(t, f.SetSheetRow("Zoneneinteilung", "A1", &[]any{"Land", "PLZ_2", "Zone"}))
	require.NoError(t, f.SetSheetRow("Zoneneinteilung", "A2", &[]any{"Deutschland", 1, 3}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err := Read("Tarif.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, w.Names(), "GWK")
	assert.Contains(t, w.Names(), "Zoneneinteilung")

	gwk, _ := w.Sheet("GWK")
	assert.Equal(t, [][]string{{"GW", "Z01", "Z03"}, {"bis 20 kg", "10", "12.5"}}, gwk.Rows)

	zones, _ := w.Sheet("Zoneneinteilung")
	assert.Equal(t, []string{"Deutschland", "1", "3"}, zones.Rows[1])
}

func TestRead_XLSXInvalid(t *testing.T) {
	_, err := Read("tarif.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestRead_Unsupported(t *testing.T) {
	_, err := Read("tarif.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
