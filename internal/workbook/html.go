package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReadHTML reads every <table> of an HTML document as a sheet. A table
// is named by its <caption>, its data-sheet attribute or its id, in that
// order, falling back to "Table<n>".
func ReadHTML(r io.Reader) (*Workbook, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	w := New()
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, cell.Text())
			})
			rows = append(rows, row)
		})

		w.Add(NewSheet(tableName(i, table), rows))
	})

	return w, nil
}

func tableName(i int, table *goquery.Selection) string {
	if caption := strings.TrimSpace(table.Find("caption").First().Text()); caption != "" {
		return caption
	}

	if name, ok := table.Attr("data-sheet"); ok && strings.TrimSpace(name) != "" {
		return name
	}

	if id, ok := table.Attr("id"); ok && strings.TrimSpace(id) != "" {
		return id
	}

	return fmt.Sprintf("Table%d", i+1)
}
