// Package extract holds the pure HTML and text helpers shared by every source adapter.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row is one table body row keyed by header text or by positional column_<i>.
type Row map[string]string

// Tables extracts every table of the document in document order.
func Tables(doc *goquery.Document) [][]Row {
	var out [][]Row
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		out = append(out, Table(table))
	})
	return out
}

// Table extracts the body rows of a single table. Headers come from <thead>, or from a
// first row made only of <th> cells, which is then not emitted. A row whose cell count
// equals the header count is keyed by header; any other row is keyed positionally.
func Table(table *goquery.Selection) []Row {
	headers := cellTexts(table.ChildrenFiltered("thead").First().Find("th, td"))
	hasHead := table.ChildrenFiltered("thead").Length() > 0

	rows := make([]Row, 0)
	first := true
	ownRows(table).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td, th")
		if first {
			first = false
			th := tr.ChildrenFiltered("th").Length()
			if !hasHead && th > 0 && th == cells.Length() {
				headers = cellTexts(cells)
				return
			}
		}
		if cells.Length() == 0 {
			return
		}

		texts := cellTexts(cells)
		row := make(Row, len(texts))
		if len(headers) > 0 && len(texts) == len(headers) {
			for i, h := range headers {
				row[h] = texts[i]
			}
		} else {
			for i, t := range texts {
				row[fmt.Sprintf("column_%d", i)] = t
			}
		}
		rows = append(rows, row)
	})
	return rows
}

// ownRows returns the rows belonging to table itself, excluding nested tables and <thead>.
func ownRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		if !tr.Closest("table").IsSelection(table) {
			return false
		}
		return tr.ParentsUntilSelection(table).Filter("thead").Length() == 0
	})
}

func cellTexts(cells *goquery.Selection) []string {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, CleanText(c.Text()))
	})
	return texts
}

// CleanText trims and collapses internal whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RowsOf converts a stored table value back into rows. It accepts both the in-memory
// form and the generic form produced by decoding JSON.
func RowsOf(v any) []Row {
	switch t := v.(type) {
	case []Row:
		return t
	case []map[string]string:
		rows := make([]Row, len(t))
		for i, r := range t {
			rows[i] = Row(r)
		}
		return rows
	case []any:
		rows := make([]Row, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			row := make(Row, len(m))
			for k, val := range m {
				row[k] = fmt.Sprint(val)
			}
			rows = append(rows, row)
		}
		return rows
	}
	return nil
}
