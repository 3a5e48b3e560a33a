package output

import (
	"encoding/csv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders a dataset as a bordered ASCII table.
type TableFormatter struct{}

// Format renders ds as a table followed by its notes.
func (f *TableFormatter) Format(ds *Dataset) (string, error) {
	if ds == nil {
		return "", nil
	}

	var b strings.Builder
	if len(ds.Rows) == 0 {
		if ds.Title != "" {
			b.WriteString(ds.Title)
			b.WriteString("\n")
		}
		b.WriteString("No results.")
	} else {
		t := newWriter(ds)
		t.SetStyle(table.StyleRounded)
		if ds.Title != "" {
			t.SetTitle(ds.Title)
		}
		if len(ds.Footer) > 0 {
			t.AppendFooter(toRow(ds.Footer))
		}
		b.WriteString(t.Render())
	}

	for _, note := range ds.Notes {
		b.WriteString("\n")
		b.WriteString(note)
	}
	return b.String(), nil
}

// CompactFormatter renders one borderless line per row without headers.
type CompactFormatter struct{}

// Format renders ds as aligned plain lines.
func (f *CompactFormatter) Format(ds *Dataset) (string, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options = table.OptionsNoBordersAndSeparators
	t.Style().Box.PaddingLeft = ""
	t.Style().Box.PaddingRight = "  "
	for _, row := range ds.Rows {
		t.AppendRow(toRow(row))
	}

	lines := strings.Split(t.Render(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n"), nil
}

// CSVFormatter renders a header row and data rows as RFC 4180 CSV. Cells
// holding commas or quotes are quoted, never backslash-escaped.
type CSVFormatter struct{}

// Format renders ds as CSV without a trailing newline.
func (f *CSVFormatter) Format(ds *Dataset) (string, error) {
	if ds == nil {
		return "", nil
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if len(ds.Columns) > 0 {
		if err := w.Write(ds.Columns); err != nil {
			return "", err
		}
	}
	if err := w.WriteAll(ds.Rows); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func newWriter(ds *Dataset) table.Writer {
	t := table.NewWriter()
	if len(ds.Columns) > 0 {
		t.AppendHeader(toRow(ds.Columns))
	}
	for _, row := range ds.Rows {
		t.AppendRow(toRow(row))
	}
	return t
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}
