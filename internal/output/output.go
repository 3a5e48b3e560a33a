package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable   Format = "table"
	FormatCompact Format = "compact"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
)

// Formats lists the accepted formats in help-text order.
var Formats = []Format{FormatTable, FormatCompact, FormatJSON, FormatCSV}

// Dataset is a display-oriented view of a platform response.
type Dataset struct {
	Title   string
	Columns []string
	Rows    [][]string
	Footer  []string
	// Notes are printed below the table in table format only.
	Notes []string
	// Raw is serialized by the JSON format. When nil the rows are emitted as
	// objects keyed by column name.
	Raw any
}

// AddRow appends a row of cells.
func (d *Dataset) AddRow(cells ...string) {
	d.Rows = append(d.Rows, cells)
}

// Formatter renders datasets.
type Formatter interface {
	Format(ds *Dataset) (string, error)
}

// ParseFormat validates and normalizes a format string. An empty value means
// table.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return FormatTable, nil
	}
	for _, format := range Formats {
		if string(format) == normalized {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s (want %s)", value, FormatNames())
}

// FormatNames returns the accepted formats as a comma-separated list.
func FormatNames() string {
	names := make([]string, len(Formats))
	for i, format := range Formats {
		names[i] = string(format)
	}
	return strings.Join(names, ", ")
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCompact:
		return &CompactFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Render formats ds and writes it to w followed by a newline.
func Render(w io.Writer, format Format, ds *Dataset) error {
	if ds == nil {
		return nil
	}
	rendered, err := NewFormatter(format).Format(ds)
	if err != nil {
		return err
	}
	if rendered == "" {
		return nil
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}

// RenderAll renders several datasets. JSON output combines their payloads into
// one array so the result stays a single document. Table and CSV output put
// one blank line between datasets; each CSV section carries its own header.
func RenderAll(w io.Writer, format Format, datasets ...*Dataset) error {
	if format == FormatJSON && len(datasets) > 1 {
		payloads := make([]any, 0, len(datasets))
		for _, ds := range datasets {
			if ds == nil {
				continue
			}
			payload := ds.Raw
			if payload == nil {
				payload = rowsAsObjects(ds)
			}
			payloads = append(payloads, payload)
		}
		return Render(w, FormatJSON, &Dataset{Raw: payloads})
	}

	for i, ds := range datasets {
		if i > 0 && (format == FormatTable || format == FormatCSV) {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := Render(w, format, ds); err != nil {
			return err
		}
	}
	return nil
}
