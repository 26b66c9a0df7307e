package table

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/dataload/internal/record"
)

// Format selects an output encoding for Render.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats, for flag completion and validation.
var Formats = []Format{FormatTable, FormatCSV, FormatMarkdown, FormatHTML, FormatJSON}

// ParseFormat resolves a format name. "md" is accepted for markdown and an
// empty name means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case "md":
		return FormatMarkdown, nil
	case FormatTable, FormatCSV, FormatMarkdown, FormatHTML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of table, csv, markdown, html, json)", s)
	}
}

// Default column widths, in terminal cells.
const (
	DefaultMinWidth = 12
	DefaultMaxWidth = 25
)

// Ellipsis marks truncated cell text.
const Ellipsis = "…"

// Options controls Render.
type Options struct {
	Format   Format
	MinWidth int // 0 means no minimum
	MaxWidth int // 0 means no truncation
	// Footer prints a "(N rows)" line after text tables.
	Footer bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Format:   FormatTable,
		MinWidth: DefaultMinWidth,
		MaxWidth: DefaultMaxWidth,
		Footer:   true,
	}
}

// Truncate shortens s to at most width cells, ending it with an ellipsis when
// anything was cut. A width below one disables truncation.
func Truncate(s string, width int) string {
	if width < 1 || text.RuneWidthWithoutEscSequences(s) <= width {
		return s
	}
	return text.Snip(s, width, Ellipsis)
}

// Render writes v to w in the format selected by opts.
func Render(w io.Writer, v View, opts Options) error {
	if opts.Format == FormatJSON {
		return renderJSON(w, v)
	}
	if v.Empty {
		_, err := fmt.Fprintln(w, v.Placeholder)
		return err
	}

	t := newWriter(v, opts)
	switch opts.Format {
	case FormatCSV:
		_, err := fmt.Fprintln(w, t.RenderCSV())
		return err
	case FormatMarkdown:
		_, err := fmt.Fprintln(w, t.RenderMarkdown())
		return err
	case FormatHTML:
		_, err := fmt.Fprintln(w, t.RenderHTML())
		return err
	default:
		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
		if opts.Footer {
			_, err := fmt.Fprintf(w, "(%d rows)\n", len(v.Rows))
			return err
		}
		return nil
	}
}

func newWriter(v View, opts Options) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	// Headers are already derived; keep them as they are.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(v.Headers))
	for i, h := range v.Headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range v.Rows {
		row := make(table.Row, len(r.Cells))
		for i, c := range r.Cells {
			row[i] = c.Text
		}
		t.AppendRow(row)
	}

	// Width limits only make sense for the terminal table; exported formats
	// carry full values.
	if opts.Format == FormatTable || opts.Format == "" {
		configs := make([]table.ColumnConfig, len(v.Headers))
		for i := range v.Headers {
			configs[i] = table.ColumnConfig{
				Number:           i + 1,
				WidthMin:         opts.MinWidth,
				WidthMax:         opts.MaxWidth,
				WidthMaxEnforcer: Truncate,
			}
		}
		t.SetColumnConfigs(configs)
	}
	return t
}

// renderJSON writes the rows as an array of objects restricted to the view's
// columns, in column order, keeping the original value types. Empty views
// encode as [].
func renderJSON(w io.Writer, v View) error {
	out := make([]record.Record, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Record.Project(v.Columns))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
