// Package table turns a schema-less dataset into a tabular view.
//
// The column schema is never stored: every call to Build derives it from the
// first record of the dataset. Later records are read through that schema, so
// fields they lack render blank and fields the first record lacks never show.
package table

import (
	"strings"

	"github.com/leapstack-labs/dataload/internal/record"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder is shown instead of a table when there is nothing to display.
const Placeholder = "No data to display."

// View is the rendered form of a dataset.
type View struct {
	Empty       bool
	Placeholder string
	Columns     []string // field names, in schema order
	Headers     []string // display headers, parallel to Columns
	Rows        []Row
}

// Row is one rendered record.
type Row struct {
	Key    string // text of the record's id, empty when missing
	Cells  []Cell
	Record record.Record
}

// Cell is one rendered value. Title is the inspection text shown on hover or
// selection; it is computed exactly like Text.
type Cell struct {
	Text  string
	Title string
}

// Columns returns the display schema for a dataset whose first record is
// first: its field names in insertion order.
func Columns(first record.Record) []string {
	return first.Keys()
}

// Header returns the display header for a field name. Only the first
// underscore becomes a space; the result is upper-cased with full Unicode
// case mapping.
func Header(field string) string {
	// A Caser holds transform state, so one is built per call.
	return cases.Upper(language.Und).String(strings.Replace(field, "_", " ", 1))
}

// CellText returns the display text of field on r. Missing fields and nulls
// are blank.
func CellText(r record.Record, field string) string {
	v, ok := r.Get(field)
	if !ok {
		return ""
	}
	return v.String()
}

// Build renders ds. Absent and empty datasets produce the placeholder view.
func Build(ds record.Dataset) View {
	first, ok := ds.First()
	if !ok {
		return View{Empty: true, Placeholder: Placeholder}
	}

	cols := Columns(first)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = Header(c)
	}

	rows := make([]Row, 0, ds.Len())
	for _, r := range ds.Records() {
		cells := make([]Cell, len(cols))
		for i, c := range cols {
			text := CellText(r, c)
			cells[i] = Cell{Text: text, Title: text}
		}
		rows = append(rows, Row{Key: CellText(r, record.IDField), Cells: cells, Record: r})
	}

	return View{Columns: cols, Headers: headers, Rows: rows}
}

// Texts returns the cell texts of row i.
func (v View) Texts(i int) []string {
	if i < 0 || i >= len(v.Rows) {
		return nil
	}
	out := make([]string, len(v.Rows[i].Cells))
	for j, c := range v.Rows[i].Cells {
		out[j] = c.Text
	}
	return out
}
