// Package record defines the data rows returned by integration sources.
//
// A Record is an ordered, schema-less mapping from field name to Value. Field
// order is the order in which the source produced the keys; it drives the
// column order of every rendered table, so it is preserved through decoding
// and encoding.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IDField is the field used as the row key.
const IDField = "id"

// Record is one data row. The zero Record is empty and ready to use.
type Record struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// Field is a key/value pair used to build records in order.
type Field struct {
	Name  string
	Value Value
}

// F builds a Field from a Go value.
func F(name string, v any) Field {
	return Field{Name: name, Value: Of(v)}
}

// New builds a record from fields in the given order.
// A repeated name replaces the earlier value and keeps its position.
func New(fields ...Field) Record {
	r := Record{fields: orderedmap.New[string, Value](len(fields))}
	for _, f := range fields {
		r.fields.Set(f.Name, f.Value)
	}
	return r
}

// Len returns the number of fields.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	if r.fields == nil {
		return keys
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Get returns the value of field and whether the record has it.
func (r Record) Get(field string) (Value, bool) {
	if r.fields == nil {
		return Value{}, false
	}
	return r.fields.Get(field)
}

// Has reports whether the record carries field.
func (r Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// ID returns the row key.
func (r Record) ID() (Value, bool) {
	return r.Get(IDField)
}

// Set stores v under field. New fields go last; existing fields keep their
// position.
func (r *Record) Set(field string, v Value) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, Value]()
	}
	r.fields.Set(field, v)
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order. A JSON null decodes
// to an empty record.
func (r *Record) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	m := orderedmap.New[string, Value]()
	if !bytes.Equal(data, []byte("null")) {
		if len(data) == 0 || data[0] != '{' {
			return fmt.Errorf("record: expected JSON object, got %.20q", data)
		}
		if err := m.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("record: %w", err)
		}
	}
	r.fields = m
	return nil
}

// Project returns a copy of r holding only the named fields, in the given
// order. Fields r does not carry are omitted.
func (r Record) Project(fields []string) Record {
	out := Record{fields: orderedmap.New[string, Value](len(fields))}
	for _, f := range fields {
		if v, ok := r.Get(f); ok {
			out.fields.Set(f, v)
		}
	}
	return out
}

// DecodeList decodes a JSON array of objects.
func DecodeList(r io.Reader) ([]Record, error) {
	var out []Record
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}
