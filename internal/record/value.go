package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	// KindRaw holds a nested object or array as compact JSON text.
	KindRaw
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single field value of a Record.
// The zero Value is null.
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a number value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Raw returns a value holding nested JSON. The text is compacted when valid.
func Raw(js string) Value {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(js)); err == nil {
		js = buf.String()
	}
	return Value{kind: KindRaw, text: js}
}

// Of converts a Go value into a Value. Unsupported types become Raw via
// their JSON encoding, or Text via fmt when they cannot be encoded.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return Text(x)
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Text(x.String())
		}
		return Number(f)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Text(fmt.Sprintf("%v", v))
	}
	var out Value
	if err := out.UnmarshalJSON(data); err != nil {
		return Text(fmt.Sprintf("%v", v))
	}
	return out
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsText returns the text payload and whether v is text.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// String returns the default textual form of v. Null is the empty string,
// booleans are "true"/"false", numbers follow the JavaScript number-to-string
// rules so that output matches what the integration backend's web client shows.
func (v Value) String() string {
	switch v.kind {
	case KindText, KindRaw:
		return v.text
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText, KindRaw:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindRaw:
		if json.Valid([]byte(v.text)) {
			return []byte(v.text), nil
		}
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("record: empty JSON value")
	}
	switch c := data[0]; {
	case c == 'n':
		*v = Null()
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case c == '{' || c == '[':
		*v = Raw(string(data))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("record: invalid number %q: %w", data, err)
		}
		*v = Number(f)
	}
	return nil
}

// FormatNumber renders f the way JavaScript's Number.prototype.toString does:
// plain decimal notation between 1e-6 and 1e21, exponent notation outside it.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
