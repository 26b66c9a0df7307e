package record

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeList_PreservesKeyOrder(t *testing.T) {
	records, err := DecodeList(strings.NewReader(`[
		{"zeta": 1, "alpha": "a", "mid": true},
		{"alpha": "b", "zeta": 2}
	]`))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, records[0].Keys())
	assert.Equal(t, []string{"alpha", "zeta"}, records[1].Keys())
}

func TestDecodeList_Kinds(t *testing.T) {
	records, err := DecodeList(strings.NewReader(
		`[{"s":"x","n":1.5,"b":false,"z":null,"o":{"a": [1, 2]}}]`))
	require.NoError(t, err)
	r := records[0]

	tests := []struct {
		field string
		kind  Kind
		text  string
	}{
		{"s", KindText, "x"},
		{"n", KindNumber, "1.5"},
		{"b", KindBool, "false"},
		{"z", KindNull, ""},
		{"o", KindRaw, `{"a":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			v, ok := r.Get(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.String())
		})
	}

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestDecodeList_EmptyAndInvalid(t *testing.T) {
	records, err := DecodeList(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = DecodeList(strings.NewReader(`{"detail":"nope"}`))
	assert.Error(t, err)

	_, err = DecodeList(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
}

func TestRecord_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":2,"a":3}`), &r))

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, _ := r.Get("a")
	assert.Equal(t, "3", v.String())
}

func TestRecord_MarshalRoundTripOrder(t *testing.T) {
	r := New(F("id", 7), F("name", "Ada"), F("active", true), F("note", nil))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"Ada","active":true,"note":null}`, string(data))
	assert.True(t, strings.Index(string(data), `"id"`) < strings.Index(string(data), `"note"`))
}

func TestRecord_ZeroValue(t *testing.T) {
	var r Record
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
	_, ok := r.ID()
	assert.False(t, ok)

	r.Set("id", Number(1))
	id, ok := r.ID()
	require.True(t, ok)
	assert.Equal(t, "1", id.String())
}

func TestRecord_Project(t *testing.T) {
	r := New(F("id", 1), F("name", "Ada"), F("extra", "x"))
	p := r.Project([]string{"name", "id", "missing"})
	assert.Equal(t, []string{"name", "id"}, p.Keys())
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-42, "-42"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{123456789012, "123456789012"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestOf(t *testing.T) {
	assert.Equal(t, KindNull, Of(nil).Kind())
	assert.Equal(t, KindBool, Of(true).Kind())
	assert.Equal(t, KindNumber, Of(3).Kind())
	assert.Equal(t, KindNumber, Of(json.Number("2.5")).Kind())
	assert.Equal(t, KindText, Of("x").Kind())

	raw := Of(map[string]int{"a": 1})
	assert.Equal(t, KindRaw, raw.Kind())
	assert.Equal(t, `{"a":1}`, raw.String())
}

func TestDataset_States(t *testing.T) {
	absent := Absent()
	assert.Equal(t, StateAbsent, absent.State())
	_, ok := absent.First()
	assert.False(t, ok)

	empty := Loaded(nil)
	assert.Equal(t, StateEmpty, empty.State())
	assert.Equal(t, 0, empty.Len())
	assert.NotEqual(t, absent.State(), empty.State())

	full := Loaded([]Record{New(F("id", 1)), New(F("id", 2))})
	assert.Equal(t, StatePopulated, full.State())
	assert.Equal(t, 2, full.Len())
	assert.Equal(t, "populated(2)", full.String())
	first, ok := full.First()
	require.True(t, ok)
	id, _ := first.ID()
	assert.Equal(t, "1", id.String())
}
