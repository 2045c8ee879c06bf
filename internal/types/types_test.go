package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "Ana", want: "Ana"},
		{name: "json number", in: json.Number("0600111222"), want: "0600111222"},
		{name: "float", in: 45.5, want: "45.5"},
		{name: "whole float", in: float64(100), want: "100"},
		{name: "int", in: 7, want: "7"},
		{name: "bool", in: true, want: "true"},
		{name: "nested", in: map[string]any{"a": "b"}, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Stringify(tc.in))
		})
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"nombre":   "Ana",
		"blank":    "  ",
		"procesos": []any{map[string]any{"titulo": "Lumbalgia"}},
		"empty":    []any{},
		"PACIENTE": map[string]any{"dni": "1"},
	}

	assert.Equal(t, "Ana", rec.Str("nombre"))
	assert.Equal(t, "", rec.Str("missing"))
	assert.True(t, rec.Has("nombre"))
	assert.False(t, rec.Has("blank"))
	assert.True(t, rec.Has("procesos"))
	assert.False(t, rec.Has("empty"))
	assert.Len(t, rec.List("procesos"), 1)
	assert.Nil(t, rec.List("nombre"))
	assert.Equal(t, "1", rec.Ref("PACIENTE").Str("dni"))
	assert.Nil(t, rec.Ref("nombre"))
	assert.Equal(t, []string{"PACIENTE", "blank", "empty", "nombre", "procesos"}, rec.Keys())

	clone := rec.Clone()
	clone["nombre"] = "Eva"
	assert.Equal(t, "Ana", rec.Str("nombre"))

	var nilRec Record
	assert.Equal(t, "", nilRec.Str("x"))
}

func TestTableKeepsFirstPositionLastValue(t *testing.T) {
	table := NewTable()
	table.Put("1", Record{"v": "first"})
	table.Put(" 2 ", Record{"v": "two"})
	table.Put("1", Record{"v": "second"})
	table.Put("  ", Record{"v": "ignored"})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "second", table.Get("1").Str("v"))
	assert.Equal(t, "two", table.Get("2").Str("v"))
	assert.Nil(t, table.Get("3"))

	values := table.Values()
	assert.Equal(t, "second", values[0].Str("v"))
	assert.Equal(t, "two", values[1].Str("v"))

	var nilTable *Table
	assert.Nil(t, nilTable.Get("1"))
	assert.Equal(t, 0, nilTable.Len())
	assert.Nil(t, nilTable.Values())
}

func TestIndex(t *testing.T) {
	records := []Record{
		{"dni": "111", "nombre": "Ana"},
		{"id": "7", "nombre": "Luis"},
		{"nombre": "sin id"},
	}

	table := Index(records, "dni", "id")
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "Ana", table.Get("111").Str("nombre"))
	assert.Equal(t, "Luis", table.Get("7").Str("nombre"))
}

func TestCounts(t *testing.T) {
	e := Entities{Patients: []Record{{}}, History: []Record{{}, {}}}
	assert.Equal(t, Counts{Patients: 1, History: 2}, e.Counts())
	assert.False(t, e.Counts().Empty())
	assert.True(t, Counts{}.Empty())
}
