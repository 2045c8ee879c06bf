// =============================================================================
// Clinic Template Migrator - Shared Types
// =============================================================================
//
// This file defines the intermediate entity model shared by every source
// reader and template generator. Records are held fully in memory for the
// lifetime of a single input and discarded once its outputs are written.
//
// =============================================================================

package types

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one raw source record. Values are strings for tabular sources,
// and any JSON value (string, json.Number, bool, nested object or array)
// for the generic reader.
type Record map[string]any

// FromStrings wraps a tabular row as a Record.
func FromStrings(row map[string]string) Record {
	rec := make(Record, len(row))
	for k, v := range row {
		rec[k] = v
	}
	return rec
}

// Str returns the scalar value stored under key in its string form.
// Missing keys, nulls and nested structures yield "".
func (r Record) Str(key string) string {
	return Stringify(r[key])
}

// Ref returns the nested record stored under key, or nil.
func (r Record) Ref(key string) Record {
	switch v := r[key].(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	}
	return nil
}

// List returns the array stored under key, or nil when the value is not one.
func (r Record) List(key string) []any {
	if v, ok := r[key].([]any); ok {
		return v
	}
	return nil
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool {
	switch v := r[key].(type) {
	case nil:
		return false
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case Record:
		return len(v) > 0
	}
	return strings.TrimSpace(r.Str(key)) != ""
}

// Keys returns the record's keys sorted, which keeps every key scan
// deterministic.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r)+3)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AsRecord converts a decoded JSON value into a Record when it is an object.
func AsRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	}
	return nil, false
}

// Stringify renders a scalar value the way it appeared in the source.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// =============================================================================
// OUTPUT ROW
// =============================================================================

// Row is one generated output row keyed by output column name. Columns the
// generator did not set are written as empty strings.
type Row map[string]string

// =============================================================================
// ENTITIES
// =============================================================================

// Entities holds the four classified collections for one input.
type Entities struct {
	Patients     []Record
	Bonuses      []Record
	Appointments []Record
	History      []Record
}

// Counts summarises the size of each entity collection.
type Counts struct {
	Patients     int
	Bonuses      int
	Appointments int
	History      int
}

// Counts returns the collection sizes.
func (e Entities) Counts() Counts {
	return Counts{
		Patients:     len(e.Patients),
		Bonuses:      len(e.Bonuses),
		Appointments: len(e.Appointments),
		History:      len(e.History),
	}
}

// Empty reports whether every collection is empty.
func (c Counts) Empty() bool {
	return c.Patients+c.Bonuses+c.Appointments+c.History == 0
}

// =============================================================================
// ID-KEYED TABLE
// =============================================================================

// Table is an identifier-keyed record index. A repeated identifier replaces
// the earlier record but keeps its original position in iteration order.
type Table struct {
	order []string
	byID  map[string]Record
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byID: make(map[string]Record)}
}

// Put stores rec under id. Identifiers are trimmed and empty ones ignored.
func (t *Table) Put(id string, rec Record) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if _, ok := t.byID[id]; !ok {
		t.order = append(t.order, id)
	}
	t.byID[id] = rec
}

// Get returns the record for id, or nil.
func (t *Table) Get(id string) Record {
	id = strings.TrimSpace(id)
	if t == nil || id == "" {
		return nil
	}
	return t.byID[id]
}

// Len returns the number of distinct identifiers.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Values returns the records in first-insertion order.
func (t *Table) Values() []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// Index builds a table from records keyed by the first non-empty value
// among keys.
func Index(records []Record, keys ...string) *Table {
	t := NewTable()
	for _, rec := range records {
		for _, k := range keys {
			if id := rec.Str(k); strings.TrimSpace(id) != "" {
				t.Put(id, rec)
				break
			}
		}
	}
	return t
}
