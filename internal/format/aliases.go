package format

import "strings"

// Getter is anything that exposes string values by field name.
// types.Record satisfies it, including a nil record.
type Getter interface {
	Str(key string) string
}

// FirstOf returns the first non-blank value among keys in rec.
func FirstOf(rec Getter, keys ...string) string {
	for _, k := range keys {
		if v := rec.Str(k); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Aliases maps a canonical field to the ordered source field names that
// may carry it.
type Aliases map[string][]string

// Resolve returns the first non-blank alias value of field in rec. Fields
// absent from the table resolve to "".
func (a Aliases) Resolve(rec Getter, field string) string {
	return FirstOf(rec, a[field]...)
}

// Keys returns the ordered alias list for field.
func (a Aliases) Keys(field string) []string {
	return a[field]
}

// FullName joins the resolved name and surname, trimmed.
func (a Aliases) FullName(rec Getter, nameField, surnameField string) string {
	return strings.TrimSpace(a.Resolve(rec, nameField) + " " + a.Resolve(rec, surnameField))
}
