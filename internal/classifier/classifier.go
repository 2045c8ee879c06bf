// =============================================================================
// Clinic Template Migrator - Entity Classifier
// =============================================================================
//
// The generic export format carries no schema, so parsed records are sorted
// into patients, bonuses, appointments and clinical history by looking at
// their key names.
//
// Two shapes are handled:
//   1. A document (one JSON object). Each top-level key is matched by
//      substring against a small vocabulary, and its value is coerced to a
//      list. Patients are walked into procesos[].citas[] and
//      procesos[].evoluciones[], which are flattened into the appointment and
//      history buckets with back-references to their owners.
//   2. A flat list of records. Each record is placed by the first rule in
//      listRules whose key set matches. Unmatched records land in history,
//      so nothing is dropped.
//
// CUSTOMIZATION:
//   - Add vocabulary to documentRules or listRules. Order is priority.
//
// =============================================================================

package classifier

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/format"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// =============================================================================
// BUCKETS AND RULES
// =============================================================================

// Bucket identifies one of the four entity collections.
type Bucket int

const (
	Patients Bucket = iota
	Bonuses
	Appointments
	History
)

// String returns the bucket name used in logs.
func (b Bucket) String() string {
	switch b {
	case Patients:
		return "patients"
	case Bonuses:
		return "bonuses"
	case Appointments:
		return "appointments"
	case History:
		return "history"
	}
	return "unknown"
}

// Rule assigns records whose upper-cased key set satisfies Match to Bucket.
type Rule struct {
	Name   string
	Bucket Bucket
	Match  func(keys map[string]bool) bool
}

// hasAny matches when at least one of names is a key.
func hasAny(names ...string) func(map[string]bool) bool {
	return func(keys map[string]bool) bool {
		for _, n := range names {
			if keys[n] {
				return true
			}
		}
		return false
	}
}

// listRules is evaluated top to bottom; the first match wins.
var listRules = []Rule{
	{Name: "patient id", Bucket: Patients, Match: hasAny("PAC_ID", "CLIENTE_ID", "ID_PACIENTE", "PATIENT_ID", "PACIENTE")},
	{Name: "bonus id", Bucket: Bonuses, Match: hasAny("BONO_ID", "BON_ID", "PACK_ID", "ABONO_ID")},
	{Name: "appointment id", Bucket: Appointments, Match: hasAny("CITA_ID", "CIT_ID", "APPOINTMENT_ID", "TURNO_ID")},
	{Name: "history id", Bucket: History, Match: hasAny("HISTORIAL_ID", "HIST_ID", "CONSULTA_ID", "DIAGNOSTICO")},
	{Name: "contact fields", Bucket: Patients, Match: hasAny("NOMBRE", "APELLIDOS", "TELEFONO", "EMAIL")},
	{Name: "date fields", Bucket: Appointments, Match: hasAny("FECHA", "HORA", "DATE", "TIME")},
}

// documentRules match top-level document keys by lower-case substring.
var documentRules = []struct {
	needles []string
	bucket  Bucket
}{
	{[]string{"paciente", "patient", "client"}, Patients},
	{[]string{"bono", "pack"}, Bonuses},
	{[]string{"cita", "appointment"}, Appointments},
	{[]string{"historia", "history", "evolucion", "consulta"}, History},
}

// Back-reference keys attached while flattening nested patient documents.
const (
	KeyPatientID = "PAC_ID"
	KeyPatient   = "PACIENTE"
	KeyProcess   = "PROCESO"
)

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Classify buckets the output of a generic parse. raw may be a JSON object,
// an array of objects or a []types.Record; anything else yields empty
// collections.
func Classify(raw any, log zerolog.Logger) types.Entities {
	var entities types.Entities
	switch v := raw.(type) {
	case []types.Record:
		entities = ClassifyList(v)
	case []any:
		entities = ClassifyList(records(v))
	default:
		if doc, ok := types.AsRecord(raw); ok {
			entities = ClassifyDocument(doc)
		}
	}

	c := entities.Counts()
	log.Info().
		Int("patients", c.Patients).
		Int("bonuses", c.Bonuses).
		Int("appointments", c.Appointments).
		Int("history", c.History).
		Msg("classified records")
	return entities
}

// ClassifyRecord returns the bucket for a single flat record.
func ClassifyRecord(rec types.Record) Bucket {
	keys := make(map[string]bool, len(rec))
	for k := range rec {
		keys[strings.ToUpper(strings.TrimSpace(k))] = true
	}
	for _, rule := range listRules {
		if rule.Match(keys) {
			return rule.Bucket
		}
	}
	return History
}

// ClassifyList buckets flat records independently.
func ClassifyList(recs []types.Record) types.Entities {
	var e types.Entities
	for _, rec := range recs {
		add(&e, ClassifyRecord(rec), rec)
	}
	return e
}

// ClassifyDocument buckets the values of a document's top-level keys.
// Keys are visited in sorted order.
func ClassifyDocument(doc types.Record) types.Entities {
	var e types.Entities
	for _, key := range doc.Keys() {
		bucket, ok := documentBucket(key)
		if !ok {
			continue
		}
		for _, rec := range coerceList(doc[key]) {
			if bucket == Patients {
				addPatientTree(&e, rec)
				continue
			}
			add(&e, bucket, rec)
		}
	}
	return e
}

// =============================================================================
// HELPERS
// =============================================================================

func add(e *types.Entities, b Bucket, rec types.Record) {
	switch b {
	case Patients:
		e.Patients = append(e.Patients, rec)
	case Bonuses:
		e.Bonuses = append(e.Bonuses, rec)
	case Appointments:
		e.Appointments = append(e.Appointments, rec)
	default:
		e.History = append(e.History, rec)
	}
}

func documentBucket(key string) (Bucket, bool) {
	lower := strings.ToLower(key)
	for _, rule := range documentRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.bucket, true
			}
		}
	}
	return 0, false
}

// addPatientTree appends the patient and flattens its processes.
func addPatientTree(e *types.Entities, patient types.Record) {
	e.Patients = append(e.Patients, patient)
	patientID := format.FirstNonEmpty(patient.Str("dni"), patient.Str("id"))

	attach := func(rec types.Record) types.Record {
		if patientID != "" {
			rec[KeyPatientID] = patientID
		}
		rec[KeyPatient] = patient
		return rec
	}

	for _, item := range patient.List("procesos") {
		process, ok := types.AsRecord(item)
		if !ok {
			continue
		}
		for _, c := range process.List("citas") {
			if cita, ok := types.AsRecord(c); ok {
				e.Appointments = append(e.Appointments, attach(cita.Clone()))
			}
		}
		for _, ev := range process.List("evoluciones") {
			evolution, ok := types.AsRecord(ev)
			if ok {
				evolution = evolution.Clone()
			} else {
				evolution = types.Record{"contenido": types.Stringify(ev)}
			}
			evolution = attach(evolution)
			evolution[KeyProcess] = process
			e.History = append(e.History, evolution)
		}
		if process.Has("diagnostico") || process.Has("titulo") || process.Has("evoluciones") {
			e.History = append(e.History, attach(process.Clone()))
		}
	}
}

func coerceList(v any) []types.Record {
	if list, ok := v.([]any); ok {
		return records(list)
	}
	if rec, ok := types.AsRecord(v); ok {
		return []types.Record{rec}
	}
	return nil
}

func records(list []any) []types.Record {
	out := make([]types.Record, 0, len(list))
	for _, item := range list {
		if rec, ok := types.AsRecord(item); ok {
			out = append(out, rec)
		}
	}
	return out
}
