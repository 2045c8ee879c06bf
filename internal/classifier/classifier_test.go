package classifier

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestClassifyRecordPriority(t *testing.T) {
	testCases := []struct {
		name string
		rec  types.Record
		want Bucket
	}{
		{name: "patient id beats everything", rec: types.Record{"pac_id": "1", "CITA_ID": "9", "FECHA": "x"}, want: Patients},
		{name: "bonus id", rec: types.Record{"BONO_ID": "3", "NOMBRE": "Pack 10"}, want: Bonuses},
		{name: "appointment id before history", rec: types.Record{"CITA_ID": "3", "DIAGNOSTICO": "x"}, want: Appointments},
		{name: "diagnosis key", rec: types.Record{"Diagnostico": "lumbalgia"}, want: History},
		{name: "contact fields", rec: types.Record{"nombre": "Ana", "email": "a@b.es"}, want: Patients},
		{name: "date fields", rec: types.Record{"fecha": "2024-01-01", "hora": "10:00"}, want: Appointments},
		{name: "nothing recognisable", rec: types.Record{"texto": "libre"}, want: History},
		{name: "empty record", rec: types.Record{}, want: History},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyRecord(tc.rec))
		})
	}
}

func TestClassifyListNeverDrops(t *testing.T) {
	recs := []types.Record{
		{"PAC_ID": "1"},
		{"BON_ID": "2"},
		{"TURNO_ID": "3"},
		{"misc": "4"},
	}
	e := ClassifyList(recs)
	c := e.Counts()
	assert.Equal(t, types.Counts{Patients: 1, Bonuses: 1, Appointments: 1, History: 1}, c)
}

func TestClassifyDocumentFlattensProcesses(t *testing.T) {
	raw := decode(t, `{
		"pacientes": [{
			"dni": "111",
			"nombre": "Ana",
			"procesos": [{
				"titulo": "Lumbalgia",
				"diagnostico": "Contractura",
				"citas": [{"fecha": "2024-03-07T10:00:00"}],
				"evoluciones": ["Mejora notable", {"DESCRIPCION": "Sesion 2"}]
			}]
		}],
		"bonos": {"NOMBRE": "Pack 5", "dni": "111"},
		"metadata": {"version": 2}
	}`)

	e := Classify(raw, zerolog.Nop())

	require.Len(t, e.Patients, 1)
	require.Len(t, e.Bonuses, 1)
	require.Len(t, e.Appointments, 1)
	require.Len(t, e.History, 3)

	cita := e.Appointments[0]
	assert.Equal(t, "111", cita.Str(KeyPatientID))
	assert.Equal(t, "Ana", cita.Ref(KeyPatient).Str("nombre"))

	first := e.History[0]
	assert.Equal(t, "Mejora notable", first.Str("contenido"))
	assert.Equal(t, "Lumbalgia", first.Ref(KeyProcess).Str("titulo"))
	assert.Equal(t, "Sesion 2", e.History[1].Str("DESCRIPCION"))

	process := e.History[2]
	assert.Equal(t, "Contractura", process.Str("diagnostico"))
	assert.Equal(t, "111", process.Str(KeyPatientID))
}

func TestClassifyDocumentDoesNotMutateSource(t *testing.T) {
	raw := decode(t, `{"patients": [{"id": "7", "procesos": [{"citas": [{"hora": "10:00"}]}]}]}`)
	e := ClassifyDocument(types.Record(raw.(map[string]any)))

	require.Len(t, e.Appointments, 1)
	patient := e.Patients[0]
	original, ok := types.AsRecord(patient.List("procesos")[0])
	require.True(t, ok)
	cita, ok := types.AsRecord(original.List("citas")[0])
	require.True(t, ok)
	assert.NotContains(t, cita, KeyPatientID)
}

func TestClassifyUnknownShape(t *testing.T) {
	e := Classify("just a string", zerolog.Nop())
	assert.True(t, e.Counts().Empty())

	e = Classify(decode(t, `[1, "two", {"PATIENT_ID": "3"}]`), zerolog.Nop())
	assert.Equal(t, 1, e.Counts().Patients)
}
