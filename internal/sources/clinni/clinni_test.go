package clinni

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

func writeInput(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func load(t *testing.T, name, content string) *Dataset {
	t.Helper()
	ds, err := Load(writeInput(t, name, []byte(content)), zerolog.Nop())
	require.NoError(t, err)
	return ds
}

func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		name string
		path string
		head []byte
		want Format
	}{
		{name: "gzip magic wins over extension", path: "export.json", head: []byte{0x1f, 0x8b, 0x08}, want: FormatGzip},
		{name: "json", path: "a.JSON", head: []byte("{"), want: FormatJSON},
		{name: "csv", path: "a.csv", want: FormatCSV},
		{name: "xml", path: "a.xml", want: FormatXML},
		{name: "unknown", path: "a.dat", want: FormatText},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFormat(tc.path, tc.head))
		})
	}
}

func TestSinglePatientDocument(t *testing.T) {
	ds := load(t, "export.json", `{"pacientes":[{"dni":"111","nombre":"Ana","movil":"600111222"}]}`)
	assert.Equal(t, types.Counts{Patients: 1}, ds.Counts())

	rows := ds.Generate(templates.ClientsAndBonuses)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0]["Nombre"])
	assert.Equal(t, "600111222", rows[0]["Telefono"])
	assert.Equal(t, "111", rows[0]["CIF/NIF"])
	assert.Equal(t, "España", rows[0]["Pais"])
	assert.Equal(t, "", rows[0]["Nombre Bono"])

	assert.Empty(t, ds.Generate(templates.Bonuses))
	assert.Empty(t, ds.Generate(templates.Appointments))
}

func TestNestedProcessesFeedHistoryAndAppointments(t *testing.T) {
	ds := load(t, "export.json", `{
		"pacientes": [{
			"dni": "111", "nombre": "Ana", "apellidos": "Ruiz", "movil": "600111222", "antecedentes": "asma",
			"procesos": [{
				"titulo": "<b>Dolor</b> lumbar",
				"diagnostico": "Lumbalgia",
				"evoluciones": ["<p>mejora</p>"],
				"citas": [{"fecha": "2024-03-07T00:00:00", "inicio": "2024-03-07T10:00:00", "fin": "2024-03-07T10:45:00", "ESTADO": "Realizada"}]
			}]
		}]
	}`)

	appts := ds.Generate(templates.Appointments)
	require.Len(t, appts, 1)
	assert.Equal(t, "Ana Ruiz", appts[0]["client_name"])
	assert.Equal(t, "600111222", appts[0]["client_phone"])
	assert.Equal(t, "07/03/2024", appts[0]["date"])
	assert.Equal(t, "10:00:00", appts[0]["start_time"])
	assert.Equal(t, "10:45:00", appts[0]["end_time"])
	assert.Equal(t, "45", appts[0]["duration"])
	assert.Equal(t, "confirmed", appts[0]["status"])
	assert.Equal(t, "presencial", appts[0]["modalidad"])

	basic := ds.Generate(templates.HistoryBasic)
	require.Len(t, basic, 2)
	for _, row := range basic {
		assert.Equal(t, "600111222", row["Teléfono"])
		assert.Equal(t, "Dolor lumbar", row["Motivo Consulta"])
		assert.Equal(t, "Lumbalgia", row["Diagnóstico"])
		assert.Equal(t, "asma", row["Enfermedades Crónicas"])
	}
	assert.Equal(t, "mejora", basic[0]["Descripción Detallada"])

	assert.Len(t, ds.Generate(templates.HistoryFull), 2)
}

func TestBonusJoin(t *testing.T) {
	ds := load(t, "export.csv", "PAC_ID;NOMBRE;TELEFONO\n7;Luis;600\n")
	require.Equal(t, 1, ds.Counts().Patients)

	ds = NewDataset(types.Entities{
		Patients: []types.Record{{"PAC_ID": "7", "NOMBRE": "Luis", "APELLIDOS": "Gil", "TELEFONO": "600"}},
		Bonuses: []types.Record{
			{"BONO_ID": "1", "CLIENTE_ID": "7", "NOMBRE": "Pack 10", "PRECIO": "100", "SESIONES": "10", "FECHA_CADUCIDAD": "2025-01-31"},
			{"BONO_ID": "2", "CLIENTE_ID": "7", "NOMBRE": "Pack 5"},
		},
	})

	combined := ds.Generate(templates.ClientsAndBonuses)
	require.Len(t, combined, 1)
	assert.Equal(t, "Pack 10", combined[0]["Nombre Bono"])
	assert.Equal(t, "31/01/2025", combined[0]["Fecha Caducidad"])

	bonuses := ds.Generate(templates.Bonuses)
	require.Len(t, bonuses, 2)
	assert.Equal(t, "Luis Gil", bonuses[0]["Nombre Cliente"])
	assert.Equal(t, "600", bonuses[0]["Teléfono"])
	assert.Equal(t, "100", bonuses[0]["Precio Total"])
}

func TestUnresolvedAppointmentStillEmitsRow(t *testing.T) {
	ds := NewDataset(types.Entities{
		Appointments: []types.Record{{"CITA_ID": "1", "PAC_ID": "999", "FECHA": "2024-05-02", "HORA": "09:30", "SERVICIO": "Fisio"}},
	})

	rows := ds.Generate(templates.Appointments)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0]["client_name"])
	assert.Equal(t, "", rows[0]["client_phone"])
	assert.Equal(t, "02/05/2024", rows[0]["date"])
	assert.Equal(t, "09:30", rows[0]["start_time"])
	assert.Equal(t, "Fisio", rows[0]["service_name"])
	assert.Equal(t, "pending", rows[0]["status"])
}

func TestHistoryBasicSkipsEmptyEntries(t *testing.T) {
	ds := NewDataset(types.Entities{
		History: []types.Record{{"PROFESIONAL": "Dra. Sol"}, {"DIAGNOSTICO": "x"}},
	})
	assert.Len(t, ds.Generate(templates.HistoryBasic), 1)
	assert.Len(t, ds.Generate(templates.HistoryFull), 2)
}

func TestReadGzipJSON(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`[{"PAC_ID":"1","NOMBRE":"Eva"},{"CITA_ID":"2","PAC_ID":"1"}]`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ds, err := Load(writeInput(t, "export.bin", buf.Bytes()), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Counts().Patients)
}

func TestReadFallbacks(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
		want    types.Counts
	}{
		{name: "semicolon csv", file: "a.csv", content: "PAC_ID;NOMBRE\n1;Ana\n2;Luis\n", want: types.Counts{Patients: 2}},
		{name: "json per line", file: "a.txt", content: "{\"BONO_ID\":\"1\"}\n{\"CITA_ID\":\"2\"}\n", want: types.Counts{Bonuses: 1, Appointments: 1}},
		{name: "key value pairs", file: "a.txt", content: "NOMBRE=Ana\nruido\nDIAGNOSTICO=x\n", want: types.Counts{Patients: 1, History: 1}},
		{name: "broken json", file: "a.json", content: "{\"PAC_ID\": ", want: types.Counts{}},
		{name: "empty", file: "a.txt", content: "   ", want: types.Counts{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, load(t, tc.file, tc.content).Counts())
		})
	}
}

func TestReadSingleColumnCSV(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("NOMBRE\nAna\nLuis\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	testCases := []struct {
		name    string
		file    string
		content []byte
	}{
		{name: "plain csv", file: "pacientes.csv", content: []byte("NOMBRE\nAna\nLuis\n")},
		{name: "gzipped csv", file: "pacientes.csv.gz", content: buf.Bytes()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := Load(writeInput(t, tc.file, tc.content), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, types.Counts{Patients: 2}, ds.Counts())

			rows := ds.Generate(templates.ClientsAndBonuses)
			require.Len(t, rows, 2)
			assert.Equal(t, "Ana", rows[0]["Nombre"])
			assert.Equal(t, "Luis", rows[1]["Nombre"])
		})
	}

	// Without a .csv name a single column is not taken for CSV.
	assert.Equal(t, types.Counts{}, load(t, "pacientes.txt", "NOMBRE\nAna\n").Counts())
}

func TestReadXML(t *testing.T) {
	content := `<?xml version="1.0"?><root>
		<CLIENTE><PAC_ID>1</PAC_ID><NOMBRE>Ana &amp; Co</NOMBRE></CLIENTE>
		<CLIENTE><PAC_ID>2</PAC_ID><NOMBRE><![CDATA[Luis]]></NOMBRE></CLIENTE>
	</root>`
	ds := load(t, "dump.xml", content)
	rows := ds.Generate(templates.ClientsAndBonuses)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana & Co", rows[0]["Nombre"])
	assert.Equal(t, "Luis", rows[1]["Nombre"])
}

func TestReadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.json"), zerolog.Nop())
	assert.Error(t, err)
}
