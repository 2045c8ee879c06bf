// =============================================================================
// Clinic Template Migrator - Relational XML Loader
// =============================================================================
//
// The relational dump is one large XML file holding every table of the
// source database as repeated <TABLE>...</TABLE> elements with flat column
// children. Each known table is extracted with a separate streaming pass.
//
// TABLES:
//   Keyed (last record with a given id wins, first position kept):
//     PACIENTE               PAC_ID
//     CITA_PACIENTE_CONSULTA CPA_ID
//     TURNO_CITA             TCO_ID
//     TIPO_CITA              TCI_ID
//     USUARIO                USU_ID
//     USUARIO_DOCTOR         USU_ID
//     TRATAMIENTO            TRA_ID
//     PACIENTE_DATOS_PREVIOS PAC_ID
//   Lists:
//     PACIENTE_BONOS, CITA_PACIENTE
//
// =============================================================================

package dricloud

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
	"github.com/ginjaninja78/clinic-template-migrator/internal/xmlscan"
)

// Tables holds the extracted relational dump.
type Tables struct {
	Patients         *types.Table
	Bonuses          []types.Record
	Appointments     []types.Record
	Consultations    *types.Table
	Shifts           *types.Table
	AppointmentTypes *types.Table
	Users            *types.Table
	Doctors          *types.Table
	Treatments       *types.Table
	PriorData        *types.Table
}

// NewTables returns empty tables.
func NewTables() *Tables {
	return &Tables{
		Patients:         types.NewTable(),
		Consultations:    types.NewTable(),
		Shifts:           types.NewTable(),
		AppointmentTypes: types.NewTable(),
		Users:            types.NewTable(),
		Doctors:          types.NewTable(),
		Treatments:       types.NewTable(),
		PriorData:        types.NewTable(),
	}
}

type tableDef struct {
	tag string

	// key is the primary key column; "" marks a list table.
	key string

	keyed func(*Tables) *types.Table
	list  func(*Tables) *[]types.Record
}

var tableDefs = []tableDef{
	{tag: "PACIENTE", key: "PAC_ID", keyed: func(t *Tables) *types.Table { return t.Patients }},
	{tag: "PACIENTE_BONOS", list: func(t *Tables) *[]types.Record { return &t.Bonuses }},
	{tag: "CITA_PACIENTE", list: func(t *Tables) *[]types.Record { return &t.Appointments }},
	{tag: "CITA_PACIENTE_CONSULTA", key: "CPA_ID", keyed: func(t *Tables) *types.Table { return t.Consultations }},
	{tag: "TURNO_CITA", key: "TCO_ID", keyed: func(t *Tables) *types.Table { return t.Shifts }},
	{tag: "TIPO_CITA", key: "TCI_ID", keyed: func(t *Tables) *types.Table { return t.AppointmentTypes }},
	{tag: "USUARIO", key: "USU_ID", keyed: func(t *Tables) *types.Table { return t.Users }},
	{tag: "USUARIO_DOCTOR", key: "USU_ID", keyed: func(t *Tables) *types.Table { return t.Doctors }},
	{tag: "TRATAMIENTO", key: "TRA_ID", keyed: func(t *Tables) *types.Table { return t.Treatments }},
	{tag: "PACIENTE_DATOS_PREVIOS", key: "PAC_ID", keyed: func(t *Tables) *types.Table { return t.PriorData }},
}

// LoadTables extracts every known table from the dump at path.
//
// RETURNS:
//   - The populated tables. Tables absent from the dump are empty.
//   - An error if the file cannot be opened or read.
func LoadTables(path string, log zerolog.Logger) (*Tables, error) {
	tables := NewTables()

	for _, def := range tableDefs {
		recs, err := extract(path, def.tag)
		if err != nil {
			return nil, err
		}

		if def.list != nil {
			*def.list(tables) = recs
			log.Info().Str("table", def.tag).Int("records", len(recs)).Msg("loaded table")
			continue
		}

		t := def.keyed(tables)
		for _, rec := range recs {
			t.Put(rec.Str(def.key), rec)
		}
		log.Info().Str("table", def.tag).Int("records", t.Len()).Msg("loaded table")
	}

	return tables, nil
}

func extract(path, tag string) ([]types.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XML dump: %w", err)
	}
	defer file.Close()

	recs, err := xmlscan.ExtractRecords(file, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s elements: %w", tag, err)
	}
	return recs, nil
}
