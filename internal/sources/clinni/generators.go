// =============================================================================
// Clinic Template Migrator - Generic Export Generators
// =============================================================================
//
// Maps classified generic entities onto the five destination templates.
// Joins go through the patient identifier: bonuses, history entries and
// appointments carry an owner identifier, or a PACIENTE back-reference
// attached while flattening nested documents. An owner that matches no
// loaded patient still yields a row, with the patient columns empty.
//
// =============================================================================

package clinni

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/classifier"
	"github.com/ginjaninja78/clinic-template-migrator/internal/format"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// Dataset is one classified generic export.
type Dataset struct {
	entities types.Entities
	patients *types.Table
}

// Load reads and classifies the file at path.
func Load(path string, log zerolog.Logger) (*Dataset, error) {
	raw, err := Read(path, log)
	if err != nil {
		return nil, err
	}
	return NewDataset(classifier.Classify(raw, log)), nil
}

// NewDataset indexes already classified entities.
func NewDataset(entities types.Entities) *Dataset {
	return &Dataset{
		entities: entities,
		patients: types.Index(entities.Patients, patientAliases.Keys(fPatientID)...),
	}
}

// Counts returns the entity collection sizes.
func (d *Dataset) Counts() types.Counts {
	return d.entities.Counts()
}

// Generate builds the rows of one template.
func (d *Dataset) Generate(name templates.Name) []types.Row {
	switch name {
	case templates.ClientsAndBonuses:
		return d.clientsAndBonuses()
	case templates.Bonuses:
		return d.bonuses()
	case templates.HistoryBasic:
		return d.historyBasic()
	case templates.HistoryFull:
		return d.historyFull()
	case templates.Appointments:
		return d.appointments()
	}
	return nil
}

// owner resolves the patient a record belongs to, or nil.
func (d *Dataset) owner(rec types.Record, aliases format.Aliases) types.Record {
	ref := rec.Ref(classifier.KeyPatient)
	id := aliases.Resolve(rec, fOwnerID)
	if strings.TrimSpace(id) == "" && ref != nil {
		id = format.FirstNonEmpty(ref.Str("dni"), ref.Str("id"))
	}
	if p := d.patients.Get(id); p != nil {
		return p
	}
	return ref
}

// =============================================================================
// CLIENTS AND BONUSES
// =============================================================================

// clientsAndBonuses emits one row per patient, carrying the first bonus
// owned by that patient.
func (d *Dataset) clientsAndBonuses() []types.Row {
	firstBonus := make(map[string]types.Record)
	for _, bonus := range d.entities.Bonuses {
		id := strings.TrimSpace(bonusAliases.Resolve(bonus, fOwnerID))
		if _, seen := firstBonus[id]; id != "" && !seen {
			firstBonus[id] = bonus
		}
	}

	rows := make([]types.Row, 0, len(d.entities.Patients))
	for _, p := range d.entities.Patients {
		bonus := firstBonus[strings.TrimSpace(patientAliases.Resolve(p, fPatientID))]

		rows = append(rows, types.Row{
			"Nombre":              patientAliases.Resolve(p, fName),
			"Apellidos":           patientAliases.Resolve(p, fSurname),
			"CIF/NIF":             patientAliases.Resolve(p, fTaxID),
			"Direccion":           patientAliases.Resolve(p, fAddress),
			"Codigo Postal":       patientAliases.Resolve(p, fPostalCode),
			"Ciudad":              patientAliases.Resolve(p, fCity),
			"Provincia":           patientAliases.Resolve(p, fProvince),
			"Pais":                format.FirstNonEmpty(patientAliases.Resolve(p, fCountry), defaultCountry),
			"Email":               patientAliases.Resolve(p, fEmail),
			"Telefono":            patientAliases.Resolve(p, fPhone),
			"Fecha Nacimiento":    format.FormatDate(patientAliases.Resolve(p, fBirthDate)),
			"Genero":              patientAliases.Resolve(p, fGender),
			"Notas Medicas":       patientAliases.Resolve(p, fMedicalNote),
			"Nombre Bono":         bonusAliases.Resolve(bonus, fBonusName),
			"Precio":              bonusAliases.Resolve(bonus, fBonusPrice),
			"Sesiones Totales":    bonusAliases.Resolve(bonus, fBonusSessions),
			"Sesiones Consumidas": bonusAliases.Resolve(bonus, fBonusUsed),
			"Fecha Caducidad":     format.FormatDate(bonusAliases.Resolve(bonus, fBonusExpiry)),
			"Notas Bono":          bonusAliases.Resolve(bonus, fBonusNotes),
		})
	}
	return rows
}

// =============================================================================
// BONUSES
// =============================================================================

func (d *Dataset) bonuses() []types.Row {
	rows := make([]types.Row, 0, len(d.entities.Bonuses))
	for _, bonus := range d.entities.Bonuses {
		p := d.owner(bonus, bonusAliases)

		rows = append(rows, types.Row{
			"Teléfono":            patientAliases.Resolve(p, fPhone),
			"Nombre Cliente":      patientAliases.FullName(p, fName, fSurname),
			"Nombre Bono":         bonusAliases.Resolve(bonus, fBonusName),
			"Sesiones Totales":    bonusAliases.Resolve(bonus, fBonusSessions),
			"Sesiones Consumidas": bonusAliases.Resolve(bonus, fBonusUsed),
			"Precio Total":        bonusAliases.Resolve(bonus, fBonusPrice),
			"Fecha Caducidad":     format.FormatDate(bonusAliases.Resolve(bonus, fBonusExpiry)),
		})
	}
	return rows
}

// =============================================================================
// HISTORY
// =============================================================================

// historyFields are the clinical values shared by both history layouts.
type historyFields struct {
	phone        string
	professional string
	reason       string
	description  string
	diagnosis    string
	observations string
	chronic      string
	advice       string
}

func (d *Dataset) historyEntry(h types.Record) historyFields {
	p := d.owner(h, historyAliases)
	process := h.Ref(classifier.KeyProcess)

	return historyFields{
		phone:        patientAliases.Resolve(p, fPhone),
		professional: historyAliases.Resolve(h, fProfessional),
		reason:       format.StripHTML(format.FirstNonEmpty(process.Str("titulo"), historyAliases.Resolve(h, fReason))),
		description:  format.StripHTML(historyAliases.Resolve(h, fDescription)),
		diagnosis:    format.StripHTML(format.FirstNonEmpty(process.Str("diagnostico"), historyAliases.Resolve(h, fDiagnosis))),
		observations: format.StripHTML(historyAliases.Resolve(h, fObservations)),
		chronic:      patientAliases.Resolve(p, fChronic),
		advice:       historyAliases.Resolve(h, fRecommendations),
	}
}

// historyBasic skips entries with no phone and no clinical text.
func (d *Dataset) historyBasic() []types.Row {
	var rows []types.Row
	for _, h := range d.entities.History {
		f := d.historyEntry(h)
		if f.phone == "" && f.diagnosis == "" && f.description == "" && f.reason == "" && f.observations == "" {
			continue
		}
		rows = append(rows, types.Row{
			"Teléfono":              f.phone,
			"Profesional":           f.professional,
			"Motivo Consulta":       f.reason,
			"Descripción Detallada": f.description,
			"Enfermedades Crónicas": f.chronic,
			"Diagnóstico":           f.diagnosis,
			"Recomendaciones":       f.advice,
			"Observaciones":         f.observations,
		})
	}
	return rows
}

func (d *Dataset) historyFull() []types.Row {
	rows := make([]types.Row, 0, len(d.entities.History))
	for _, h := range d.entities.History {
		f := d.historyEntry(h)
		rows = append(rows, types.Row{
			"Teléfono Cliente":          f.phone,
			"Profesional":               f.professional,
			"Motivo Consulta":           f.reason,
			"Diagnóstico":               f.diagnosis,
			"Descripción Detallada":     f.description,
			"Enfermedades Crónicas":     f.chronic,
			"Recomendaciones":           f.advice,
			"Observaciones Adicionales": f.observations,
		})
	}
	return rows
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

func (d *Dataset) appointments() []types.Row {
	rows := make([]types.Row, 0, len(d.entities.Appointments))
	for _, a := range d.entities.Appointments {
		p := d.owner(a, appointmentAliases)

		start := format.FormatTimeOrRaw(appointmentAliases.Resolve(a, fStart))
		end := format.FormatTimeOrRaw(appointmentAliases.Resolve(a, fEnd))
		duration := format.FirstNonEmpty(format.DurationMinutes(start, end), appointmentAliases.Resolve(a, fDuration))

		rows = append(rows, types.Row{
			"professional_name": appointmentAliases.Resolve(a, fProfessional),
			"client_name":       patientAliases.FullName(p, fName, fSurname),
			"client_phone":      patientAliases.Resolve(p, fPhone),
			"service_name":      appointmentAliases.Resolve(a, fService),
			"date":              format.FormatDate(appointmentAliases.Resolve(a, fDate)),
			"start_time":        start,
			"end_time":          end,
			"duration":          duration,
			"status":            string(format.NormalizeStatus(appointmentAliases.Resolve(a, fStatus))),
			"notes":             appointmentAliases.Resolve(a, fNotes),
			"modalidad":         format.Modality(appointmentAliases.Resolve(a, fLocation)),
		})
	}
	return rows
}
