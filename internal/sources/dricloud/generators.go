package dricloud

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/format"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// Dataset is one loaded relational dump.
type Dataset struct {
	t *Tables

	// appointmentsByConsultation indexes CITA_PACIENTE by CPA_ID.
	appointmentsByConsultation *types.Table
}

// Load reads the dump at path.
func Load(path string, log zerolog.Logger) (*Dataset, error) {
	tables, err := LoadTables(path, log)
	if err != nil {
		return nil, err
	}
	return NewDataset(tables), nil
}

// NewDataset wraps already loaded tables.
func NewDataset(t *Tables) *Dataset {
	return &Dataset{t: t, appointmentsByConsultation: types.Index(t.Appointments, "CPA_ID")}
}

// Counts returns the entity collection sizes.
func (d *Dataset) Counts() types.Counts {
	return types.Counts{
		Patients:     d.t.Patients.Len(),
		Bonuses:      len(d.t.Bonuses),
		Appointments: len(d.t.Appointments),
		History:      d.t.Consultations.Len(),
	}
}

// Generate builds the rows of one template.
func (d *Dataset) Generate(name templates.Name) []types.Row {
	switch name {
	case templates.ClientsAndBonuses:
		return d.clientsAndBonuses()
	case templates.Bonuses:
		return d.bonuses()
	case templates.HistoryBasic:
		return d.history(basicHistoryRow)
	case templates.HistoryFull:
		return d.history(fullHistoryRow)
	case templates.Appointments:
		return d.appointments()
	}
	return nil
}

// =============================================================================
// PATIENTS AND BONUSES
// =============================================================================

func fullName(p types.Record) string {
	return strings.TrimSpace(p.Str("PAC_NOMBRE") + " " + p.Str("PAC_APELLIDOS"))
}

func gender(sexID string) string {
	switch strings.TrimSpace(sexID) {
	case "1":
		return "male"
	case "2":
		return "female"
	}
	return ""
}

// consumedSessions prefers the explicit use counter, then any column that
// looks like one, then total minus remaining.
func consumedSessions(b types.Record) string {
	if v := b.Str("PAC_BON_USOS"); strings.TrimSpace(v) != "" {
		return v
	}
	keys := b.Keys()
	for _, k := range keys {
		upper := strings.ToUpper(k)
		if strings.Contains(upper, "CONSUMID") || strings.Contains(upper, "USOS") {
			if v := b.Str(k); strings.TrimSpace(v) != "" {
				return v
			}
		}
	}

	total, ok := wholeNumber(b.Str("PAC_BON_NUM_SESIONES"))
	if !ok {
		return ""
	}
	for _, k := range keys {
		upper := strings.ToUpper(k)
		if !strings.Contains(upper, "SIN_CONSUMIR") && !strings.Contains(upper, "RESTANTES") && !strings.Contains(upper, "DISPONIBLES") {
			continue
		}
		if left, ok := wholeNumber(b.Str(k)); ok {
			return strconv.Itoa(total - left)
		}
	}
	return ""
}

func wholeNumber(s string) (int, bool) {
	v, ok := format.FloorInt(s)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func (d *Dataset) clientsAndBonuses() []types.Row {
	firstBonus := make(map[string]types.Record)
	for _, b := range d.t.Bonuses {
		id := strings.TrimSpace(b.Str("PAC_ID"))
		if _, seen := firstBonus[id]; id != "" && !seen {
			firstBonus[id] = b
		}
	}

	patients := d.t.Patients.Values()
	rows := make([]types.Row, 0, len(patients))
	for _, p := range patients {
		b := firstBonus[strings.TrimSpace(p.Str("PAC_ID"))]
		row := types.Row{
			"Nombre":           p.Str("PAC_NOMBRE"),
			"Apellidos":        p.Str("PAC_APELLIDOS"),
			"CIF/NIF":          p.Str("PAC_NIF"),
			"Direccion":        p.Str("PAC_DIRECCION"),
			"Codigo Postal":    p.Str("PAC_COD_POSTAL"),
			"Ciudad":           p.Str("PAC_POBLACION"),
			"Provincia":        p.Str("PAC_PROVINCIA"),
			"Pais":             p.Str("PAC_PAIS"),
			"Email":            p.Str("PAC_EMAIL"),
			"Telefono":         p.Str("PAC_TELEFONO1"),
			"Fecha Nacimiento": format.FormatDate(p.Str("PAC_FECHA_NACIMIENTO")),
			"Genero":           gender(p.Str("SEX_ID")),
			"Notas Medicas":    p.Str("PAC_ANOTACIONES"),
		}
		if b != nil {
			row["Nombre Bono"] = b.Str("PAC_BON_CABECERA")
			row["Precio"] = b.Str("PAC_BON_PRECIO")
			row["Sesiones Totales"] = b.Str("PAC_BON_NUM_SESIONES")
			row["Sesiones Consumidas"] = consumedSessions(b)
			row["Fecha Caducidad"] = format.FormatDate(b.Str("PAC_BON_FECHA_VENCIMIENTO"))
			row["Notas Bono"] = b.Str("PAC_BON_CONDICIONES")
		}
		rows = append(rows, row)
	}
	return rows
}

func (d *Dataset) bonuses() []types.Row {
	rows := make([]types.Row, 0, len(d.t.Bonuses))
	for _, b := range d.t.Bonuses {
		p := d.t.Patients.Get(b.Str("PAC_ID"))

		price := b.Str("PAC_BON_PRECIO")
		if floored, ok := format.FloorInt(price); ok {
			price = floored
		}
		paid, paidAmount := "", ""
		if format.IsAffirmative(b.Str("PAC_BON_PAGADO")) {
			paid, paidAmount = "Sí", price
		}

		rows = append(rows, types.Row{
			"Teléfono":            p.Str("PAC_TELEFONO1"),
			"Nombre Cliente":      fullName(p),
			"Nombre Bono":         b.Str("PAC_BON_CABECERA"),
			"Sesiones Totales":    b.Str("PAC_BON_NUM_SESIONES"),
			"Sesiones Consumidas": consumedSessions(b),
			"Precio Total":        price,
			"Pagado":              paid,
			"Importe Pagado":      paidAmount,
			"Fecha Caducidad":     format.FormatDate(b.Str("PAC_BON_FECHA_VENCIMIENTO")),
		})
	}
	return rows
}

// =============================================================================
// HISTORY
// =============================================================================

// consultation is one CITA_PACIENTE_CONSULTA entry with its joins resolved.
type consultation struct {
	phone        string
	professional string
	diagnosis    string
	notes        string
	prior        priorData
}

// priorData is what PACIENTE_DATOS_PREVIOS holds about a patient.
type priorData struct {
	chronic     string
	allergies   string
	medications string
}

var priorDataRules = []struct {
	needles []string
	set     func(*priorData, string)
}{
	{[]string{"ANTECEDENTE", "ENFERMEDAD"}, func(p *priorData, v string) { p.chronic = v }},
	{[]string{"ALERG"}, func(p *priorData, v string) { p.allergies = v }},
	{[]string{"MEDICACION", "MEDICAMENTO"}, func(p *priorData, v string) { p.medications = v }},
}

// readPriorData scans column names by substring; the first non-empty
// column of each kind wins.
func readPriorData(rec types.Record) priorData {
	var out priorData
	filled := make([]bool, len(priorDataRules))
	for _, k := range rec.Keys() {
		v := strings.TrimSpace(rec.Str(k))
		if v == "" {
			continue
		}
		upper := strings.ToUpper(k)
		for i, rule := range priorDataRules {
			if filled[i] {
				continue
			}
			for _, needle := range rule.needles {
				if strings.Contains(upper, needle) {
					rule.set(&out, v)
					filled[i] = true
					break
				}
			}
		}
	}
	return out
}

func basicHistoryRow(c consultation) types.Row {
	return types.Row{
		"Teléfono":                c.phone,
		"Profesional":             c.professional,
		"Descripción Detallada":   c.diagnosis,
		"Enfermedades Crónicas":   c.prior.chronic,
		"Alergias Medicamentosas": c.prior.allergies,
		"Medicación Habitual":     c.prior.medications,
		"Diagnóstico":             c.diagnosis,
		"Observaciones":           c.notes,
	}
}

func fullHistoryRow(c consultation) types.Row {
	return types.Row{
		"Teléfono Cliente":          c.phone,
		"Profesional":               c.professional,
		"Descripción Detallada":     c.diagnosis,
		"Enfermedades Crónicas":     c.prior.chronic,
		"Alergias Medicamentosas":   c.prior.allergies,
		"Medicación Habitual":       c.prior.medications,
		"Diagnóstico":               c.diagnosis,
		"Observaciones Adicionales": c.notes,
	}
}

// history emits one row per consultation. The owning patient is reached
// through the appointment that carries the same CPA_ID.
func (d *Dataset) history(toRow func(consultation) types.Row) []types.Row {
	consultations := d.t.Consultations.Values()
	rows := make([]types.Row, 0, len(consultations))
	for _, c := range consultations {
		appt := d.appointmentsByConsultation.Get(c.Str("CPA_ID"))
		patientID := appt.Str("PAC_ID")

		rows = append(rows, toRow(consultation{
			phone:        d.t.Patients.Get(patientID).Str("PAC_TELEFONO1"),
			professional: d.professional(appt),
			diagnosis:    c.Str("CPA_DIAGNOSTICO"),
			notes:        c.Str("CPA_NOTAS_ODONTOGRAMA"),
			prior:        readPriorData(d.t.PriorData.Get(patientID)),
		}))
	}
	return rows
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

// professional names the staff member of an appointment: the user behind
// its shift, or the user on the appointment itself.
func (d *Dataset) professional(appt types.Record) string {
	if appt == nil {
		return ""
	}
	userID := format.FirstNonEmpty(d.t.Shifts.Get(appt.Str("TCO_ID")).Str("USU_ID"), appt.Str("USU_ID"))
	user := d.t.Users.Get(userID)
	if user == nil {
		user = d.t.Doctors.Get(userID)
	}
	name := strings.TrimSpace(user.Str("USU_NOMBRE") + " " + user.Str("USU_APELLIDOS"))
	return format.FirstNonEmpty(name, user.Str("USU_USUARIO"))
}

func (d *Dataset) service(appt types.Record) string {
	if name := d.t.AppointmentTypes.Get(appt.Str("TCI_ID")).Str("TCI_NOMBRE"); strings.TrimSpace(name) != "" {
		return name
	}
	treatment := d.t.Treatments.Get(appt.Str("TRA_ID"))
	return format.FirstOf(treatment, "TRA_NOMBRE", "TRA_DESCRIPCION")
}

func (d *Dataset) appointments() []types.Row {
	rows := make([]types.Row, 0, len(d.t.Appointments))
	for _, a := range d.t.Appointments {
		p := d.t.Patients.Get(a.Str("PAC_ID"))

		startedAt := a.Str("CPA_FECHA_INICIO")
		start := format.FormatTime(startedAt)
		minutes := strings.TrimSpace(a.Str("CPA_MINUTOS_CITA"))
		end := ""
		if start != "" && minutes != "" {
			end = format.AddMinutes(start, minutes)
		}

		rows = append(rows, types.Row{
			"professional_name": d.professional(a),
			"client_name":       fullName(p),
			"client_phone":      p.Str("PAC_TELEFONO1"),
			"service_name":      d.service(a),
			"date":              format.FormatDate(startedAt),
			"start_time":        start,
			"end_time":          end,
			"duration":          minutes,
			"status":            string(format.NormalizeStatus(a.Str("CPA_ESTADO"))),
			"notes":             a.Str("CPA_OBSERVACIONES"),
			"modalidad":         "presencial",
		})
	}
	return rows
}
