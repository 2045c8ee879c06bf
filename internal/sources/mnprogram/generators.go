package mnprogram

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/format"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// Column aliases, lower-case to match the loaded records.
var clientAliases = format.Aliases{
	"name":       {"snombrecli", "nombre"},
	"surname":    {"sapellidoscli", "apellidos", "surname"},
	"tax_id":     {"snifcli", "nif", "dni"},
	"address":    {"sdomiciliocli", "direccion", "domicilio"},
	"postal":     {"scodpostalcli", "codpostal", "cp"},
	"city":       {"spoblacioncli", "poblacion", "ciudad"},
	"province":   {"sprovinciacli", "provincia"},
	"country":    {"snombrepais", "pais"},
	"email":      {"email", "correo"},
	"phone":      {"smovilcli", "stelefonocli", "telefono"},
	"kind":       {"naturjuridica", "tipo"},
	"birth_date": {"fechanacimiento", "fecha_nac"},
	"gender":     {"sexo", "genero"},
	"notes":      {"textoalerta", "notas"},
}

var bonusAliases = format.Aliases{
	"owner":    {"icodcliclientes", "icodcli"},
	"name":     {"descripcion"},
	"sessions": {"unidades"},
	"price":    {"importe"},
	"expiry":   {"fechacaducidad"},
}

var eventAliases = format.Aliases{
	"contact": {"contactid", "contact", "icodcli"},
}

const defaultCountry = "España"

// Dataset is one loaded CSV folder.
type Dataset struct {
	f *Folder
}

// Load reads the CSV folder at dir.
func Load(dir string, encodings []string, log zerolog.Logger) (*Dataset, error) {
	f, err := LoadFolder(dir, encodings, log)
	if err != nil {
		return nil, err
	}
	return NewDataset(f), nil
}

// NewDataset wraps already loaded tables.
func NewDataset(f *Folder) *Dataset {
	return &Dataset{f: f}
}

// Counts returns the entity collection sizes.
func (d *Dataset) Counts() types.Counts {
	return types.Counts{
		Patients:     d.f.Clients.Len(),
		Bonuses:      len(d.f.Bonuses),
		Appointments: len(d.f.Events),
		History:      len(d.f.Diagnoses),
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
		return d.historyBasic()
	case templates.HistoryFull:
		return d.historyFull()
	case templates.Appointments:
		return d.appointments()
	}
	return nil
}

func phone(c types.Record) string {
	return clientAliases.Resolve(c, "phone")
}

// =============================================================================
// CLIENTS AND BONUSES
// =============================================================================

func (d *Dataset) clientsAndBonuses() []types.Row {
	firstBonus := make(map[string]types.Record)
	for _, b := range d.f.Bonuses {
		id := strings.TrimSpace(bonusAliases.Resolve(b, "owner"))
		if _, seen := firstBonus[id]; id != "" && !seen {
			firstBonus[id] = b
		}
	}

	clients := d.f.Clients.Values()
	rows := make([]types.Row, 0, len(clients))
	for _, c := range clients {
		b := firstBonus[strings.TrimSpace(c.Str(d.f.ClientKey))]

		rows = append(rows, types.Row{
			"Nombre":           strings.TrimSpace(clientAliases.Resolve(c, "name")),
			"Apellidos":        strings.TrimSpace(clientAliases.Resolve(c, "surname")),
			"CIF/NIF":          clientAliases.Resolve(c, "tax_id"),
			"Direccion":        clientAliases.Resolve(c, "address"),
			"Codigo Postal":    clientAliases.Resolve(c, "postal"),
			"Ciudad":           clientAliases.Resolve(c, "city"),
			"Provincia":        clientAliases.Resolve(c, "province"),
			"Pais":             format.FirstNonEmpty(clientAliases.Resolve(c, "country"), defaultCountry),
			"Email":            clientAliases.Resolve(c, "email"),
			"Telefono":         phone(c),
			"Tipo Cliente":     clientAliases.Resolve(c, "kind"),
			"Fecha Nacimiento": format.FormatDate(clientAliases.Resolve(c, "birth_date")),
			"Genero":           clientAliases.Resolve(c, "gender"),
			"Notas Medicas":    clientAliases.Resolve(c, "notes"),
			"Nombre Bono":      bonusAliases.Resolve(b, "name"),
			"Precio":           bonusAliases.Resolve(b, "price"),
			"Sesiones Totales": bonusAliases.Resolve(b, "sessions"),
			"Fecha Caducidad":  format.FormatDate(bonusAliases.Resolve(b, "expiry")),
		})
	}
	return rows
}

func (d *Dataset) bonuses() []types.Row {
	rows := make([]types.Row, 0, len(d.f.Bonuses))
	for _, b := range d.f.Bonuses {
		c := d.f.Clients.Get(bonusAliases.Resolve(b, "owner"))

		rows = append(rows, types.Row{
			"Teléfono":         phone(c),
			"Nombre Cliente":   clientAliases.FullName(c, "name", "surname"),
			"Nombre Bono":      bonusAliases.Resolve(b, "name"),
			"Sesiones Totales": bonusAliases.Resolve(b, "sessions"),
			"Precio Total":     bonusAliases.Resolve(b, "price"),
			"Fecha Caducidad":  format.FormatDate(bonusAliases.Resolve(b, "expiry")),
		})
	}
	return rows
}

// =============================================================================
// HISTORY
// =============================================================================

// diagnosisDate keeps the date part of a "date time" value.
func diagnosisDate(s string) string {
	if len(s) >= 10 {
		s, _, _ = strings.Cut(s, " ")
	}
	return format.FormatDate(s)
}

func joinPresent(parts ...[2]string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p[1]) != "" {
			out = append(out, p[0]+": "+p[1])
		}
	}
	return strings.Join(out, " | ")
}

func (d *Dataset) historyBasic() []types.Row {
	rows := make([]types.Row, 0, len(d.f.Diagnoses))
	for _, dg := range d.f.Diagnoses {
		c := d.f.Clients.Get(dg.Str("icodcli"))
		diagnosis := dg.Str("diagnostico")

		rows = append(rows, types.Row{
			"Teléfono":              phone(c),
			"Descripción Detallada": diagnosis,
			"Diagnóstico":           diagnosis,
			"Observaciones":         "Tipo: " + dg.Str("tipo") + " | Fecha: " + diagnosisDate(dg.Str("dfecha")),
		})
	}
	return rows
}

func (d *Dataset) historyFull() []types.Row {
	rows := make([]types.Row, 0, len(d.f.Diagnoses))
	for _, dg := range d.f.Diagnoses {
		c := d.f.Clients.Get(dg.Str("icodcli"))
		diagnosis := dg.Str("diagnostico")

		rows = append(rows, types.Row{
			"Teléfono Cliente":      phone(c),
			"Diagnóstico":           diagnosis,
			"Descripción Detallada": diagnosis,
			"Observaciones Clínicas": joinPresent(
				[2]string{"Tipo", dg.Str("tipo")},
				[2]string{"Principal", dg.Str("principal")},
				[2]string{"CIE-9", dg.Str("codigocie9")},
			),
			"Observaciones Adicionales": "Fecha: " + diagnosisDate(dg.Str("dfecha")) + " | Estado: " + dg.Str("estado"),
		})
	}
	return rows
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

// eventClient finds the client of an event, directly or through its
// attendee record.
func (d *Dataset) eventClient(ev types.Record) types.Record {
	id := eventAliases.Resolve(ev, "contact")
	if strings.TrimSpace(id) == "" {
		item := d.f.EventItems.Get(ev.Str("eventid"))
		id = format.FirstOf(item, "contactid", "icodcli")
	}
	return d.f.Clients.Get(id)
}

func eventStatus(ev types.Record) format.Status {
	if strings.TrimSpace(ev.Str("done")) == "True" {
		return format.StatusConfirmed
	}
	return format.NormalizeStatus(ev.Str("status"))
}

func (d *Dataset) appointments() []types.Row {
	rows := make([]types.Row, 0, len(d.f.Events))
	for _, ev := range d.f.Events {
		c := d.eventClient(ev)

		date, start := ev.Str("startdate"), ev.Str("starttime")
		if stamp := ev.Str("startdatetime"); strings.TrimSpace(stamp) != "" && strings.TrimSpace(date) == "" {
			if day, clock, ok := strings.Cut(strings.TrimSpace(stamp), " "); ok {
				date = day
				if strings.TrimSpace(start) == "" {
					start = clock
					if len(start) > 8 {
						start = start[:8]
					}
				}
			}
		}

		professional := ""
		if res := strings.TrimSpace(ev.Str("resourceid")); res != "" {
			professional = "Prof_" + res
		}

		rows = append(rows, types.Row{
			"professional_name": professional,
			"client_name":       clientAliases.FullName(c, "name", "surname"),
			"client_phone":      phone(c),
			"service_name":      ev.Str("subject"),
			"date":              format.FormatDate(date),
			"start_time":        start,
			"end_time":          ev.Str("endtime"),
			"duration":          ev.Str("durationminutes"),
			"status":            string(eventStatus(ev)),
			"notes":             ev.Str("notes"),
			"modalidad":         format.Modality(ev.Str("location")),
		})
	}
	return rows
}
