// =============================================================================
// Clinic Template Migrator - Destination Templates
// =============================================================================
//
// The destination platform imports five fixed CSV layouts. Column names are
// Spanish business terms and must be written verbatim.
//
// Each template has:
//   - a stable Name, used for output file names and --only selection
//   - the fixed override file name operators may drop in the templates
//     directory to change column order or naming
//   - the built-in header used when no override is present
//
// =============================================================================

package templates

import (
	"fmt"
	"strings"
)

// Name identifies a destination template.
type Name string

const (
	ClientsAndBonuses Name = "clients_and_bonuses"
	Bonuses           Name = "bonuses"
	HistoryBasic      Name = "history_basic"
	HistoryFull       Name = "history_full"
	Appointments      Name = "appointments"
)

// Template describes one destination CSV layout.
type Template struct {
	Name Name

	// LegacyName is the name the destination platform uses for the layout.
	LegacyName string

	// OverrideFile is the header override file name looked up in the
	// templates directory.
	OverrideFile string

	// Fallback is the built-in header.
	Fallback []string
}

// All lists the templates in generation order.
var All = []Template{
	{Name: ClientsAndBonuses, LegacyName: "clientes_y_bonos", OverrideFile: "plantilla_clientes_y_bonos.csv", Fallback: clientsAndBonusesHeaders},
	{Name: Bonuses, LegacyName: "bonos", OverrideFile: "plantilla_bonos.csv", Fallback: bonusesHeaders},
	{Name: HistoryBasic, LegacyName: "historial_basica", OverrideFile: "plantilla_historial_basica.csv", Fallback: historyBasicHeaders},
	{Name: HistoryFull, LegacyName: "historial_completa", OverrideFile: "plantilla_historial_completa.csv", Fallback: historyFullHeaders},
	{Name: Appointments, LegacyName: "citas", OverrideFile: "plantilla-citas.csv", Fallback: appointmentsHeaders},
}

// Lookup finds a template by its name or legacy name, case-insensitively.
func Lookup(name string) (Template, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, t := range All {
		if n == string(t.Name) || n == t.LegacyName {
			return t, true
		}
	}
	return Template{}, false
}

// Select returns the templates named in names, in generation order.
// An empty selection means all templates.
func Select(names []string) ([]Template, error) {
	if len(names) == 0 {
		return All, nil
	}
	wanted := make(map[Name]bool, len(names))
	for _, n := range names {
		t, ok := Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown template %q", n)
		}
		wanted[t.Name] = true
	}
	selected := make([]Template, 0, len(wanted))
	for _, t := range All {
		if wanted[t.Name] {
			selected = append(selected, t)
		}
	}
	return selected, nil
}

// Names returns every accepted template name, for help text.
func Names() []string {
	out := make([]string, 0, len(All))
	for _, t := range All {
		out = append(out, string(t.Name))
	}
	return out
}

// =============================================================================
// BUILT-IN HEADERS
// =============================================================================

var clientsAndBonusesHeaders = []string{
	"Nombre", "Apellidos", "CIF/NIF", "Direccion", "Codigo Postal", "Ciudad", "Provincia",
	"Pais", "Email", "Telefono", "Tipo Cliente", "Fecha Nacimiento", "Genero", "Notas Medicas",
	"Fecha seguimiento", "Tipo seguimiento", "Descripción", "Recomendaciones",
	"Nombre Bono", "Servicio", "Precio", "Sesiones Totales", "Sesiones Consumidas",
	"Fecha Caducidad", "Notas Bono",
}

var bonusesHeaders = []string{
	"Teléfono", "Nombre Cliente", "Nombre Bono", "Servicio", "Sesiones Totales",
	"Sesiones Consumidas", "Precio Total", "Pagado", "Importe Pagado", "Fecha Caducidad",
}

var historyBasicHeaders = []string{
	"Teléfono", "Profesional", "Motivo Consulta", "Tiempo Evolución",
	"Descripción Detallada", "Enfermedades Crónicas", "Alergias Medicamentosas",
	"Medicación Habitual", "Diagnóstico", "Recomendaciones", "Observaciones",
}

var historyFullHeaders = []string{
	"Teléfono Cliente", "Profesional", "Motivo Consulta", "Tiempo Evolución",
	"Descripción Detallada", "Inicio Evolución", "Factores Agravantes", "Factores Atenuantes",
	"Intensidad Síntomas", "Frecuencia Síntomas", "Localización", "Impacto Vida Diaria",
	"Enfermedades Crónicas", "Enfermedades Agudas", "Cirugías Previas", "Alergias Medicamentosas",
	"Alergias Alimentarias", "Alergias Ambientales", "Medicación Habitual", "Hospitalizaciones Previas",
	"Accidentes/Traumatismos", "Enfermedades Hereditarias", "Patologías Padres", "Patologías Hermanos",
	"Patologías Abuelos", "Alimentación", "Actividad Física", "Consumo Tabaco", "Cantidad Tabaco",
	"Tiempo Tabaco", "Consumo Alcohol", "Cantidad Alcohol", "Frecuencia Alcohol", "Otras Sustancias",
	"Calidad Sueño", "Horas Sueño", "Nivel Estrés", "Apetito", "Digestión", "Evacuaciones",
	"Frecuencia Evacuaciones", "Consistencia Evacuaciones", "Cambios Evacuaciones", "Náuseas/Vómitos",
	"Reflujo", "Frecuencia Urinaria", "Dolor al Urinar", "Incontinencia", "Cambios Color Orina",
	"Cambios Olor Orina", "Palpitaciones", "Disnea", "Dolor Torácico", "Tos", "Esputo",
	"Dolor Articular", "Dolor Muscular", "Limitaciones Movimiento", "Debilidad/Fatiga",
	"Mareos/Vértigo", "Pérdida Sensibilidad", "Pérdida Fuerza", "Cefaleas", "Alteraciones Visuales",
	"Alteraciones Auditivas", "Estado Ánimo", "Ansiedad", "Depresión", "Cambios Conducta",
	"Trastornos Sueño", "Sistema Cutáneo", "Sistema Endocrino", "Sistema Hematológico",
	"Tensión Arterial", "Frecuencia Cardíaca", "Frecuencia Respiratoria", "Temperatura",
	"Saturación O2", "Peso", "Talla", "IMC", "Observaciones Clínicas", "Pruebas Complementarias",
	"Diagnóstico", "Medicación Prescrita", "Recomendaciones", "Derivaciones", "Seguimiento",
	"Observaciones Adicionales",
}

var appointmentsHeaders = []string{
	"professional_name", "client_phone", "service_name", "date", "start_time",
	"end_time", "duration", "status", "notes", "modalidad",
}
