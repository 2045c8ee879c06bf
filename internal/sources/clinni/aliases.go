package clinni

import "github.com/ginjaninja78/clinic-template-migrator/internal/format"

// Canonical fields resolved from generic records. Each alias list is
// tried in order and the first non-blank value wins.
const (
	fPatientID   = "patient_id"
	fOwnerID     = "owner_id"
	fName        = "name"
	fSurname     = "surname"
	fPhone       = "phone"
	fTaxID       = "tax_id"
	fAddress     = "address"
	fPostalCode  = "postal_code"
	fCity        = "city"
	fProvince    = "province"
	fCountry     = "country"
	fEmail       = "email"
	fBirthDate   = "birth_date"
	fGender      = "gender"
	fMedicalNote = "medical_notes"
	fChronic     = "chronic"

	fBonusName     = "bonus_name"
	fBonusPrice    = "bonus_price"
	fBonusSessions = "bonus_sessions"
	fBonusUsed     = "bonus_used"
	fBonusExpiry   = "bonus_expiry"
	fBonusNotes    = "bonus_notes"

	fDiagnosis       = "diagnosis"
	fReason          = "reason"
	fDescription     = "description"
	fObservations    = "observations"
	fProfessional    = "professional"
	fRecommendations = "recommendations"

	fDate     = "date"
	fStart    = "start"
	fEnd      = "end"
	fDuration = "duration"
	fStatus   = "status"
	fService  = "service"
	fNotes    = "notes"
	fLocation = "location"
)

const defaultCountry = "España"

var patientAliases = format.Aliases{
	fPatientID:   {"dni", "id", "PAC_ID", "CLIENTE_ID", "ID", "ID_PACIENTE", "PATIENT_ID"},
	fName:        {"nombre", "NOMBRE", "PAC_NOMBRE", "NAME", "NOMBRE_CLIENTE", "CLIENTE_NOMBRE"},
	fSurname:     {"apellidos", "APELLIDOS", "PAC_APELLIDOS", "SURNAME", "APELLIDO", "LAST_NAME"},
	fPhone:       {"movil", "TELEFONO", "PAC_TELEFONO1", "PHONE", "TEL", "TELEFONO1", "MOVIL"},
	fTaxID:       {"dni", "NIF", "DNI", "CIF", "ID_FISCAL"},
	fAddress:     {"direccionFacturacion", "DIRECCION", "DIR", "ADDRESS"},
	fPostalCode:  {"cp", "CP", "COD_POSTAL", "POSTAL_CODE"},
	fCity:        {"localidad", "CIUDAD", "POBLACION", "CITY"},
	fProvince:    {"provincia", "PROVINCIA", "PROV", "PROVINCE"},
	fCountry:     {"pais", "PAIS", "COUNTRY"},
	fEmail:       {"email", "EMAIL", "E_MAIL", "CORREO"},
	fBirthDate:   {"fechaNacimiento", "FECHA_NACIMIENTO", "FECHA_NAC", "BIRTH_DATE"},
	fGender:      {"sexo", "GENERO", "SEXO", "GENDER"},
	fMedicalNote: {"comentario", "antecedentes", "NOTAS", "OBSERVACIONES", "NOTES"},
	fChronic:     {"antecedentes", "ANTECEDENTES"},
}

var bonusAliases = format.Aliases{
	fOwnerID:       {"dni", "PAC_ID", "CLIENTE_ID", "ID_PACIENTE", "PATIENT_ID", "PACIENTE_ID", "CLIENTE"},
	fBonusName:     {"NOMBRE", "DESCRIPCION", "NOMBRE_BONO"},
	fBonusPrice:    {"PRECIO", "IMPORTE", "PRICE"},
	fBonusSessions: {"SESIONES", "NUM_SESIONES", "SESIONES_TOTALES"},
	fBonusUsed:     {"SESIONES_CONSUMIDAS", "USADAS", "USOS"},
	fBonusExpiry:   {"FECHA_CADUCIDAD", "FECHA_VENC", "EXPIRES"},
	fBonusNotes:    {"NOTAS", "OBSERVACIONES", "CONDICIONES"},
}

var historyAliases = format.Aliases{
	fOwnerID:         {"PAC_ID", "dni", "CLIENTE_ID", "ID_PACIENTE", "PATIENT_ID", "CLIENTE"},
	fDiagnosis:       {"diagnostico", "DIAGNOSTICO", "DIAG"},
	fReason:          {"titulo", "MOTIVO", "MOTIVO_CONSULTA"},
	fDescription:     {"DESCRIPCION", "DETALLES", "contenido"},
	fObservations:    {"OBSERVACIONES", "NOTAS", "OBS"},
	fProfessional:    {"PROFESIONAL", "DOCTOR", "MEDICO"},
	fRecommendations: {"RECOMENDACIONES", "RECOMENDACION"},
}

var appointmentAliases = format.Aliases{
	fOwnerID:      {"PAC_ID", "CLIENTE_ID", "ID_PACIENTE", "PATIENT_ID", "CLIENTE"},
	fDate:         {"fecha", "FECHA", "DATE", "FECHA_CITA"},
	fStart:        {"inicio", "HORA", "TIME", "HORA_CITA"},
	fEnd:          {"fin", "HORA_FIN", "END_TIME"},
	fDuration:     {"DURACION", "DURATION", "MINUTOS"},
	fStatus:       {"ESTADO", "STATUS", "ESTADO_CITA"},
	fProfessional: {"PROFESIONAL", "DOCTOR", "MEDICO"},
	fService:      {"SERVICIO", "TIPO_CITA", "TRATAMIENTO"},
	fNotes:        {"NOTAS", "OBSERVACIONES", "NOTES"},
	fLocation:     {"MODALIDAD", "LOCATION", "UBICACION"},
}
