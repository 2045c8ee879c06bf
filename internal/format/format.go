// =============================================================================
// Clinic Template Migrator - Field Formatter Library
// =============================================================================
//
// Value-level helpers shared by every template generator: first-non-empty
// resolution, date and time reformatting, HTML stripping, duration
// derivation and appointment status normalization.
//
// None of these functions validate strictly. Values they do not recognise
// are passed through or dropped as documented on each function, so a sparse
// or oddly formatted source never aborts a run.
//
// =============================================================================

package format

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// FIRST NON-EMPTY
// =============================================================================

// FirstNonEmpty returns the first candidate that is not blank after
// trimming. The candidate is returned as given. It returns "" when every
// candidate is blank.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// =============================================================================
// DATES AND TIMES
// =============================================================================

var (
	isoDatePattern  = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	isoTimePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T(\d{2}):(\d{2}):(\d{2})`)
	clockPattern    = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// FormatDate rewrites the first YYYY-MM-DD found in s as DD/MM/YYYY.
//
// EXAMPLES:
//
//	"2024-03-07"          -> "07/03/2024"
//	"2024-03-07T10:00:00" -> "07/03/2024"
//	"07/03/2024"          -> "07/03/2024" (passed through)
//	""                    -> ""
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	m := isoDatePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[3] + "/" + m[2] + "/" + m[1]
}

// FormatTime extracts HH:MM from an ISO datetime (YYYY-MM-DDTHH:MM:SS) and
// returns it as HH:MM:00. Anything else yields "".
func FormatTime(s string) string {
	m := isoTimePattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1] + ":" + m[2] + ":00"
}

// FormatTimeOrRaw is FormatTime falling back to the raw value.
func FormatTimeOrRaw(s string) string {
	if t := FormatTime(s); t != "" {
		return t
	}
	return s
}

// clockSeconds parses the first H:MM[:SS] found in s.
func clockSeconds(s string) (int, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if h > 23 || mm > 59 || sec > 59 {
		return 0, false
	}
	return h*3600 + mm*60 + sec, true
}

// DurationMinutes returns the whole minutes between two clock values as a
// string. Either value may be a bare HH:MM[:SS] or a datetime containing
// one. Unparseable input or an end before the start yields "".
func DurationMinutes(start, end string) string {
	s, ok := clockSeconds(start)
	if !ok {
		return ""
	}
	e, ok := clockSeconds(end)
	if !ok || e < s {
		return ""
	}
	return strconv.Itoa((e - s) / 60)
}

// AddMinutes returns start shifted by minutes as HH:MM:00, wrapping at
// midnight. It returns "" when either value cannot be parsed.
func AddMinutes(start, minutes string) string {
	s, ok := clockSeconds(start)
	if !ok {
		return ""
	}
	n, err := strconv.Atoi(strings.TrimSpace(minutes))
	if err != nil || n < 0 {
		return ""
	}
	total := (s/60 + n) % (24 * 60)
	return twoDigits(total/60) + ":" + twoDigits(total%60) + ":00"
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// =============================================================================
// FREE TEXT
// =============================================================================

// StripHTML removes tags and collapses whitespace runs to single spaces.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	s = htmlTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " "))
}

// FloorInt parses a decimal amount and returns its floor as an integer
// string. A comma decimal separator is accepted. ok is false when s is not
// a number.
func FloorInt(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatInt(int64(math.Floor(f)), 10), true
}

// IsAffirmative reports whether a flag value means yes.
func IsAffirmative(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "S", "SÍ", "SI", "YES", "TRUE":
		return true
	}
	return false
}

// =============================================================================
// APPOINTMENT STATUS AND MODALITY
// =============================================================================

// Status is the destination's appointment state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// statusRules is evaluated in order; the first rule with a matching
// substring wins.
var statusRules = []struct {
	needles []string
	status  Status
}{
	{[]string{"confirm", "realizad"}, StatusConfirmed},
	{[]string{"cancel", "anulad"}, StatusCancelled},
	{[]string{"done", "complet"}, StatusConfirmed},
	{[]string{"pending", "pendiente"}, StatusPending},
}

// NormalizeStatus maps free-text status to pending, confirmed or cancelled.
// Unknown and empty values are pending.
func NormalizeStatus(s string) Status {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return StatusPending
	}
	for _, rule := range statusRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.status
			}
		}
	}
	return StatusPending
}

// Modality returns "online" when the location names a remote channel and
// "presencial" otherwise.
func Modality(location string) string {
	lower := strings.ToLower(location)
	for _, needle := range []string{"online", "virtual", "tele"} {
		if strings.Contains(lower, needle) {
			return "online"
		}
	}
	return "presencial"
}
