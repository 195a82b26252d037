// Package schedule turns a course's weekly schedule into the pieces a
// recurring calendar event needs: translated weekday codes and an RRULE.
package schedule

import "strings"

// dayCodes maps the academic system's two-letter Spanish weekday
// abbreviations to the RRULE BYDAY vocabulary. The legacy single-letter
// scheme (L,M,W,J,V,S,D) is not supported: "M" is ambiguous between
// Tuesday and Wednesday, so those tokens simply never match.
var dayCodes = map[string]string{
	"LU": "MO",
	"MA": "TU",
	"MI": "WE",
	"JU": "TH",
	"VI": "FR",
	"SA": "SA",
	"DO": "SU",
}

// TranslateDayCodes converts a delimiter-separated day string such as
// "LU, MI" into "MO,WE". Matching is case- and whitespace-insensitive and
// unknown tokens are dropped. An empty result means the caller must not
// build a recurrence.
func TranslateDayCodes(days string) string {
	var out []string
	for _, tok := range strings.Split(days, ",") {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if code, ok := dayCodes[tok]; ok {
			out = append(out, code)
		}
	}
	return strings.Join(out, ",")
}
