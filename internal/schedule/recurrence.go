package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
)

var rruleWeekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// WeeklyRule builds the RRULE line for a weekly recurring event bounded by
// the course end date (inclusive), e.g.
// "RRULE:FREQ=WEEKLY;UNTIL=20250601T235959Z;BYDAY=MO,WE".
// dayCodes must already be translated (TranslateDayCodes); an empty string
// returns errs.ErrEmptyDayCodes and the caller must not create an event.
func WeeklyRule(until time.Time, dayCodes string) (string, error) {
	if dayCodes == "" {
		return "", errs.ErrEmptyDayCodes
	}
	days, err := parseByDay(dayCodes)
	if err != nil {
		return "", err
	}
	// End of the final day in UTC so the last scheduled weekday is included.
	bound := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, time.UTC)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Until:     bound,
		Byweekday: days,
	})
	if err != nil {
		return "", fmt.Errorf("recurrence rule: %w", err)
	}
	return "RRULE:" + r.String(), nil
}

func parseByDay(dayCodes string) ([]rrule.Weekday, error) {
	var days []rrule.Weekday
	for _, code := range strings.Split(dayCodes, ",") {
		if code == "" {
			continue
		}
		wd, ok := rruleWeekdays[code]
		if !ok {
			return nil, fmt.Errorf("recurrence rule: unknown weekday code %q", code)
		}
		days = append(days, wd)
	}
	if len(days) == 0 {
		return nil, errs.ErrEmptyDayCodes
	}
	return days, nil
}
