package schedule

import "time"

// nonClassDays holds the academic calendar's holidays and recess days.
// TODO: load this from the academic platform once it exposes the calendar;
// until then the 2025 Chilean calendar is maintained here.
var nonClassDays = buildNonClassDays()

func buildNonClassDays() map[string]struct{} {
	days := []string{
		"2025-01-01", // Año Nuevo
		"2025-04-18", // Viernes Santo
		"2025-04-19", // Sábado Santo
		"2025-05-01", // Día del Trabajo
		"2025-05-21", // Glorias Navales
		"2025-06-29", // San Pedro y San Pablo
		"2025-07-16", // Virgen del Carmen
		"2025-08-15", // Asunción de la Virgen
		"2025-09-18", // Fiestas Patrias
		"2025-09-19", // Fiestas Patrias
		"2025-10-12", // Encuentro de Dos Mundos
		"2025-10-31", // Iglesias Evangélicas y Protestantes
		"2025-11-01", // Todos los Santos
		"2025-12-08", // Inmaculada Concepción
		"2025-12-25", // Navidad
	}
	set := make(map[string]struct{}, len(days)+12)
	for _, d := range days {
		set[d] = struct{}{}
	}
	// Winter recess.
	for d := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC); d.Month() == 7 && d.Day() <= 25; d = d.AddDate(0, 0, 1) {
		set[d.Format("2006-01-02")] = struct{}{}
	}
	return set
}

// IsNonClassDay reports whether the date is a holiday or academic recess day.
func IsNonClassDay(date time.Time) bool {
	_, ok := nonClassDays[date.Format("2006-01-02")]
	return ok
}
