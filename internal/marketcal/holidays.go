package marketcal

import "time"

// Full-session US equity market holidays, keyed by local calendar date.
// The table is static and must be extended once per year; a year with no
// entries behaves as holiday-free rather than permanently closed.
// TODO: add the 2027 table when NYSE publishes it.
var marketHolidays = map[string]string{
	// 2024
	"2024-01-01": "New Year's Day",
	"2024-01-15": "Martin Luther King, Jr. Day",
	"2024-02-19": "Washington's Birthday",
	"2024-03-29": "Good Friday",
	"2024-05-27": "Memorial Day",
	"2024-06-19": "Juneteenth",
	"2024-07-04": "Independence Day",
	"2024-09-02": "Labor Day",
	"2024-11-28": "Thanksgiving Day",
	"2024-12-25": "Christmas Day",

	// 2025
	"2025-01-01": "New Year's Day",
	"2025-01-20": "Martin Luther King, Jr. Day",
	"2025-02-17": "Washington's Birthday",
	"2025-04-18": "Good Friday",
	"2025-05-26": "Memorial Day",
	"2025-06-19": "Juneteenth",
	"2025-07-04": "Independence Day",
	"2025-09-01": "Labor Day",
	"2025-11-27": "Thanksgiving Day",
	"2025-12-25": "Christmas Day",

	// 2026
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King, Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// isHoliday reports whether the local calendar date is a full-session holiday.
func isHoliday(local time.Time) bool {
	_, ok := marketHolidays[local.Format("2006-01-02")]
	return ok
}

// HolidayName returns the holiday name for a local date, if any.
func HolidayName(local time.Time) (string, bool) {
	name, ok := marketHolidays[local.Format("2006-01-02")]
	return name, ok
}

// HasHolidayTable reports whether the static holiday set covers the given
// year. Callers use this to warn at startup when the table needs its annual
// refresh.
func HasHolidayTable(year int) bool {
	prefix := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	for date := range marketHolidays {
		if date[:4] == prefix {
			return true
		}
	}
	return false
}
