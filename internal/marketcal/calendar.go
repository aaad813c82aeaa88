package marketcal

import (
	"time"
)

// Session boundaries in exchange-local seconds of day.
// The session is inclusive on both ends: 09:30:00 and 16:00:00 are open.
const (
	marketOpenSecond  = (9*60 + 30) * 60
	marketCloseSecond = 16 * 60 * 60

	openHour   = 9
	openMinute = 30
)

// Calendar decides whether the exchange is currently in session.
// It fails closed: if the exchange timezone cannot be loaded, IsMarketOpen
// always reports closed and NextMarketOpen returns nil. Running a cycle
// during a closed window is far cheaper to recover from than missing a
// closed-market signal.
type Calendar struct {
	loc *time.Location
}

// New creates a calendar for the given IANA timezone name.
// A timezone load failure is not an error; it produces a fail-closed calendar.
func New(timezone string) *Calendar {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return &Calendar{}
	}
	return &Calendar{loc: loc}
}

// IsMarketOpen reports whether the exchange is in session at the given instant.
func (c *Calendar) IsMarketOpen(now time.Time) bool {
	if c.loc == nil {
		return false
	}

	local := now.In(c.loc)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	if isHoliday(local) {
		return false
	}

	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return sec >= marketOpenSecond && sec <= marketCloseSecond
}

// NextMarketOpen returns the next 09:30 local session start at or after the
// given instant, rolling past the close and skipping weekend days.
// Returns nil when the calendar is fail-closed.
func (c *Calendar) NextMarketOpen(now time.Time) *time.Time {
	if c.loc == nil {
		return nil
	}

	local := now.In(c.loc)

	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if sec > marketCloseSecond {
		local = local.AddDate(0, 0, 1)
	}

	for local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		local = local.AddDate(0, 0, 1)
	}

	next := time.Date(local.Year(), local.Month(), local.Day(), openHour, openMinute, 0, 0, c.loc)
	return &next
}

// TradingDate derives the exchange-local trading date for the given capture
// instant. The date comes from the ingestion wall clock, never from upstream
// payload fields.
func (c *Calendar) TradingDate(now time.Time) (time.Time, bool) {
	if c.loc == nil {
		return time.Time{}, false
	}
	local := now.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), true
}

// Location exposes the exchange timezone, or nil when fail-closed.
func (c *Calendar) Location() *time.Location {
	return c.loc
}
