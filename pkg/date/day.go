package date

import (
	"time"
)

// DayLayout is the layout used for calendar days in query strings
const DayLayout = "2006-01-02"

// StartOfDay returns midnight of the calendar day t falls on, in t's location
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from the day of `from` to the day of `to`, both read in the local time zone.
// The result is negative when `to` lies on an earlier day. Daylight saving shifts do not affect the count.
func DaysBetween(from time.Time, to time.Time) int {
	fromYear, fromMonth, fromDay := from.In(time.Local).Date()
	toYear, toMonth, toDay := to.In(time.Local).Date()

	// UTC midnights are exactly 24h apart
	start := time.Date(fromYear, fromMonth, fromDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(toYear, toMonth, toDay, 0, 0, 0, 0, time.UTC)

	return int(end.Sub(start).Hours() / 24)
}

// ParseDay parses a YYYY-MM-DD string as midnight local time
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, value, time.Local)
}

// WeekdayName returns the English weekday name of t in the local time zone
func WeekdayName(t time.Time) string {
	return t.In(time.Local).Weekday().String()
}
