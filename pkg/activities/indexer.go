package activities

import (
	"time"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/date"
)

// ResolveIndex maps a calendar date to the occurrence index of a schedule.
// Occurrences are ordered week major and, inside a week, in the order the weekdays were declared.
func ResolveIndex(anchor time.Time, weekdays []string, weeksCount int, day time.Time) (int, error) {
	dayOffset := date.DaysBetween(anchor, day)
	if dayOffset < 0 {
		return -1, errors.Wrapf(ErrNotScheduled, "%s is before the anchor date", day.Format(date.DayLayout))
	}

	weekdayIndex := indexOf(weekdays, date.WeekdayName(day))
	if weekdayIndex == -1 {
		return -1, errors.Wrapf(ErrNotScheduled, "%s is not a scheduled weekday", date.WeekdayName(day))
	}

	weekIndex := dayOffset / 7
	if weekIndex >= weeksCount {
		return -1, errors.Wrapf(ErrNotScheduled, "%s is after the last week", day.Format(date.DayLayout))
	}

	return weekIndex*len(weekdays) + weekdayIndex, nil
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}

	return -1
}

// OccurrenceIndex resolves the occurrence of a on the given day
func (a *Activity) OccurrenceIndex(day time.Time) (int, error) {
	return ResolveIndex(a.AnchorDate, a.ScheduledWeekdays, a.WeeksCount, day)
}

// CheckIndex returns ErrOutOfRange unless 0 <= index < OccurrenceCount
func (a *Activity) CheckIndex(index int) error {
	if index < 0 || index >= a.OccurrenceCount() || index >= len(a.Occurrences) {
		return errors.Wrapf(ErrOutOfRange, "index %d, activity has %d occurrences", index, len(a.Occurrences))
	}

	return nil
}

// OccurrenceDate is the inverse of OccurrenceIndex, it returns local midnight of the day of occurrence index
func (a *Activity) OccurrenceDate(index int) (time.Time, error) {
	if err := a.CheckIndex(index); err != nil {
		return time.Time{}, err
	}

	weekIndex := index / len(a.ScheduledWeekdays)
	weekday := a.ScheduledWeekdays[index%len(a.ScheduledWeekdays)]

	weekStart := date.StartOfDay(a.AnchorDate.In(time.Local)).AddDate(0, 0, weekIndex*7)
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		if day.Weekday().String() == weekday {
			return day, nil
		}
	}

	return time.Time{}, errors.Errorf("unknown weekday %q", weekday)
}

// ScheduledOccurrence is a single entry of an Activity's schedule
type ScheduledOccurrence struct {
	Index      int        `json:"index"`
	Date       string     `json:"date"`
	Occurrence Occurrence `json:"occurrence"`
}

// Schedule lists every occurrence with its calendar day, in index order
func (a *Activity) Schedule() ([]ScheduledOccurrence, error) {
	schedule := make([]ScheduledOccurrence, 0, len(a.Occurrences))

	for i := range a.Occurrences {
		day, err := a.OccurrenceDate(i)
		if err != nil {
			return nil, err
		}

		schedule = append(schedule, ScheduledOccurrence{
			Index:      i,
			Date:       day.Format(date.DayLayout),
			Occurrence: a.Occurrences[i],
		})
	}

	return schedule, nil
}
