package activities

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/date"
)

// AgendaFilter narrows the entries of an Agenda
type AgendaFilter string

const (
	// FilterAll keeps every scheduled entry
	FilterAll AgendaFilter = "All"
	// FilterCompleted keeps completed occurrences
	FilterCompleted AgendaFilter = "Completed"
	// FilterOngoing keeps occurrences that are not completed yet
	FilterOngoing AgendaFilter = "Ongoing"
)

// ParseAgendaFilter accepts an empty name as FilterAll
func ParseAgendaFilter(name string) (AgendaFilter, error) {
	switch filter := AgendaFilter(name); filter {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterOngoing:
		return filter, nil
	}

	return "", errors.Errorf("unknown filter %q", name)
}

func (f AgendaFilter) matches(o Occurrence) bool {
	switch f {
	case FilterCompleted:
		return o.IsCompleted
	case FilterOngoing:
		return !o.IsCompleted
	}

	return true
}

// AgendaEntry is one activity scheduled on the agenda's day
type AgendaEntry struct {
	ActivityID     string       `json:"activityId"`
	Name           string       `json:"name"`
	Priority       Priority     `json:"priority"`
	Index          int          `json:"index"`
	Occurrence     Occurrence   `json:"occurrence"`
	State          State        `json:"state"`
	TimeSpent      date.Seconds `json:"timeSpent"`
	TargetDuration date.Seconds `json:"targetDuration"`
}

// Agenda is the overview of a single day. Totals always cover all scheduled activities, the filter only
// narrows Entries.
type Agenda struct {
	Date           string        `json:"date"`
	Filter         AgendaFilter  `json:"filter"`
	Entries        []AgendaEntry `json:"entries"`
	AllocatedTime  date.Seconds  `json:"allocatedTime"`
	SpentTime      date.Seconds  `json:"spentTime"`
	CompletionRate int           `json:"completionRate"`
	CompletedCount int           `json:"completedCount"`
	OngoingCount   int           `json:"ongoingCount"`
	TotalCount     int           `json:"totalCount"`
}

// Agenda lists every activity scheduled on day in priority order
func (s *SchedulingService) Agenda(ctx context.Context, day time.Time, filter AgendaFilter) (*Agenda, error) {
	activities, err := s.ListActivities(ctx)
	if err != nil {
		return nil, err
	}

	return BuildAgenda(activities, day, filter, now()), nil
}

// BuildAgenda computes the agenda of day from activities, running timers are evaluated at current
func BuildAgenda(activities []Activity, day time.Time, filter AgendaFilter, current time.Time) *Agenda {
	agenda := &Agenda{
		Date:    day.Format(date.DayLayout),
		Filter:  filter,
		Entries: []AgendaEntry{},
	}

	for i := range activities {
		activity := &activities[i]

		index, err := activity.OccurrenceIndex(day)
		if err != nil || activity.CheckIndex(index) != nil {
			continue
		}

		occurrence := activity.Occurrences[index]
		spent := occurrence.TimeSpentAt(current)

		agenda.TotalCount++
		agenda.AllocatedTime += activity.TargetDuration
		agenda.SpentTime += spent
		if occurrence.IsCompleted {
			agenda.CompletedCount++
		} else {
			agenda.OngoingCount++
		}

		if !filter.matches(occurrence) {
			continue
		}

		agenda.Entries = append(agenda.Entries, AgendaEntry{
			ActivityID:     activity.ID.Hex(),
			Name:           activity.Name,
			Priority:       activity.Priority,
			Index:          index,
			Occurrence:     occurrence,
			State:          occurrence.State(),
			TimeSpent:      spent,
			TargetDuration: activity.TargetDuration,
		})
	}

	if agenda.AllocatedTime > 0 {
		agenda.CompletionRate = int(agenda.SpentTime * 100 / agenda.AllocatedTime)
	}

	return agenda
}
