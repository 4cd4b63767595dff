package activities

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/date"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority of an Activity
type Priority string

const (
	// PriorityHigh is listed first
	PriorityHigh Priority = "High"
	// PriorityMedium is listed second
	PriorityMedium Priority = "Medium"
	// PriorityLow is listed last
	PriorityLow Priority = "Low"
)

// Rank orders priorities, lower ranks are listed first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}

	return 3
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p.Rank() < 3
}

// Activity is a recurring task, one occurrence per scheduled weekday for WeeksCount weeks
type Activity struct {
	ID                primitive.ObjectID `json:"id" bson:"_id"`
	Name              string             `json:"name" bson:"name"`
	TargetDuration    date.Seconds       `json:"targetDuration" bson:"targetDuration"`
	WeeksCount        int                `json:"weeksCount" bson:"weeksCount"`
	ScheduledWeekdays []string           `json:"scheduledWeekdays" bson:"scheduledWeekdays"`
	AnchorDate        time.Time          `json:"anchorDate" bson:"anchorDate"`
	Priority          Priority           `json:"priority" bson:"priority"`
	Occurrences       []Occurrence       `json:"occurrences" bson:"occurrences"`
	Version           int64              `json:"version" bson:"version"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	LastModifiedAt    time.Time          `json:"lastModifiedAt" bson:"lastModifiedAt"`
}

// OccurrenceCount is WeeksCount times the number of scheduled weekdays
func (a *Activity) OccurrenceCount() int {
	return a.WeeksCount * len(a.ScheduledWeekdays)
}

// Copy returns a deep copy that shares no slices with a
func (a *Activity) Copy() *Activity {
	c := *a
	c.ScheduledWeekdays = append([]string(nil), a.ScheduledWeekdays...)
	c.Occurrences = make([]Occurrence, len(a.Occurrences))
	for i, occurrence := range a.Occurrences {
		c.Occurrences[i] = occurrence.Copy()
	}

	return &c
}

// ActivityCreate is the payload for creating an Activity
type ActivityCreate struct {
	Name              string   `json:"name" validate:"required,max=200"`
	TargetDuration    string   `json:"targetDuration" validate:"required"`
	WeeksCount        int      `json:"weeksCount" validate:"required,min=1,max=520"`
	ScheduledWeekdays []string `json:"scheduledWeekdays" validate:"required,min=1,max=7,unique,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Priority          Priority `json:"priority" validate:"required,oneof=High Medium Low"`
}

// PriorityUpdate is the payload for changing the priority of an Activity
type PriorityUpdate struct {
	Priority Priority `json:"priority" validate:"required,oneof=High Medium Low"`
}

var validate = validator.New()

// Validate checks the payload, the returned error is a validator.ValidationErrors
func (c *ActivityCreate) Validate() error {
	return validate.Struct(c)
}

// Validate checks the payload, the returned error is a validator.ValidationErrors
func (u *PriorityUpdate) Validate() error {
	return validate.Struct(u)
}

// NewActivity builds an Activity anchored at anchor with all occurrences idle.
// The payload is expected to be validated already, only the duration text is parsed here.
func NewActivity(create ActivityCreate, anchor time.Time) (*Activity, error) {
	target, err := date.ParseDuration(create.TargetDuration)
	if err != nil {
		return nil, err
	}

	if target <= 0 {
		return nil, errors.Wrap(ErrFormat, "target duration must be positive")
	}

	activity := &Activity{
		Name:              create.Name,
		TargetDuration:    date.Seconds(target),
		WeeksCount:        create.WeeksCount,
		ScheduledWeekdays: append([]string(nil), create.ScheduledWeekdays...),
		AnchorDate:        anchor,
		Priority:          create.Priority,
	}

	activity.Occurrences = make([]Occurrence, activity.OccurrenceCount())

	return activity, nil
}
