package activities

import (
	"time"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/date"
)

// Action is something a user does to an Occurrence
type Action string

const (
	// ActionStart starts the timer of an idle occurrence
	ActionStart Action = "start"
	// ActionPause stops the timer and adds the elapsed time
	ActionPause Action = "pause"
	// ActionComplete marks the occurrence completed, folding in a running timer first
	ActionComplete Action = "complete"
	// ActionReset returns the occurrence to its initial state
	ActionReset Action = "reset"
)

// ParseAction validates an action name
func ParseAction(name string) (Action, error) {
	switch action := Action(name); action {
	case ActionStart, ActionPause, ActionComplete, ActionReset:
		return action, nil
	}

	return "", errors.Wrapf(ErrUnknownAction, "%q", name)
}

// State of an Occurrence
type State string

const (
	// StateIdle is neither running nor completed, time may already be accumulated
	StateIdle State = "Idle"
	// StateRunning has a running timer
	StateRunning State = "Running"
	// StateCompleted is terminal until a reset
	StateCompleted State = "Completed"
)

// Occurrence is the timer and completion state of one scheduled day of an Activity
type Occurrence struct {
	TimeSpent    date.Seconds `json:"timeSpent" bson:"timeSpent"`
	IsRunning    bool         `json:"isRunning" bson:"isRunning"`
	IsCompleted  bool         `json:"isCompleted" bson:"isCompleted"`
	RunningSince *time.Time   `json:"runningSince,omitempty" bson:"runningSince,omitempty"`
}

// State derives the state machine state from the flags
func (o Occurrence) State() State {
	switch {
	case o.IsCompleted:
		return StateCompleted
	case o.IsRunning:
		return StateRunning
	}

	return StateIdle
}

// Copy returns an Occurrence that does not share RunningSince with o
func (o Occurrence) Copy() Occurrence {
	if o.RunningSince != nil {
		since := *o.RunningSince
		o.RunningSince = &since
	}

	return o
}

// elapsed is the whole seconds the timer has been running at now, never negative
func (o Occurrence) elapsed(now time.Time) date.Seconds {
	if !o.IsRunning || o.RunningSince == nil {
		return 0
	}

	seconds := int64(now.Sub(*o.RunningSince) / time.Second)
	if seconds < 0 {
		return 0
	}

	return date.Seconds(seconds)
}

// TimeSpentAt is the accumulated time including the currently running segment
func (o Occurrence) TimeSpentAt(now time.Time) date.Seconds {
	return o.TimeSpent + o.elapsed(now)
}

// Apply runs action against the occurrence and returns the resulting state. o itself is not modified.
func (o Occurrence) Apply(action Action, target date.Seconds, now time.Time) (Occurrence, error) {
	next := o.Copy()

	switch action {
	case ActionStart:
		if o.IsCompleted {
			return o, errors.Wrap(ErrInvalidTransition, "occurrence is already completed")
		}
		if o.IsRunning {
			return o, errors.Wrap(ErrInvalidTransition, "occurrence is already running")
		}

		since := now
		next.IsRunning = true
		next.RunningSince = &since
	case ActionPause:
		if !o.IsRunning {
			return o, errors.Wrap(ErrInvalidTransition, "occurrence is not running")
		}

		next.stop(now)
		if next.TimeSpent >= target {
			next.IsCompleted = true
		}
	case ActionComplete:
		next.stop(now)
		next.IsCompleted = true
	case ActionReset:
		next = Occurrence{}
	default:
		return o, errors.Wrapf(ErrUnknownAction, "%q", action)
	}

	return next, nil
}

// stop folds the running segment into TimeSpent
func (o *Occurrence) stop(now time.Time) {
	o.TimeSpent += o.elapsed(now)
	o.IsRunning = false
	o.RunningSince = nil
}

// Validate checks the invariants of a stored occurrence
func (o Occurrence) Validate(target date.Seconds) error {
	switch {
	case o.TimeSpent < 0:
		return errors.New("negative time spent")
	case o.IsRunning != (o.RunningSince != nil):
		return errors.New("running flag and running since disagree")
	case o.IsCompleted && o.IsRunning:
		return errors.New("completed occurrence is running")
	case !o.IsRunning && o.TimeSpent >= target && !o.IsCompleted:
		return errors.New("target reached but not completed")
	}

	return nil
}
