package activities

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/timeliness-app/activity-tracker/pkg/date"
)

var t0 = time.Date(2024, 1, 8, 9, 0, 0, 0, time.Local)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func running(spent date.Seconds, since time.Time) Occurrence {
	return Occurrence{TimeSpent: spent, IsRunning: true, RunningSince: &since}
}

func TestOccurrence_Apply(t *testing.T) {
	var tests = []struct {
		name   string
		in     Occurrence
		action Action
		target date.Seconds
		now    time.Time
		out    Occurrence
		err    error
	}{
		{"start idle", Occurrence{}, ActionStart, 3600, t0, running(0, t0), nil},
		{"start keeps accumulated time", Occurrence{TimeSpent: 40}, ActionStart, 3600, t0, running(40, t0), nil},
		{"pause below target", running(0, t0), ActionPause, 3600, at(125), Occurrence{TimeSpent: 125}, nil},
		{"pause reaching target completes", running(0, t0), ActionPause, 250, at(250),
			Occurrence{TimeSpent: 250, IsCompleted: true}, nil},
		{"pause above target completes", running(200, t0), ActionPause, 250, at(100),
			Occurrence{TimeSpent: 300, IsCompleted: true}, nil},
		{"start running", running(0, t0), ActionStart, 3600, at(10), Occurrence{}, ErrInvalidTransition},
		{"start completed", Occurrence{TimeSpent: 10, IsCompleted: true}, ActionStart, 3600, t0, Occurrence{},
			ErrInvalidTransition},
		{"pause idle", Occurrence{TimeSpent: 5}, ActionPause, 3600, t0, Occurrence{}, ErrInvalidTransition},
		{"pause completed", Occurrence{IsCompleted: true}, ActionPause, 3600, t0, Occurrence{}, ErrInvalidTransition},
		{"complete running folds elapsed", running(100, t0), ActionComplete, 3600, at(30),
			Occurrence{TimeSpent: 130, IsCompleted: true}, nil},
		{"complete idle early", Occurrence{TimeSpent: 20}, ActionComplete, 3600, t0,
			Occurrence{TimeSpent: 20, IsCompleted: true}, nil},
		{"complete completed", Occurrence{TimeSpent: 20, IsCompleted: true}, ActionComplete, 3600, at(50),
			Occurrence{TimeSpent: 20, IsCompleted: true}, nil},
		{"reset running", running(100, t0), ActionReset, 3600, at(30), Occurrence{}, nil},
		{"reset completed", Occurrence{TimeSpent: 3600, IsCompleted: true}, ActionReset, 3600, t0, Occurrence{}, nil},
		{"clock skew clamps to zero", running(70, t0), ActionPause, 3600, at(-10), Occurrence{TimeSpent: 70}, nil},
		{"unknown action", Occurrence{}, Action("stop"), 3600, t0, Occurrence{}, ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Apply(tt.action, tt.target, tt.now)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Apply() error = %v, want %v", err, tt.err)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if !reflect.DeepEqual(got, tt.out) {
				t.Errorf("Apply() got = %+v, want %+v", got, tt.out)
			}

			if err := got.Validate(tt.target); err != nil {
				t.Errorf("Apply() result violates invariants: %v", err)
			}
		})
	}
}

func TestOccurrence_ApplyDoesNotModifyReceiver(t *testing.T) {
	in := running(10, t0)

	_, err := in.Apply(ActionPause, 3600, at(60))
	if err != nil {
		t.Fatal(err)
	}

	if !in.IsRunning || in.TimeSpent != 10 || !in.RunningSince.Equal(t0) {
		t.Errorf("Apply() modified the receiver: %+v", in)
	}
}

func TestOccurrence_ResetThenStart(t *testing.T) {
	o := Occurrence{TimeSpent: 250, IsCompleted: true}

	o, err := o.Apply(ActionReset, 250, t0)
	if err != nil {
		t.Fatal(err)
	}

	o, err = o.Apply(ActionStart, 250, at(1))
	if err != nil {
		t.Fatal(err)
	}

	if o.State() != StateRunning || o.TimeSpent != 0 {
		t.Errorf("got = %+v, want a running occurrence without time spent", o)
	}
}

func TestOccurrence_TimeSpentAt(t *testing.T) {
	if got := running(30, t0).TimeSpentAt(at(90)); got != 120 {
		t.Errorf("TimeSpentAt() got = %d, want 120", got)
	}

	if got := running(30, t0).TimeSpentAt(at(-90)); got != 30 {
		t.Errorf("TimeSpentAt() before start got = %d, want 30", got)
	}

	if got := (Occurrence{TimeSpent: 30}).TimeSpentAt(at(90)); got != 30 {
		t.Errorf("TimeSpentAt() idle got = %d, want 30", got)
	}
}

func TestOccurrence_State(t *testing.T) {
	var tests = []struct {
		in  Occurrence
		out State
	}{
		{Occurrence{}, StateIdle},
		{Occurrence{TimeSpent: 10}, StateIdle},
		{running(0, t0), StateRunning},
		{Occurrence{IsCompleted: true}, StateCompleted},
	}

	for _, tt := range tests {
		if got := tt.in.State(); got != tt.out {
			t.Errorf("State() of %+v got = %s, want %s", tt.in, got, tt.out)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"start", "pause", "complete", "reset"} {
		if _, err := ParseAction(name); err != nil {
			t.Errorf("ParseAction(%q) error = %v", name, err)
		}
	}

	if _, err := ParseAction("Start"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction() error = %v, want ErrUnknownAction", err)
	}
}
