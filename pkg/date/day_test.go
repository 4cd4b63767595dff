package date

import (
	"testing"
	"time"
)

func timeDate(year int, month time.Month, day int, hour int, min int, seconds int) time.Time {
	loc, _ := time.LoadLocation("Local")
	return time.Date(year, month, day, hour, min, seconds, 0, loc)
}

func TestDaysBetween(t *testing.T) {
	var tests = []struct {
		name string
		from time.Time
		to   time.Time
		out  int
	}{
		{"same day", timeDate(2024, 1, 1, 10, 0, 0), timeDate(2024, 1, 1, 23, 59, 59), 0},
		{"next morning before anchor clock", timeDate(2024, 1, 1, 10, 0, 0), timeDate(2024, 1, 2, 8, 0, 0), 1},
		{"one week", timeDate(2024, 1, 1, 10, 0, 0), timeDate(2024, 1, 8, 9, 0, 0), 7},
		{"earlier day", timeDate(2024, 1, 8, 0, 0, 0), timeDate(2024, 1, 1, 23, 0, 0), -7},
		{"across march", timeDate(2024, 3, 1, 12, 0, 0), timeDate(2024, 4, 1, 12, 0, 0), 31},
		{"across year", timeDate(2023, 12, 31, 12, 0, 0), timeDate(2024, 1, 1, 0, 0, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.to); got != tt.out {
				t.Errorf("DaysBetween() got = %d, want %d", got, tt.out)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2024-01-08")
	if err != nil {
		t.Fatal(err)
	}

	if !got.Equal(timeDate(2024, 1, 8, 0, 0, 0)) {
		t.Errorf("ParseDay() got = %v", got)
	}

	if WeekdayName(got) != "Monday" {
		t.Errorf("WeekdayName() got = %s, want Monday", WeekdayName(got))
	}

	if _, err := ParseDay("08.01.2024"); err == nil {
		t.Error("ParseDay() expected an error for a wrong layout")
	}
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(timeDate(2024, 5, 17, 13, 45, 12))
	if !got.Equal(timeDate(2024, 5, 17, 0, 0, 0)) {
		t.Errorf("StartOfDay() got = %v", got)
	}
}
