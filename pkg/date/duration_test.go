package date

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDuration(t *testing.T) {
	var tests = []struct {
		in      string
		out     int64
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"01:02:03", 3723, false},
		{"00:03:20", 200, false},
		{"2:05", 125, false},
		{"45", 45, false},
		{" 100:00:00 ", 360000, false},
		{"00:90:00", 5400, false},
		{"", 0, true},
		{"1:2:3:4", 0, true},
		{"aa:00:00", 0, true},
		{"01::00", 0, true},
		{"-1:00:00", 0, true},
		{"+1:00:00", 0, true},
		{"1.5:00:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrFormat) {
				t.Errorf("ParseDuration(%q) error = %v, want ErrFormat", tt.in, err)
			}
			if got != tt.out {
				t.Errorf("ParseDuration(%q) got = %d, want %d", tt.in, got, tt.out)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	var tests = []struct {
		in  int64
		out string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3723, "01:02:03"},
		{86400, "24:00:00"},
		{360000, "100:00:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.out {
			t.Errorf("FormatDuration(%d) got = %s, want %s", tt.in, got, tt.out)
		}
	}
}

func TestFormatDuration_Negative(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FormatDuration(-1) did not panic")
		}
	}()

	FormatDuration(-1)
}

func TestDuration_RoundTrip(t *testing.T) {
	inputs := []string{"00:00:00", "1:2:3", "59:59", "7", "00:75:80", "123:45:06"}

	for _, text := range inputs {
		parsed, err := ParseDuration(text)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error = %v", text, err)
		}

		again, err := ParseDuration(FormatDuration(parsed))
		if err != nil {
			t.Fatalf("ParseDuration(FormatDuration(%d)) error = %v", parsed, err)
		}

		if again != parsed {
			t.Errorf("round trip of %q got = %d, want %d", text, again, parsed)
		}
	}
}

func TestSeconds_JSON(t *testing.T) {
	binary, err := json.Marshal(struct {
		Spent Seconds `json:"spent"`
	}{Spent: 125})
	if err != nil {
		t.Fatal(err)
	}

	if string(binary) != `{"spent":"00:02:05"}` {
		t.Errorf("Marshal got = %s", binary)
	}

	var decoded struct {
		Spent Seconds `json:"spent"`
	}

	for input, want := range map[string]Seconds{
		`{"spent":"00:02:05"}`: 125,
		`{"spent":300}`:        300,
	} {
		if err := json.Unmarshal([]byte(input), &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", input, err)
		}
		if decoded.Spent != want {
			t.Errorf("Unmarshal(%s) got = %d, want %d", input, decoded.Spent, want)
		}
	}

	for _, input := range []string{`{"spent":"x"}`, `{"spent":-3}`, `{"spent":true}`} {
		if err := json.Unmarshal([]byte(input), &decoded); !errors.Is(err, ErrFormat) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrFormat", input, err)
		}
	}
}
