package date

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrFormat is returned when a duration text is not of the form hh:mm:ss, mm:ss or ss
var ErrFormat = errors.New("malformed duration")

// ParseDuration parses up to three colon separated fields (hours, minutes, seconds) into total seconds.
// Fields are read right to left, so "90" is 90 seconds and "1:30" is 90 seconds as well.
func ParseDuration(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, errors.Wrap(ErrFormat, "empty duration")
	}

	fields := strings.Split(text, ":")
	if len(fields) > 3 {
		return 0, errors.Wrapf(ErrFormat, "%q has %d fields", text, len(fields))
	}

	var total int64
	for _, field := range fields {
		value, err := strconv.ParseUint(field, 10, 31)
		if err != nil {
			return 0, errors.Wrapf(ErrFormat, "%q is not numeric", field)
		}

		total = total*60 + int64(value)
	}

	return total, nil
}

// FormatDuration renders seconds as zero padded hh:mm:ss. Hours do not wrap around.
// Passing a negative value is a programming error.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		panic(fmt.Sprintf("date: negative duration %d", seconds))
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Seconds is a duration in whole seconds, rendered as hh:mm:ss in JSON
type Seconds int64

// String renders the value as hh:mm:ss, clamping negative values to zero
func (s Seconds) String() string {
	if s < 0 {
		s = 0
	}

	return FormatDuration(int64(s))
}

// MarshalJSON renders the hh:mm:ss text form
func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the hh:mm:ss text form or a plain number of seconds
func (s *Seconds) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		var number int64
		if err := json.Unmarshal(data, &number); err != nil {
			return errors.Wrap(ErrFormat, string(data))
		}

		if number < 0 {
			return errors.Wrapf(ErrFormat, "negative duration %d", number)
		}

		*s = Seconds(number)
		return nil
	}

	parsed, err := ParseDuration(text)
	if err != nil {
		return err
	}

	*s = Seconds(parsed)
	return nil
}
