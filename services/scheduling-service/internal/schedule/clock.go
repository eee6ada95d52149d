package schedule

import (
	"fmt"
	"time"
)

// Clock is a time of day in minutes since midnight. All slot arithmetic is
// done on Clock values; the wire format is always "HH:MM".
type Clock int

const (
	DateFormat = "2006-01-02"

	minutesPerDay = 24 * 60
)

// ParseClock accepts "HH:MM" or "HH:MM:SS" (the store may return seconds;
// they are stripped, never written back).
func ParseClock(s string) (Clock, error) {
	var h, m, sec int
	switch len(s) {
	case 5:
		if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
	case 8:
		if _, err := fmt.Sscanf(s, "%2d:%2d:%2d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// Weekday returns the day of week (0 = Sunday) for a "YYYY-MM-DD" date.
func Weekday(date string) (int, error) {
	d, err := time.Parse(DateFormat, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return int(d.Weekday()), nil
}

// ValidDate reports whether date is a well-formed "YYYY-MM-DD" string.
func ValidDate(date string) bool {
	_, err := time.Parse(DateFormat, date)
	return err == nil
}

// SlotName is the display label for a synthesized slot.
func SlotName(start, end Clock) string {
	return start.String() + " - " + end.String()
}
