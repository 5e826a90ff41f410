package schema

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock offset from midnight, independent of date and zone.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// TimeOfDayOf extracts the clock offset of a timestamp.
func TimeOfDayOf(ts time.Time) TimeOfDay {
	return NewTimeOfDay(ts.Clock())
}

// After reports whether t is strictly later in the day than other.
func (t TimeOfDay) After(other TimeOfDay) bool {
	return t > other
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d.Hours())%24, int(d.Minutes())%60, int(d.Seconds())%60)
}

// ParseTimeOfDay parses "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return NewTimeOfDay(hour, minute, second), nil
}
