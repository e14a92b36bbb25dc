package model

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since local midnight.
// Schedule windows compare as plain integers, so "09:00" < "12:30" holds
// without lexical string comparison edge cases.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string on a 24-hour clock.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// TimeOfDayFrom truncates a wall-clock instant to minute precision.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalJSON encodes the time as an "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes an "HH:MM" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScheduleWindow is a worker's daily schedule: the working interval and the
// break interval inside it. All intervals are start-inclusive, end-exclusive.
type ScheduleWindow struct {
	WorkStart  TimeOfDay `json:"work_start"`
	WorkEnd    TimeOfDay `json:"work_end"`
	BreakStart TimeOfDay `json:"break_start"`
	BreakEnd   TimeOfDay `json:"break_end"`
}

// InBreak reports whether now falls inside the break interval.
func (w ScheduleWindow) InBreak(now TimeOfDay) bool {
	return now >= w.BreakStart && now < w.BreakEnd
}

// BreakOver reports whether the break interval has ended at now.
func (w ScheduleWindow) BreakOver(now TimeOfDay) bool {
	return now >= w.BreakEnd
}
