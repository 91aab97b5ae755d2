package sla

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day with minute precision, independent of any date.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	ct := ClockTime{Hour: hour, Minute: minute}
	if !ct.Valid() {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return ct, nil
}

// Valid reports whether the time of day is within 00:00..24:00.
func (c ClockTime) Valid() bool {
	if c.Hour == 24 && c.Minute == 0 {
		return true
	}
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// Offset returns the duration from midnight.
func (c ClockTime) Offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// String renders "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Calendar describes which weekdays and which daily window count as eligible
// time. A nil *Calendar means continuous (24/7) time.
type Calendar struct {
	days  map[time.Weekday]bool
	start ClockTime
	end   ClockTime
}

// NewCalendar builds a calendar from a weekday set and a daily window. The
// window at end is exclusive: a moment exactly at start counts, a moment
// exactly at end does not.
func NewCalendar(days []time.Weekday, start, end ClockTime) *Calendar {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return &Calendar{days: set, start: start, end: end}
}

// Valid reports whether the calendar can accumulate any eligible time.
func (c *Calendar) Valid() bool {
	if c == nil {
		return true
	}
	if len(c.days) == 0 {
		return false
	}
	if !c.start.Valid() || !c.end.Valid() {
		return false
	}
	return c.start.Offset() < c.end.Offset()
}

// Window returns the eligible [from, to) interval for the day containing t,
// or ok=false when t's weekday is not a business day.
func (c *Calendar) Window(t time.Time) (from, to time.Time, ok bool) {
	if !c.days[t.Weekday()] {
		return time.Time{}, time.Time{}, false
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Add(c.start.Offset()), midnight.Add(c.end.Offset()), true
}
