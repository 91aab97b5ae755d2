package sla

import (
	"errors"
	"time"
)

// maxProjectionDays bounds the forward walk in Deadline so a calendar that
// never accumulates enough eligible time cannot loop forever.
const maxProjectionDays = 3700

// ErrDeadlineUnreachable is returned when the delay cannot be satisfied
// within the projection horizon.
var ErrDeadlineUnreachable = errors.New("sla: deadline not reachable within projection horizon")

// Elapsed returns the eligible time between start and end under the calendar.
// A nil calendar means continuous time and yields the plain wall-clock
// difference. A start after end yields zero, never a negative duration.
func Elapsed(start, end time.Time, cal *Calendar) time.Duration {
	if !end.After(start) {
		return 0
	}
	if cal == nil {
		return end.Sub(start)
	}

	var total time.Duration
	for day := startOfDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		from, to, ok := cal.Window(day)
		if !ok {
			continue
		}
		if start.After(from) {
			from = start
		}
		if end.Before(to) {
			to = end
		}
		if to.After(from) {
			total += to.Sub(from)
		}
	}
	return total
}

// Deadline projects delay forward from start through the calendar, skipping
// ineligible spans, and returns the instant that completes exactly delay of
// eligible time. A nil calendar yields start+delay.
func Deadline(start time.Time, delay time.Duration, cal *Calendar) (time.Time, error) {
	if delay <= 0 {
		return start, nil
	}
	if cal == nil {
		return start.Add(delay), nil
	}

	remaining := delay
	day := startOfDay(start)
	for i := 0; i < maxProjectionDays; i++ {
		if from, to, ok := cal.Window(day); ok {
			if start.After(from) {
				from = start
			}
			if avail := to.Sub(from); avail > 0 {
				if avail >= remaining {
					return from.Add(remaining), nil
				}
				remaining -= avail
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, ErrDeadlineUnreachable
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
